package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewAdminSet(t *testing.T) {
	admin := common.HexToAddress("0x1111111111111111111111111111111111111111")
	adminHash := HashAddress(admin)

	set, err := NewAdminSet([]string{adminHash.Hex()})
	if err != nil {
		t.Fatalf("NewAdminSet: %v", err)
	}

	if !set.Contains(admin) {
		t.Error("configured admin not recognized")
	}
	if set.Contains(common.HexToAddress("0x2222222222222222222222222222222222222222")) {
		t.Error("arbitrary address recognized as admin")
	}
}

func TestNewAdminSetRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{name: "not_hex", hash: "not-a-hash"},
		{name: "missing_prefix", hash: "e84da52ab5da5aa49dd5a94636dfebc2f41ba9539ecfe8dfd073cbf1e4b3f0b9"},
		{name: "too_short", hash: "0xabcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAdminSet([]string{tt.hash}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAdminSetOf(t *testing.T) {
	admin := common.HexToAddress("0x3333333333333333333333333333333333333333")
	set := AdminSetOf(admin)

	if !set.Contains(admin) {
		t.Error("AdminSetOf address not contained")
	}
}

func TestResolveNetwork(t *testing.T) {
	tests := []struct {
		name          string
		chainID       uint64
		targetChainID uint64
		wantOK        bool
		wantSupported bool
		wantName      string
	}{
		{name: "on_target_chain", chainID: 1337, targetChainID: 1337, wantOK: true, wantSupported: true, wantName: "Ganache"},
		{name: "known_but_wrong_chain", chainID: 1, targetChainID: 1337, wantOK: true, wantSupported: false, wantName: "Ethereum Main Network"},
		{name: "unknown_chain", chainID: 99999, targetChainID: 1337, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network, ok := ResolveNetwork(tt.chainID, tt.targetChainID)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if network.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", network.Name, tt.wantName)
			}
			if network.IsSupported != tt.wantSupported {
				t.Errorf("IsSupported = %v, want %v", network.IsSupported, tt.wantSupported)
			}
		})
	}
}
