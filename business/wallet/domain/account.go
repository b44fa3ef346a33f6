package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is the active wallet identity.
type Account struct {
	Address common.Address
	IsAdmin bool
}

// AdminSet is the fixed allow-set of keccak256(address) digests granted the
// catalog-management operations. Membership is client-side policy, not ledger
// state.
type AdminSet struct {
	hashes map[common.Hash]struct{}
}

// NewAdminSet parses the configured hex digests into an AdminSet.
func NewAdminSet(hexHashes []string) (AdminSet, error) {
	hashes := make(map[common.Hash]struct{}, len(hexHashes))
	for _, h := range hexHashes {
		raw, err := hexutil.Decode(h)
		if err != nil || len(raw) != common.HashLength {
			return AdminSet{}, fmt.Errorf("invalid admin hash %q", h)
		}
		hashes[common.BytesToHash(raw)] = struct{}{}
	}
	return AdminSet{hashes: hashes}, nil
}

// AdminSetOf hashes plain addresses into an AdminSet. Test and tooling helper.
func AdminSetOf(addrs ...common.Address) AdminSet {
	hashes := make(map[common.Hash]struct{}, len(addrs))
	for _, a := range addrs {
		hashes[HashAddress(a)] = struct{}{}
	}
	return AdminSet{hashes: hashes}
}

// Contains reports whether the address hashes into the set.
func (s AdminSet) Contains(addr common.Address) bool {
	_, ok := s.hashes[HashAddress(addr)]
	return ok
}

// HashAddress returns keccak256 of the 20 address bytes, the scheme the
// admin set is keyed by.
func HashAddress(addr common.Address) common.Hash {
	return crypto.Keccak256Hash(addr.Bytes())
}
