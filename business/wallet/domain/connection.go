// Package domain contains the core domain types for the wallet context.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Phase represents the lifecycle phase of the wallet connection.
type Phase string

const (
	PhaseLoading     Phase = "loading"
	PhaseReady       Phase = "ready"
	PhaseUnavailable Phase = "unavailable"
)

// EventKind identifies a provider event.
type EventKind string

const (
	EventAccountsChanged EventKind = "accountsChanged"
	EventChainChanged    EventKind = "chainChanged"
)

// Event is a change pushed by the wallet provider.
type Event struct {
	Kind     EventKind
	Accounts []common.Address // EventAccountsChanged: the new account list
	ChainID  uint64           // EventChainChanged: the new chain id
}
