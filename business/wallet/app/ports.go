// Package app contains application services and port definitions for the wallet context.
package app

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/jinwei908/eth-market-course/business/wallet/domain"
)

// ErrNoProvider is the recoverable "install a wallet" condition: no provider
// could be detected. It is an expected end state, not a failure.
var ErrNoProvider = errors.New("wallet: no provider detected")

// Unsubscribe releases a provider event subscription. Safe to call more
// than once.
type Unsubscribe func()

// Handler receives provider events.
type Handler func(ev domain.Event)

// TxMessage describes a transaction submitted for provider-side signing.
type TxMessage struct {
	From  common.Address
	To    common.Address
	Value *big.Int // wei, nil for non-payable calls
	Data  []byte
}

// Provider is the wallet provider port: the RPC surface plus the event
// subscription interface. Injected explicitly wherever wallet state is
// consumed; nothing reads it from ambient globals.
type Provider interface {
	// Accounts lists the wallet's unlocked accounts.
	Accounts(ctx context.Context) ([]common.Address, error)

	// RequestAccounts prompts the wallet to expose its accounts.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID returns the connected chain's id.
	ChainID(ctx context.Context) (uint64, error)

	// CallContract executes a read-only contract call.
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)

	// SendTransaction submits a provider-signed transaction and returns its hash.
	SendTransaction(ctx context.Context, msg TxMessage) (common.Hash, error)

	// TransactionReceipt fetches the receipt for a mined transaction.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// Subscribe registers a handler for the event kind. The returned
	// Unsubscribe must be invoked exactly once when the subscription is
	// superseded.
	Subscribe(kind domain.EventKind, h Handler) (Unsubscribe, error)

	// Close releases the provider's network resources.
	Close()
}
