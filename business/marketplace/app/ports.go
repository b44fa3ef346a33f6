// Package app contains the purchase and administration flows for the
// marketplace context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Settlement is the outcome of a mined transaction.
type Settlement struct {
	TxHash  common.Hash
	GasUsed uint64
}

// LedgerWriter submits state-changing marketplace transactions and waits
// for them to settle. Signing happens wallet side, callers never handle
// private keys.
type LedgerWriter interface {
	// PurchaseCourse buys a course for the first time. The value travels
	// with the transaction in wei.
	PurchaseCourse(ctx context.Context, from common.Address, courseID [16]byte, proof common.Hash, value *big.Int) (Settlement, error)

	// RepurchaseCourse re-buys a deactivated course by its ledger hash.
	RepurchaseCourse(ctx context.Context, from common.Address, hash common.Hash, value *big.Int) (Settlement, error)

	// ActivateCourse marks a purchase as activated. Contract owner only.
	ActivateCourse(ctx context.Context, from common.Address, hash common.Hash) (Settlement, error)

	// DeactivateCourse refunds and deactivates a purchase. Contract owner only.
	DeactivateCourse(ctx context.Context, from common.Address, hash common.Hash) (Settlement, error)

	// Withdraw moves funds out of the contract. Contract owner only.
	Withdraw(ctx context.Context, from common.Address, amount *big.Int) (Settlement, error)

	// EmergencyWithdraw drains the contract while it is stopped. Contract
	// owner only.
	EmergencyWithdraw(ctx context.Context, from common.Address) (Settlement, error)
}

// Revalidator invalidates ownership caches after a settled transaction.
// Implemented by the courses context.
type Revalidator interface {
	RevalidateOwned(ctx context.Context)
	RevalidateManaged(ctx context.Context)
	ApplyRepurchase(hash common.Hash)
}
