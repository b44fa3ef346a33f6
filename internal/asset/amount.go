// Package asset provides value objects for ether amounts. Raw values are
// always wei; display values are decimal ether.
package asset

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of wei digits in one ether.
const EtherDecimals = 18

// Common errors
var (
	ErrNilRaw         = errors.New("asset: nil raw value")
	ErrNegativeAmount = errors.New("asset: negative amount")
)

// Amount is an immutable value object representing a quantity of ether.
type Amount struct {
	raw *big.Int
}

// NewAmount creates an Amount from a raw wei value.
func NewAmount(raw *big.Int) Amount {
	if raw == nil {
		panic(ErrNilRaw)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw)}
}

// Zero returns a zero Amount.
func Zero() Amount {
	return Amount{raw: big.NewInt(0)}
}

// FromEther converts a decimal ether value into an Amount.
func FromEther(ether decimal.Decimal) (Amount, error) {
	if ether.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	wei := ether.Shift(EtherDecimals)
	return Amount{raw: wei.BigInt()}, nil
}

// Raw returns a copy of the raw wei value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.raw)
}

// Ether returns the amount as decimal ether.
func (a Amount) Ether() decimal.Decimal {
	if a.raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -EtherDecimals)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// Cmp compares two amounts: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.Raw().Cmp(b.Raw())
}

// String renders the amount as decimal ether.
func (a Amount) String() string {
	return a.Ether().String()
}
