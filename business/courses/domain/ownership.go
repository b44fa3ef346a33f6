package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/asset"
)

// State is the on-chain lifecycle of a purchased course.
type State uint8

const (
	StatePurchased   State = 0
	StateActivated   State = 1
	StateDeactivated State = 2
)

// String returns the canonical state label.
func (s State) String() string {
	switch s {
	case StatePurchased:
		return "purchased"
	case StateActivated:
		return "activated"
	case StateDeactivated:
		return "deactivated"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// DecodeState maps a raw contract state code. An unmapped code is a fatal
// data integrity failure, not a recoverable fetch error.
func DecodeState(raw uint8) (State, error) {
	switch State(raw) {
	case StatePurchased, StateActivated, StateDeactivated:
		return State(raw), nil
	default:
		return 0, apperror.New(apperror.CodeUnknownState,
			apperror.WithContext(fmt.Sprintf("state code %d", raw)),
			apperror.AsFatal(),
		)
	}
}

// Record is the raw ownership tuple as the ledger stores it.
type Record struct {
	ID    *big.Int
	Price *big.Int
	Proof [32]byte
	Owner common.Address
	State uint8
}

// Exists reports whether the record describes a real purchase. The ledger
// returns a zeroed record for unknown hashes, with the owner slot zeroed.
func (r Record) Exists() bool {
	return r.Owner != (common.Address{})
}

// OwnedCourse merges the catalog entry with its ownership record.
type OwnedCourse struct {
	Course

	OwnedID *big.Int
	Hash    common.Hash
	Proof   common.Hash
	Owner   common.Address
	Price   asset.Amount // denominated in ether, converted from wei
	State   State
}

// ManagedCourse is an ownership record viewed without catalog context. The
// management surface walks the ledger directly, so the catalog entry may not
// exist for every record it finds.
type ManagedCourse struct {
	OwnedID *big.Int
	Hash    common.Hash
	Proof   common.Hash
	Owner   common.Address
	Price   asset.Amount
	State   State
}

// NormalizeManaged builds the management view of a ledger record. A zeroed
// record yields nil.
func NormalizeManaged(hash common.Hash, record Record) (*ManagedCourse, error) {
	if !record.Exists() {
		return nil, nil
	}

	state, err := DecodeState(record.State)
	if err != nil {
		return nil, err
	}

	return &ManagedCourse{
		OwnedID: record.ID,
		Hash:    hash,
		Proof:   common.Hash(record.Proof),
		Owner:   record.Owner,
		Price:   asset.NewAmount(record.Price),
		State:   state,
	}, nil
}

// Normalize merges a catalog course with its ledger record. A record for a
// hash the ledger has never seen yields nil.
func Normalize(course Course, hash common.Hash, record Record) (*OwnedCourse, error) {
	if !record.Exists() {
		return nil, nil
	}

	state, err := DecodeState(record.State)
	if err != nil {
		return nil, err
	}

	return &OwnedCourse{
		Course:  course,
		OwnedID: record.ID,
		Hash:    hash,
		Proof:   common.Hash(record.Proof),
		Owner:   record.Owner,
		Price:   asset.NewAmount(record.Price),
		State:   state,
	}, nil
}
