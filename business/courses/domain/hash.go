package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/jinwei908/eth-market-course/internal/apperror"
)

const courseIDBytes = 16

// CourseHash derives the ledger key for a course and owner pair. The ledger
// keys ownership by keccak256 of the course id packed into 16 bytes followed
// by the owner address, so two owners of the same course occupy distinct
// slots.
func CourseHash(courseID string, owner common.Address) (common.Hash, error) {
	packed, err := PackCourseID(courseID)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(packed[:], owner.Bytes()), nil
}

// PackCourseID encodes the catalog id as a right-padded 16-byte word, the
// form the ledger takes course ids in.
func PackCourseID(courseID string) ([16]byte, error) {
	var packed [16]byte
	raw := []byte(courseID)
	if len(raw) == 0 || len(raw) > courseIDBytes {
		return packed, apperror.New(apperror.CodeInvalidCourseID,
			apperror.WithContext(fmt.Sprintf("course id %q must be 1 to %d bytes", courseID, courseIDBytes)))
	}
	copy(packed[:], raw)
	return packed, nil
}

// EmailHash hashes the buyer's email for the purchase proof. Only the hash
// ever reaches the chain.
func EmailHash(email string) common.Hash {
	return crypto.Keccak256Hash([]byte(email))
}

// PurchaseProof combines the email hash with the order hash. The ledger
// stores this value at purchase time; verification recomputes it.
func PurchaseProof(emailHash, orderHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(emailHash.Bytes(), orderHash.Bytes())
}

// VerifyProof checks a stored proof against a claimed buyer email.
func VerifyProof(proof, emailHash, courseHash common.Hash) bool {
	return PurchaseProof(emailHash, courseHash) == proof
}

// ParseCourseHash validates a user-supplied hash string. The ledger lookup
// accepts exactly one format, a 0x-prefixed 32-byte hex string.
func ParseCourseHash(s string) (common.Hash, error) {
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, apperror.New(apperror.CodeInvalidHash,
			apperror.WithContext(fmt.Sprintf("hash %q", s)))
	}
	return common.BytesToHash(raw), nil
}
