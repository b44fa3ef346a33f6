package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jinwei908/eth-market-course/internal/apperror"
)

func TestCourseHashIsDeterministic(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	h1, err := CourseHash("1410474", owner)
	if err != nil {
		t.Fatalf("CourseHash: %v", err)
	}
	h2, err := CourseHash("1410474", owner)
	if err != nil {
		t.Fatalf("CourseHash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("same inputs produced %s and %s", h1.Hex(), h2.Hex())
	}
}

func TestCourseHashSeparatesOwnersAndCourses(t *testing.T) {
	ownerA := common.HexToAddress("0x1111111111111111111111111111111111111111")
	ownerB := common.HexToAddress("0x2222222222222222222222222222222222222222")

	byOwnerA, _ := CourseHash("1410474", ownerA)
	byOwnerB, _ := CourseHash("1410474", ownerB)
	if byOwnerA == byOwnerB {
		t.Error("different owners map to the same ledger slot")
	}

	otherCourse, _ := CourseHash("1552289", ownerA)
	if byOwnerA == otherCourse {
		t.Error("different courses map to the same ledger slot")
	}
}

func TestPackCourseID(t *testing.T) {
	tests := []struct {
		name     string
		courseID string
		wantErr  bool
	}{
		{name: "short_id", courseID: "1410474"},
		{name: "exactly_16_bytes", courseID: strings.Repeat("a", 16)},
		{name: "empty", courseID: "", wantErr: true},
		{name: "too_long", courseID: strings.Repeat("a", 17), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, err := PackCourseID(tt.courseID)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var appErr *apperror.AppError
				if !errors.As(err, &appErr) || appErr.Code != apperror.CodeInvalidCourseID {
					t.Errorf("err = %v, want CodeInvalidCourseID", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PackCourseID: %v", err)
			}
			if string(packed[:len(tt.courseID)]) != tt.courseID {
				t.Errorf("packed = %q, want prefix %q", packed, tt.courseID)
			}
			for _, b := range packed[len(tt.courseID):] {
				if b != 0 {
					t.Fatal("padding bytes must be zero")
				}
			}
		})
	}
}

func TestParseCourseHash(t *testing.T) {
	valid := "0x" + strings.Repeat("ab", 32)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: valid},
		{name: "missing_prefix", input: strings.Repeat("ab", 32), wantErr: true},
		{name: "too_short", input: "0xabcd", wantErr: true},
		{name: "too_long", input: valid + "ab", wantErr: true},
		{name: "not_hex", input: "0x" + strings.Repeat("zz", 32), wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := ParseCourseHash(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if apperror.CodeOf(err) != apperror.CodeInvalidHash {
					t.Errorf("err = %v, want CodeInvalidHash", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCourseHash: %v", err)
			}
			if hash.Hex() != valid {
				t.Errorf("hash = %s, want %s", hash.Hex(), valid)
			}
		})
	}
}

func TestPurchaseProofRoundTrip(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	orderHash, _ := CourseHash("1410474", owner)
	emailHash := EmailHash("buyer@example.com")

	proof := PurchaseProof(emailHash, orderHash)

	if !VerifyProof(proof, emailHash, orderHash) {
		t.Error("proof does not verify against its own inputs")
	}
	if VerifyProof(proof, EmailHash("other@example.com"), orderHash) {
		t.Error("proof verified for the wrong email")
	}
	if otherOrder, _ := CourseHash("1552289", owner); VerifyProof(proof, emailHash, otherOrder) {
		t.Error("proof verified for the wrong order")
	}
}
