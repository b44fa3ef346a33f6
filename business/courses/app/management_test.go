package app

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/jinwei908/eth-market-course/business/courses/domain"
	"github.com/jinwei908/eth-market-course/internal/apperror"
)

func TestManagedCoursesPausedForNonAdmin(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.addPurchase("1410474", testBuyer, 1, 0)

	svc := NewManagementService(newTestWallet(testBuyer), ledger, testLogger())

	entry := svc.ManagedCourses(ctx)
	if entry.HasInitialized {
		t.Errorf("entry = %+v, want paused for non-admin", entry)
	}
	if ledger.countCalls != 0 || ledger.hashCalls != 0 {
		t.Errorf("ledger walked %d/%d times for a non-admin caller, want 0",
			ledger.countCalls, ledger.hashCalls)
	}
}

func TestManagedCoursesWalksLedgerNewestFirst(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	first := ledger.addPurchase("1410474", testBuyer, 1, 0)
	second := ledger.addPurchase("1552289", testBuyer, 1, 1)

	svc := NewManagementService(newTestWallet(testAdmin), ledger, testLogger())

	entry := svc.ManagedCourses(ctx)
	if entry.Err != nil {
		t.Fatalf("ManagedCourses: %v", entry.Err)
	}
	if len(entry.Data) != 2 {
		t.Fatalf("managed = %d records, want 2", len(entry.Data))
	}
	if entry.Data[0].Hash != second || entry.Data[1].Hash != first {
		t.Errorf("order = [%s, %s], want newest first",
			entry.Data[0].Hash.Hex(), entry.Data[1].Hash.Hex())
	}
}

func TestManagedCoursesEmptyLedger(t *testing.T) {
	ctx := context.Background()
	svc := NewManagementService(newTestWallet(testAdmin), newFakeLedger(), testLogger())

	entry := svc.ManagedCourses(ctx)
	if entry.Err != nil {
		t.Fatalf("ManagedCourses: %v", entry.Err)
	}
	if !entry.IsEmpty {
		t.Errorf("entry = %+v, want empty", entry)
	}
}

func TestSearchCourse(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	hash := ledger.addPurchase("1410474", testBuyer, 1_000_000, 0)

	svc := NewManagementService(newTestWallet(testAdmin), ledger, testLogger())

	mc, err := svc.SearchCourse(ctx, hash.Hex())
	if err != nil {
		t.Fatalf("SearchCourse: %v", err)
	}
	if mc.Hash != hash || mc.Owner != testBuyer {
		t.Errorf("mc = %+v", mc)
	}
}

func TestSearchCourseValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewManagementService(newTestWallet(testAdmin), newFakeLedger(), testLogger())

	tests := []struct {
		name     string
		hash     string
		wantCode apperror.Code
	}{
		{name: "malformed", hash: "0x123", wantCode: apperror.CodeInvalidHash},
		{name: "not_hex", hash: "hello", wantCode: apperror.CodeInvalidHash},
		{name: "unknown_hash", hash: "0x" + strings.Repeat("cd", 32), wantCode: apperror.CodeCourseNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SearchCourse(ctx, tt.hash); apperror.CodeOf(err) != tt.wantCode {
				t.Errorf("err = %v, want %v", err, tt.wantCode)
			}
		})
	}
}

func TestVerifyOwnership(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	hash, _ := domain.CourseHash("1410474", testBuyer)

	// Store a record with a real purchase proof.
	proof := domain.PurchaseProof(domain.EmailHash("buyer@example.com"), hash)
	record := domain.Record{
		ID:    big.NewInt(1),
		Price: big.NewInt(1),
		Proof: [32]byte(proof),
		Owner: testBuyer,
		State: 0,
	}
	ledger.records[hash] = record
	ledger.index = append(ledger.index, hash)

	svc := NewManagementService(newTestWallet(testAdmin), ledger, testLogger())

	mc, err := svc.SearchCourse(ctx, hash.Hex())
	if err != nil {
		t.Fatalf("SearchCourse: %v", err)
	}

	if !svc.VerifyOwnership(mc, "buyer@example.com") {
		t.Error("correct email did not verify")
	}
	if svc.VerifyOwnership(mc, "impostor@example.com") {
		t.Error("wrong email verified")
	}
}
