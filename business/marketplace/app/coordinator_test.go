package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	coursesDomain "github.com/jinwei908/eth-market-course/business/courses/domain"
	walletApp "github.com/jinwei908/eth-market-course/business/wallet/app"
	walletDomain "github.com/jinwei908/eth-market-course/business/wallet/domain"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/asset"
	"github.com/jinwei908/eth-market-course/internal/logger"
)

var (
	testAdmin = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testBuyer = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// fakeWalletProvider satisfies the wallet provider port with static answers.
type fakeWalletProvider struct {
	accounts []common.Address
}

func (p *fakeWalletProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return p.accounts, nil
}

func (p *fakeWalletProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return p.accounts, nil
}

func (p *fakeWalletProvider) ChainID(ctx context.Context) (uint64, error) { return 1337, nil }

func (p *fakeWalletProvider) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeWalletProvider) SendTransaction(ctx context.Context, msg walletApp.TxMessage) (common.Hash, error) {
	return common.Hash{}, errors.New("not implemented")
}

func (p *fakeWalletProvider) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeWalletProvider) Subscribe(kind walletDomain.EventKind, h walletApp.Handler) (walletApp.Unsubscribe, error) {
	return func() {}, nil
}

func (p *fakeWalletProvider) Close() {}

// purchaseCall records the arguments of one writer invocation.
type purchaseCall struct {
	from     common.Address
	courseID [16]byte
	proof    common.Hash
	hash     common.Hash
	value    *big.Int
}

// fakeWriter records calls and returns a canned settlement or error.
type fakeWriter struct {
	err   error
	calls map[string][]purchaseCall
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{calls: make(map[string][]purchaseCall)}
}

func (w *fakeWriter) record(method string, call purchaseCall) (Settlement, error) {
	w.calls[method] = append(w.calls[method], call)
	if w.err != nil {
		return Settlement{}, w.err
	}
	return Settlement{TxHash: common.HexToHash("0xfeed"), GasUsed: 21000}, nil
}

func (w *fakeWriter) PurchaseCourse(ctx context.Context, from common.Address, courseID [16]byte, proof common.Hash, value *big.Int) (Settlement, error) {
	return w.record("purchaseCourse", purchaseCall{from: from, courseID: courseID, proof: proof, value: value})
}

func (w *fakeWriter) RepurchaseCourse(ctx context.Context, from common.Address, hash common.Hash, value *big.Int) (Settlement, error) {
	return w.record("repurchaseCourse", purchaseCall{from: from, hash: hash, value: value})
}

func (w *fakeWriter) ActivateCourse(ctx context.Context, from common.Address, hash common.Hash) (Settlement, error) {
	return w.record("activateCourse", purchaseCall{from: from, hash: hash})
}

func (w *fakeWriter) DeactivateCourse(ctx context.Context, from common.Address, hash common.Hash) (Settlement, error) {
	return w.record("deactivateCourse", purchaseCall{from: from, hash: hash})
}

func (w *fakeWriter) Withdraw(ctx context.Context, from common.Address, amount *big.Int) (Settlement, error) {
	return w.record("withdraw", purchaseCall{from: from, value: amount})
}

func (w *fakeWriter) EmergencyWithdraw(ctx context.Context, from common.Address) (Settlement, error) {
	return w.record("emergencyWithdraw", purchaseCall{from: from})
}

// fakeRevalidator counts invalidation calls.
type fakeRevalidator struct {
	ownedCalls   int
	managedCalls int
	repurchases  []common.Hash
}

func (r *fakeRevalidator) RevalidateOwned(ctx context.Context)   { r.ownedCalls++ }
func (r *fakeRevalidator) RevalidateManaged(ctx context.Context) { r.managedCalls++ }
func (r *fakeRevalidator) ApplyRepurchase(hash common.Hash)      { r.repurchases = append(r.repurchases, hash) }

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newTestWallet(account common.Address) *walletApp.WalletService {
	conn := &walletApp.ConnectionState{
		Phase:    walletDomain.PhaseReady,
		Provider: &fakeWalletProvider{accounts: []common.Address{account}},
		Contract: common.HexToAddress("0x9999999999999999999999999999999999999999"),
	}
	return walletApp.NewWalletService(conn, walletDomain.AdminSetOf(testAdmin), 1337, testLogger())
}

func price(ether string) asset.Amount {
	a, err := asset.FromEther(decimal.RequireFromString(ether))
	if err != nil {
		panic(err)
	}
	return a
}

func TestPurchaseBuildsProofAndSettles(t *testing.T) {
	ctx := context.Background()
	writer := newFakeWriter()
	reval := &fakeRevalidator{}
	coord := NewCoordinator(newTestWallet(testBuyer), writer, reval, testLogger())

	settlement, err := coord.Purchase(ctx, "1410474", "buyer@example.com", price("1.5"))
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if settlement.TxHash == (common.Hash{}) {
		t.Error("settlement has no tx hash")
	}

	calls := writer.calls["purchaseCourse"]
	if len(calls) != 1 {
		t.Fatalf("purchaseCourse calls = %d, want 1", len(calls))
	}
	call := calls[0]

	if call.from != testBuyer {
		t.Errorf("from = %s, want buyer", call.from.Hex())
	}
	if call.value.String() != "1500000000000000000" {
		t.Errorf("value = %s wei, want 1.5 ether", call.value)
	}

	wantID, _ := coursesDomain.PackCourseID("1410474")
	if call.courseID != wantID {
		t.Errorf("courseID = %x, want %x", call.courseID, wantID)
	}

	orderHash, _ := coursesDomain.CourseHash("1410474", testBuyer)
	if !coursesDomain.VerifyProof(call.proof, coursesDomain.EmailHash("buyer@example.com"), orderHash) {
		t.Error("submitted proof does not verify against email and order hash")
	}

	if reval.ownedCalls != 1 {
		t.Errorf("owned revalidations = %d, want 1", reval.ownedCalls)
	}
}

func TestPurchaseRevalidatesOnFailure(t *testing.T) {
	ctx := context.Background()
	writer := newFakeWriter()
	writer.err = apperror.New(apperror.CodeTransactionRevert)
	reval := &fakeRevalidator{}
	coord := NewCoordinator(newTestWallet(testBuyer), writer, reval, testLogger())

	if _, err := coord.Purchase(ctx, "1410474", "buyer@example.com", price("1")); err == nil {
		t.Fatal("expected error")
	}
	if reval.ownedCalls != 1 {
		t.Errorf("owned revalidations = %d, want 1 even on failure", reval.ownedCalls)
	}
}

func TestPurchaseRejectsOversizeCourseID(t *testing.T) {
	ctx := context.Background()
	writer := newFakeWriter()
	coord := NewCoordinator(newTestWallet(testBuyer), writer, &fakeRevalidator{}, testLogger())

	_, err := coord.Purchase(ctx, "this-course-id-is-way-too-long", "a@b.c", price("1"))
	if apperror.CodeOf(err) != apperror.CodeInvalidCourseID {
		t.Errorf("err = %v, want CodeInvalidCourseID", err)
	}
	if len(writer.calls) != 0 {
		t.Error("writer called despite invalid course id")
	}
}

func TestRepurchaseFlipsOptimistically(t *testing.T) {
	ctx := context.Background()
	writer := newFakeWriter()
	reval := &fakeRevalidator{}
	coord := NewCoordinator(newTestWallet(testBuyer), writer, reval, testLogger())

	hash, _ := coursesDomain.CourseHash("1410474", testBuyer)
	if _, err := coord.Repurchase(ctx, hash, price("1")); err != nil {
		t.Fatalf("Repurchase: %v", err)
	}

	if len(reval.repurchases) != 1 || reval.repurchases[0] != hash {
		t.Errorf("repurchase flips = %v, want [%s]", reval.repurchases, hash.Hex())
	}
	if reval.ownedCalls != 1 {
		t.Errorf("owned revalidations = %d, want 1", reval.ownedCalls)
	}
}

func TestRepurchaseSkipsFlipOnFailure(t *testing.T) {
	ctx := context.Background()
	writer := newFakeWriter()
	writer.err = apperror.New(apperror.CodeTransactionRevert)
	reval := &fakeRevalidator{}
	coord := NewCoordinator(newTestWallet(testBuyer), writer, reval, testLogger())

	hash, _ := coursesDomain.CourseHash("1410474", testBuyer)
	if _, err := coord.Repurchase(ctx, hash, price("1")); err == nil {
		t.Fatal("expected error")
	}

	if len(reval.repurchases) != 0 {
		t.Error("optimistic flip applied for a failed repurchase")
	}
	if reval.ownedCalls != 1 {
		t.Errorf("owned revalidations = %d, want 1 even on failure", reval.ownedCalls)
	}
}

func TestActivateRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	writer := newFakeWriter()
	coord := NewCoordinator(newTestWallet(testBuyer), writer, &fakeRevalidator{}, testLogger())

	hash, _ := coursesDomain.CourseHash("1410474", testBuyer)
	if _, err := coord.Activate(ctx, hash); apperror.CodeOf(err) != apperror.CodeAdminOnly {
		t.Errorf("err = %v, want CodeAdminOnly", err)
	}
	if len(writer.calls) != 0 {
		t.Error("writer called for a non-admin activation")
	}
}

func TestActivateAndDeactivateRevalidateManaged(t *testing.T) {
	ctx := context.Background()
	writer := newFakeWriter()
	reval := &fakeRevalidator{}
	coord := NewCoordinator(newTestWallet(testAdmin), writer, reval, testLogger())

	hash, _ := coursesDomain.CourseHash("1410474", testBuyer)

	if _, err := coord.Activate(ctx, hash); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if _, err := coord.Deactivate(ctx, hash); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if reval.managedCalls != 2 {
		t.Errorf("managed revalidations = %d, want 2", reval.managedCalls)
	}
	if reval.ownedCalls != 0 {
		t.Errorf("owned revalidations = %d, want 0", reval.ownedCalls)
	}
}

func TestWithdrawDoesNotRevalidate(t *testing.T) {
	ctx := context.Background()
	writer := newFakeWriter()
	reval := &fakeRevalidator{}
	coord := NewCoordinator(newTestWallet(testAdmin), writer, reval, testLogger())

	if _, err := coord.Withdraw(ctx, price("0.5")); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if _, err := coord.EmergencyWithdraw(ctx); err != nil {
		t.Fatalf("EmergencyWithdraw: %v", err)
	}

	if reval.ownedCalls != 0 || reval.managedCalls != 0 {
		t.Errorf("revalidations = %d/%d, want none for withdrawals",
			reval.ownedCalls, reval.managedCalls)
	}

	if got := writer.calls["withdraw"][0].value.String(); got != "500000000000000000" {
		t.Errorf("withdraw amount = %s wei, want 0.5 ether", got)
	}
}

func TestNoAccountBlocksAllOperations(t *testing.T) {
	ctx := context.Background()
	conn := &walletApp.ConnectionState{
		Phase:    walletDomain.PhaseReady,
		Provider: &fakeWalletProvider{accounts: nil},
		Contract: common.HexToAddress("0x9999999999999999999999999999999999999999"),
	}
	wallet := walletApp.NewWalletService(conn, walletDomain.AdminSet{}, 1337, testLogger())
	writer := newFakeWriter()
	coord := NewCoordinator(wallet, writer, &fakeRevalidator{}, testLogger())

	if _, err := coord.Purchase(ctx, "1410474", "a@b.c", price("1")); apperror.CodeOf(err) != apperror.CodeNoAccount {
		t.Errorf("err = %v, want CodeNoAccount", err)
	}
	if len(writer.calls) != 0 {
		t.Error("writer called without an account")
	}
}
