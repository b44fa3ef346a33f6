package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/jinwei908/eth-market-course/business/courses/domain"
	walletApp "github.com/jinwei908/eth-market-course/business/wallet/app"
	walletDomain "github.com/jinwei908/eth-market-course/business/wallet/domain"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/logger"
)

var (
	testAdmin = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testBuyer = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

var testCourses = []domain.Course{
	{ID: "1410474", Title: "SQL for Data Analysis"},
	{ID: "1552289", Title: "Solidity for Beginners"},
}

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

// fakeLedger is an in-memory ledger keyed like the contract.
type fakeLedger struct {
	records map[common.Hash]domain.Record
	index   []common.Hash

	countCalls int
	hashCalls  int
	byHash     int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[common.Hash]domain.Record)}
}

// addPurchase records a purchase the way the contract would.
func (l *fakeLedger) addPurchase(courseID string, owner common.Address, priceWei int64, state uint8) common.Hash {
	hash, err := domain.CourseHash(courseID, owner)
	if err != nil {
		panic(err)
	}
	l.records[hash] = domain.Record{
		ID:    big.NewInt(int64(len(l.index) + 1)),
		Price: big.NewInt(priceWei),
		Owner: owner,
		State: state,
	}
	l.index = append(l.index, hash)
	return hash
}

func (l *fakeLedger) GetCourseByHash(ctx context.Context, hash common.Hash) (domain.Record, error) {
	l.byHash++
	record, ok := l.records[hash]
	if !ok {
		// Unknown hashes come back zeroed, matching contract behavior.
		return domain.Record{ID: big.NewInt(0), Price: big.NewInt(0)}, nil
	}
	return record, nil
}

func (l *fakeLedger) GetCourseCount(ctx context.Context) (*big.Int, error) {
	l.countCalls++
	return big.NewInt(int64(len(l.index))), nil
}

func (l *fakeLedger) GetCourseHashAtIndex(ctx context.Context, index *big.Int) (common.Hash, error) {
	l.hashCalls++
	i := index.Int64()
	if i < 0 || i >= int64(len(l.index)) {
		return common.Hash{}, errors.New("index out of range")
	}
	return l.index[i], nil
}

// fakeCatalogSource serves a fixed course list.
type fakeCatalogSource struct {
	courses []domain.Course
	loads   int
}

func (s *fakeCatalogSource) Load(ctx context.Context) (*domain.Catalog, error) {
	s.loads++
	return domain.NewCatalog(s.courses), nil
}

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

func newTestCatalog() *CatalogService {
	return NewCatalogService(&fakeCatalogSource{courses: testCourses}, testLogger())
}

func TestOwnedCoursesFiltersToOwner(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.addPurchase("1410474", testBuyer, 1_000_000, 1)
	ledger.addPurchase("1410474", testAdmin, 1_000_000, 0) // someone else's purchase

	svc := NewOwnershipService(newTestWallet(testBuyer), ledger, newTestCatalog(), testLogger())

	entry := svc.OwnedCourses(ctx)
	if entry.Err != nil {
		t.Fatalf("OwnedCourses: %v", entry.Err)
	}
	if len(entry.Data) != 1 {
		t.Fatalf("owned = %d courses, want 1", len(entry.Data))
	}
	oc := entry.Data[0]
	if oc.ID != "1410474" || oc.Owner != testBuyer {
		t.Errorf("oc = %+v", oc)
	}
	if oc.State != domain.StateActivated {
		t.Errorf("State = %v, want activated", oc.State)
	}
}

func TestOwnedCoursesEmptyForNewBuyer(t *testing.T) {
	ctx := context.Background()
	svc := NewOwnershipService(newTestWallet(testBuyer), newFakeLedger(), newTestCatalog(), testLogger())

	entry := svc.OwnedCourses(ctx)
	if entry.Err != nil {
		t.Fatalf("OwnedCourses: %v", entry.Err)
	}
	if !entry.HasInitialized || !entry.IsEmpty {
		t.Errorf("entry = %+v, want initialized empty", entry)
	}
}

func TestOwnedCoursesPausedWithoutWallet(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	conn := &walletApp.ConnectionState{Phase: walletDomain.PhaseUnavailable}
	wallet := walletApp.NewWalletService(conn, walletDomain.AdminSet{}, 1337, testLogger())

	svc := NewOwnershipService(wallet, ledger, newTestCatalog(), testLogger())

	entry := svc.OwnedCourses(ctx)
	if entry.HasInitialized {
		t.Errorf("entry = %+v, want paused", entry)
	}
	if ledger.byHash != 0 {
		t.Errorf("ledger reads = %d, want 0 while paused", ledger.byHash)
	}
}

func TestLookupIndexesByCourseID(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.addPurchase("1410474", testBuyer, 1, 0)
	ledger.addPurchase("1552289", testBuyer, 1, 2)

	svc := NewOwnershipService(newTestWallet(testBuyer), ledger, newTestCatalog(), testLogger())

	lookup := svc.Lookup(ctx)
	if len(lookup) != 2 {
		t.Fatalf("lookup has %d entries, want 2", len(lookup))
	}
	if lookup["1552289"] == nil || lookup["1552289"].State != domain.StateDeactivated {
		t.Errorf("lookup[1552289] = %+v", lookup["1552289"])
	}
}

func TestOwnedCourseSingleLookup(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.addPurchase("1410474", testBuyer, 1, 0)

	svc := NewOwnershipService(newTestWallet(testBuyer), ledger, newTestCatalog(), testLogger())

	owned := svc.OwnedCourse(ctx, "1410474")
	if owned.Err != nil || owned.Data == nil {
		t.Fatalf("owned course entry = %+v", owned)
	}
	if owned.Data.Title != "SQL for Data Analysis" {
		t.Errorf("Title = %q, want catalog title merged in", owned.Data.Title)
	}

	unowned := svc.OwnedCourse(ctx, "1552289")
	if unowned.Err != nil {
		t.Fatalf("unowned entry err: %v", unowned.Err)
	}
	if unowned.Data != nil || !unowned.IsEmpty {
		t.Errorf("unowned entry = %+v, want initialized nil", unowned)
	}
}

func TestRevalidateOwnedPicksUpNewPurchase(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	svc := NewOwnershipService(newTestWallet(testBuyer), ledger, newTestCatalog(), testLogger())

	if entry := svc.OwnedCourses(ctx); !entry.IsEmpty {
		t.Fatalf("precondition: entry = %+v, want empty", entry)
	}

	ledger.addPurchase("1410474", testBuyer, 1_000_000, 0)
	svc.RevalidateOwned(ctx)

	entry := svc.OwnedCourses(ctx)
	if len(entry.Data) != 1 {
		t.Errorf("owned after revalidate = %d, want 1", len(entry.Data))
	}
}

func TestApplyRepurchaseFlipsState(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	hash := ledger.addPurchase("1410474", testBuyer, 0, 2) // deactivated

	svc := NewOwnershipService(newTestWallet(testBuyer), ledger, newTestCatalog(), testLogger())

	entry := svc.OwnedCourses(ctx)
	if entry.Data[0].State != domain.StateDeactivated {
		t.Fatalf("precondition: State = %v", entry.Data[0].State)
	}

	readsBefore := ledger.byHash
	svc.ApplyRepurchase(hash)

	entry = svc.OwnedCourses(ctx)
	if entry.Data[0].State != domain.StatePurchased {
		t.Errorf("State = %v, want purchased after optimistic flip", entry.Data[0].State)
	}
	if ledger.byHash != readsBefore {
		t.Errorf("ledger reads = %d, want %d (flip must not fetch)", ledger.byHash, readsBefore)
	}
}

func TestApplyRepurchaseLeavesEarlierSnapshotsIntact(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	hash := ledger.addPurchase("1410474", testBuyer, 0, 2) // deactivated

	svc := NewOwnershipService(newTestWallet(testBuyer), ledger, newTestCatalog(), testLogger())

	snapshot := svc.OwnedCourses(ctx)
	if snapshot.Data[0].State != domain.StateDeactivated {
		t.Fatalf("precondition: State = %v", snapshot.Data[0].State)
	}

	svc.ApplyRepurchase(hash)

	// A reader holding the earlier entry must not see the flip.
	if snapshot.Data[0].State != domain.StateDeactivated {
		t.Errorf("earlier snapshot State = %v, want deactivated", snapshot.Data[0].State)
	}
	if entry := svc.OwnedCourses(ctx); entry.Data[0].State != domain.StatePurchased {
		t.Errorf("current State = %v, want purchased", entry.Data[0].State)
	}
}

func TestOwnedCoursesKeyedPerAccount(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.addPurchase("1410474", testBuyer, 1, 0)

	wallet := newTestWallet(testBuyer)
	svc := NewOwnershipService(wallet, ledger, newTestCatalog(), testLogger())

	if entry := svc.OwnedCourses(ctx); len(entry.Data) != 1 {
		t.Fatalf("buyer owns %d, want 1", len(entry.Data))
	}

	// Switch to an account with no purchases.
	wallet.ApplyAccountsChanged(ctx, []common.Address{testAdmin})
	if entry := svc.OwnedCourses(ctx); len(entry.Data) != 0 {
		t.Errorf("admin owns %d, want 0", len(entry.Data))
	}

	// Switch back: the buyer's list must still be there.
	wallet.ApplyAccountsChanged(ctx, []common.Address{testBuyer})
	reads := ledger.byHash
	if entry := svc.OwnedCourses(ctx); len(entry.Data) != 1 {
		t.Errorf("buyer owns %d after switch back, want 1", len(entry.Data))
	}
	if ledger.byHash != reads {
		t.Errorf("ledger reads = %d, want %d (retained slot must serve)", ledger.byHash, reads)
	}
}

func TestCatalogCourseNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalog()

	if _, err := svc.Course(ctx, "missing"); apperror.CodeOf(err) != apperror.CodeCourseNotFound {
		t.Errorf("err = %v, want CodeCourseNotFound", err)
	}
}

func TestCatalogLoadsOnce(t *testing.T) {
	ctx := context.Background()
	source := &fakeCatalogSource{courses: testCourses}
	svc := NewCatalogService(source, testLogger())

	svc.Catalog(ctx)
	svc.Catalog(ctx)
	if _, err := svc.Course(ctx, "1410474"); err != nil {
		t.Fatalf("Course: %v", err)
	}
	if source.loads != 1 {
		t.Errorf("loads = %d, want 1", source.loads)
	}
}
