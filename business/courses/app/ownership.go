package app

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jinwei908/eth-market-course/business/courses/domain"
	walletApp "github.com/jinwei908/eth-market-course/business/wallet/app"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/logger"
	"github.com/jinwei908/eth-market-course/internal/swr"
)

// OwnershipService caches the caller's purchased courses. Every cache key
// embeds the active account address, so an account switch naturally lands on
// a fresh slot while the old one stays warm for a switch back.
type OwnershipService struct {
	wallet  *walletApp.WalletService
	reader  LedgerReader
	catalog *CatalogService
	logger  logger.LoggerInterface

	owned *swr.Resource[[]*domain.OwnedCourse]

	// One resource per catalog course, created on first lookup.
	mu        sync.Mutex
	perCourse map[string]*swr.Resource[*domain.OwnedCourse]
}

// NewOwnershipService creates the service.
func NewOwnershipService(wallet *walletApp.WalletService, reader LedgerReader, catalog *CatalogService, log logger.LoggerInterface) *OwnershipService {
	s := &OwnershipService{
		wallet:    wallet,
		reader:    reader,
		catalog:   catalog,
		logger:    log,
		perCourse: make(map[string]*swr.Resource[*domain.OwnedCourse]),
	}

	s.owned = swr.NewResource("courses.owned",
		func() (string, bool) {
			account := wallet.PeekAccount()
			if account.Data == nil {
				return "", false
			}
			return "ownedCourses/" + account.Data.Address.Hex(), true
		},
		s.fetchOwned,
	)

	return s
}

func (s *OwnershipService) activeAddress() (common.Address, bool) {
	account := s.wallet.PeekAccount()
	if account.Data == nil {
		return common.Address{}, false
	}
	return account.Data.Address, true
}

func (s *OwnershipService) fetchOwned(ctx context.Context) ([]*domain.OwnedCourse, error) {
	owner, ok := s.activeAddress()
	if !ok {
		return nil, apperror.New(apperror.CodeNoAccount)
	}

	catalog := s.catalog.Catalog(ctx)
	if catalog.Data == nil {
		if catalog.Err != nil {
			return nil, catalog.Err
		}
		return nil, apperror.New(apperror.CodeCatalogFetchFailed)
	}

	var owned []*domain.OwnedCourse
	for _, course := range catalog.Data.All() {
		hash, err := domain.CourseHash(course.ID, owner)
		if err != nil {
			return nil, err
		}
		record, err := s.reader.GetCourseByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		oc, err := domain.Normalize(course, hash, record)
		if err != nil {
			return nil, err
		}
		if oc != nil {
			owned = append(owned, oc)
		}
	}
	return owned, nil
}

// OwnedCourses returns the caller's purchase list, fetching on first use.
// The wallet account cache is touched first so the dependent key can bind.
func (s *OwnershipService) OwnedCourses(ctx context.Context) swr.Entry[[]*domain.OwnedCourse] {
	s.wallet.Account(ctx)
	return s.owned.Get(ctx)
}

// Lookup derives a course-id index over the owned list. Derived on every
// call from the current entry, never cached separately.
func (s *OwnershipService) Lookup(ctx context.Context) map[string]*domain.OwnedCourse {
	entry := s.OwnedCourses(ctx)
	lookup := make(map[string]*domain.OwnedCourse, len(entry.Data))
	for _, oc := range entry.Data {
		lookup[oc.ID] = oc
	}
	return lookup
}

// OwnedCourse resolves the ownership record for one catalog course.
func (s *OwnershipService) OwnedCourse(ctx context.Context, courseID string) swr.Entry[*domain.OwnedCourse] {
	s.wallet.Account(ctx)
	return s.courseResource(courseID).Get(ctx)
}

func (s *OwnershipService) courseResource(courseID string) *swr.Resource[*domain.OwnedCourse] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.perCourse[courseID]; ok {
		return r
	}

	r := swr.NewResource("courses.ownedCourse",
		func() (string, bool) {
			account := s.wallet.PeekAccount()
			if account.Data == nil {
				return "", false
			}
			return "ownedCourse/" + courseID + "/" + account.Data.Address.Hex(), true
		},
		func(ctx context.Context) (*domain.OwnedCourse, error) {
			return s.fetchOwnedCourse(ctx, courseID)
		},
	)
	s.perCourse[courseID] = r
	return r
}

func (s *OwnershipService) fetchOwnedCourse(ctx context.Context, courseID string) (*domain.OwnedCourse, error) {
	owner, ok := s.activeAddress()
	if !ok {
		return nil, apperror.New(apperror.CodeNoAccount)
	}

	course, err := s.catalog.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}

	hash, err := domain.CourseHash(courseID, owner)
	if err != nil {
		return nil, err
	}
	record, err := s.reader.GetCourseByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return domain.Normalize(course, hash, record)
}

// RevalidateOwned refetches the purchase list after a settled transaction.
func (s *OwnershipService) RevalidateOwned(ctx context.Context) {
	s.owned.Revalidate(ctx)

	s.mu.Lock()
	resources := make([]*swr.Resource[*domain.OwnedCourse], 0, len(s.perCourse))
	for _, r := range s.perCourse {
		resources = append(resources, r)
	}
	s.mu.Unlock()

	for _, r := range resources {
		r.Revalidate(ctx)
	}
}

// ApplyRepurchase flips a deactivated course back to purchased in the cached
// list without waiting for a refetch. No effect when the list is paused or
// not yet loaded.
func (s *OwnershipService) ApplyRepurchase(hash common.Hash) {
	s.owned.RevalidateFunc(func(list []*domain.OwnedCourse) []*domain.OwnedCourse {
		next := make([]*domain.OwnedCourse, len(list))
		for i, oc := range list {
			if oc.Hash == hash {
				flipped := *oc
				flipped.State = domain.StatePurchased
				next[i] = &flipped
				continue
			}
			next[i] = oc
		}
		return next
	})
}
