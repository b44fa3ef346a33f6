package app

import (
	"context"
	"math/big"

	"github.com/jinwei908/eth-market-course/business/courses/domain"
	walletApp "github.com/jinwei908/eth-market-course/business/wallet/app"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/logger"
	"github.com/jinwei908/eth-market-course/internal/swr"
)

// ManagementService exposes the full ledger to administrators. Its cache key
// only binds for an admin account, so a non-admin caller never triggers a
// ledger walk in the first place.
type ManagementService struct {
	wallet *walletApp.WalletService
	reader LedgerReader
	logger logger.LoggerInterface

	managed *swr.Resource[[]*domain.ManagedCourse]
}

// NewManagementService creates the service.
func NewManagementService(wallet *walletApp.WalletService, reader LedgerReader, log logger.LoggerInterface) *ManagementService {
	s := &ManagementService{
		wallet: wallet,
		reader: reader,
		logger: log,
	}

	s.managed = swr.NewResource("courses.managed",
		func() (string, bool) {
			account := wallet.PeekAccount()
			if account.Data == nil || !account.Data.IsAdmin {
				return "", false
			}
			return "managedCourses/" + account.Data.Address.Hex(), true
		},
		s.fetchManaged,
	)

	return s
}

// fetchManaged walks the ledger index newest first, so recent purchases
// surface at the top of the management view.
func (s *ManagementService) fetchManaged(ctx context.Context) ([]*domain.ManagedCourse, error) {
	count, err := s.reader.GetCourseCount(ctx)
	if err != nil {
		return nil, err
	}

	var managed []*domain.ManagedCourse
	one := big.NewInt(1)
	for i := new(big.Int).Sub(count, one); i.Sign() >= 0; i.Sub(i, one) {
		hash, err := s.reader.GetCourseHashAtIndex(ctx, i)
		if err != nil {
			return nil, err
		}
		record, err := s.reader.GetCourseByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		mc, err := domain.NormalizeManaged(hash, record)
		if err != nil {
			return nil, err
		}
		if mc != nil {
			managed = append(managed, mc)
		}
	}
	return managed, nil
}

// ManagedCourses returns the full ledger view. Paused for non-admins.
func (s *ManagementService) ManagedCourses(ctx context.Context) swr.Entry[[]*domain.ManagedCourse] {
	s.wallet.Account(ctx)
	return s.managed.Get(ctx)
}

// RevalidateManaged refetches the ledger view after a settled transaction.
func (s *ManagementService) RevalidateManaged(ctx context.Context) {
	s.managed.Revalidate(ctx)
}

// SearchCourse looks up one ledger record by its hash string. The lookup
// itself needs no admin gate, a hash only resolves for whoever knows it.
func (s *ManagementService) SearchCourse(ctx context.Context, hashStr string) (*domain.ManagedCourse, error) {
	hash, err := domain.ParseCourseHash(hashStr)
	if err != nil {
		return nil, err
	}

	record, err := s.reader.GetCourseByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	mc, err := domain.NormalizeManaged(hash, record)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, apperror.New(apperror.CodeCourseNotFound,
			apperror.WithContext("hash "+hashStr))
	}
	return mc, nil
}

// VerifyOwnership recomputes the purchase proof from a claimed buyer email
// and checks it against the stored record.
func (s *ManagementService) VerifyOwnership(course *domain.ManagedCourse, email string) bool {
	return domain.VerifyProof(course.Proof, domain.EmailHash(email), course.Hash)
}
