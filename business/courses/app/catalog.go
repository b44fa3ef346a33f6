package app

import (
	"context"

	"github.com/jinwei908/eth-market-course/business/courses/domain"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/logger"
	"github.com/jinwei908/eth-market-course/internal/swr"
)

// CatalogService caches the course catalog. Content is static per deploy,
// so the cache key never changes and the first load serves everyone.
type CatalogService struct {
	source CatalogSource
	logger logger.LoggerInterface

	catalog *swr.Resource[*domain.Catalog]
}

// NewCatalogService creates the service around a catalog source.
func NewCatalogService(source CatalogSource, log logger.LoggerInterface) *CatalogService {
	s := &CatalogService{
		source: source,
		logger: log,
	}

	s.catalog = swr.NewResource("courses.catalog",
		func() (string, bool) { return "catalog", true },
		s.fetchCatalog,
	)

	return s
}

func (s *CatalogService) fetchCatalog(ctx context.Context) (*domain.Catalog, error) {
	catalog, err := s.source.Load(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeCatalogFetchFailed, apperror.WithCause(err))
	}
	s.logger.Debug(ctx, "catalog loaded", "courses", catalog.Len())
	return catalog, nil
}

// Catalog returns the catalog cache entry, loading on first use.
func (s *CatalogService) Catalog(ctx context.Context) swr.Entry[*domain.Catalog] {
	return s.catalog.Get(ctx)
}

// Course looks up a single catalog entry by id.
func (s *CatalogService) Course(ctx context.Context, id string) (domain.Course, error) {
	entry := s.catalog.Get(ctx)
	if entry.Data == nil {
		if entry.Err != nil {
			return domain.Course{}, entry.Err
		}
		return domain.Course{}, apperror.New(apperror.CodeCatalogFetchFailed)
	}
	course, ok := entry.Data.ByID(id)
	if !ok {
		return domain.Course{}, apperror.New(apperror.CodeCourseNotFound,
			apperror.WithContext("course id "+id))
	}
	return course, nil
}
