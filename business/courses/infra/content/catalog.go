// Package content loads the course catalog from bundled or remote content.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jinwei908/eth-market-course/business/courses/app"
	"github.com/jinwei908/eth-market-course/business/courses/domain"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/httpclient"
	"github.com/jinwei908/eth-market-course/internal/logger"
)

// Ensure both sources implement CatalogSource.
var (
	_ app.CatalogSource = (*FileSource)(nil)
	_ app.CatalogSource = (*HTTPSource)(nil)
)

// FileSource reads the catalog from a bundled JSON file, a plain array of
// course entries.
type FileSource struct {
	path   string
	logger logger.LoggerInterface
}

// NewFileSource creates a file-backed catalog source.
func NewFileSource(path string, log logger.LoggerInterface) *FileSource {
	return &FileSource{path: path, logger: log}
}

// Load reads and validates the catalog file.
func (s *FileSource) Load(ctx context.Context) (*domain.Catalog, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var courses []domain.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, apperror.New(apperror.CodeCatalogInvalid,
			apperror.WithCause(err),
			apperror.WithContext(s.path))
	}

	if err := validate(courses); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "catalog file loaded", "path", s.path, "courses", len(courses))
	return domain.NewCatalog(courses), nil
}

// HTTPSource fetches the catalog from a content endpoint.
type HTTPSource struct {
	client httpclient.Client
	url    string
	logger logger.LoggerInterface
}

// NewHTTPSource creates an HTTP-backed catalog source.
func NewHTTPSource(client httpclient.Client, url string, log logger.LoggerInterface) *HTTPSource {
	return &HTTPSource{client: client, url: url, logger: log}
}

// Load fetches and validates the remote catalog.
func (s *HTTPSource) Load(ctx context.Context) (*domain.Catalog, error) {
	var courses []domain.Course
	if err := s.client.GetJSON(ctx, s.url, &courses); err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	if err := validate(courses); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "catalog fetched", "url", s.url, "courses", len(courses))
	return domain.NewCatalog(courses), nil
}

// validate rejects catalogs that would poison every derived cache key.
func validate(courses []domain.Course) error {
	seen := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		if c.ID == "" {
			return apperror.New(apperror.CodeCatalogInvalid,
				apperror.WithContext(fmt.Sprintf("course %q has no id", c.Title)))
		}
		if _, dup := seen[c.ID]; dup {
			return apperror.New(apperror.CodeCatalogInvalid,
				apperror.WithContext("duplicate course id "+c.ID))
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
