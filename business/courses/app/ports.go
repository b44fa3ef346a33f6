// Package app contains the application services for the courses context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jinwei908/eth-market-course/business/courses/domain"
)

// LedgerReader reads ownership records from the marketplace contract.
type LedgerReader interface {
	// GetCourseByHash returns the raw record for a course hash. Hashes the
	// ledger has never seen come back zeroed, not as an error.
	GetCourseByHash(ctx context.Context, hash common.Hash) (domain.Record, error)

	// GetCourseCount returns the total number of purchase records.
	GetCourseCount(ctx context.Context) (*big.Int, error)

	// GetCourseHashAtIndex returns the hash stored at a ledger index.
	GetCourseHashAtIndex(ctx context.Context, index *big.Int) (common.Hash, error)
}

// CatalogSource loads the course catalog content.
type CatalogSource interface {
	Load(ctx context.Context) (*domain.Catalog, error)
}
