// Package di contains dependency injection tokens for the courses context.
package di

import (
	"github.com/jinwei908/eth-market-course/business/courses/app"
	"github.com/jinwei908/eth-market-course/internal/di"
)

// Public service tokens - exposed to other modules
var (
	CatalogService    = di.NewToken[*app.CatalogService]("courses.CatalogService")
	OwnershipService  = di.NewToken[*app.OwnershipService]("courses.OwnershipService")
	ManagementService = di.NewToken[*app.ManagementService]("courses.ManagementService")
)

// Private dependency tokens - internal to courses module
var (
	LedgerReader  = di.NewToken[app.LedgerReader]("courses:ledgerReader")
	CatalogSource = di.NewToken[app.CatalogSource]("courses:catalogSource")
)

// Helper functions for type-safe access
func GetCatalogService(c di.ServiceRegistry) *app.CatalogService {
	return di.GetToken(c, CatalogService)
}

func GetOwnershipService(c di.ServiceRegistry) *app.OwnershipService {
	return di.GetToken(c, OwnershipService)
}

func GetManagementService(c di.ServiceRegistry) *app.ManagementService {
	return di.GetToken(c, ManagementService)
}

func GetLedgerReader(c di.ServiceRegistry) app.LedgerReader {
	return di.GetToken(c, LedgerReader)
}

func GetCatalogSource(c di.ServiceRegistry) app.CatalogSource {
	return di.GetToken(c, CatalogSource)
}
