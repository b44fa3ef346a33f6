// Package di contains dependency injection tokens for the marketplace context.
package di

import (
	"github.com/jinwei908/eth-market-course/business/marketplace/app"
	"github.com/jinwei908/eth-market-course/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Coordinator = di.NewToken[*app.Coordinator]("marketplace.Coordinator")
)

// Private dependency tokens - internal to marketplace module
var (
	LedgerWriter = di.NewToken[app.LedgerWriter]("marketplace:ledgerWriter")
	Revalidator  = di.NewToken[app.Revalidator]("marketplace:revalidator")
)

// Helper functions for type-safe access
func GetCoordinator(c di.ServiceRegistry) *app.Coordinator {
	return di.GetToken(c, Coordinator)
}

func GetLedgerWriter(c di.ServiceRegistry) app.LedgerWriter {
	return di.GetToken(c, LedgerWriter)
}

func GetRevalidator(c di.ServiceRegistry) app.Revalidator {
	return di.GetToken(c, Revalidator)
}
