// Package courses implements the courses bounded context for catalog and
// ownership state.
package courses

import (
	"context"

	"github.com/jinwei908/eth-market-course/business/courses/app"
	coursesDI "github.com/jinwei908/eth-market-course/business/courses/di"
	"github.com/jinwei908/eth-market-course/business/courses/infra/content"
	"github.com/jinwei908/eth-market-course/business/courses/infra/contract"
	walletDI "github.com/jinwei908/eth-market-course/business/wallet/di"
	"github.com/jinwei908/eth-market-course/internal/config"
	"github.com/jinwei908/eth-market-course/internal/di"
	"github.com/jinwei908/eth-market-course/internal/httpclient"
	"github.com/jinwei908/eth-market-course/internal/logger"
	"github.com/jinwei908/eth-market-course/internal/monolith"
)

// Module implements the courses bounded context.
type Module struct{}

// RegisterServices registers all courses services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register LedgerReader (private - internal dependency)
	di.RegisterToken(c, coursesDI.LedgerReader, func(sr di.ServiceRegistry) app.LedgerReader {
		log := sr.Get("logger").(logger.LoggerInterface)

		conn := walletDI.GetConnection(sr)
		reader, err := contract.NewReader(conn, log)
		if err != nil {
			panic("failed to create ledger reader: " + err.Error())
		}
		return reader
	})

	// Register CatalogSource (private - internal dependency)
	di.RegisterToken(c, coursesDI.CatalogSource, func(sr di.ServiceRegistry) app.CatalogSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Catalog.URL != "" {
			client, err := httpclient.NewInstrumentedClient(
				httpclient.WithProviderName("catalog"),
			)
			if err != nil {
				panic("failed to create catalog client: " + err.Error())
			}
			return content.NewHTTPSource(client, cfg.Catalog.URL, log)
		}
		return content.NewFileSource(cfg.Catalog.Path, log)
	})

	// Register CatalogService (public - exposed to other modules)
	di.RegisterToken(c, coursesDI.CatalogService, func(sr di.ServiceRegistry) *app.CatalogService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewCatalogService(coursesDI.GetCatalogSource(sr), log)
	})

	// Register OwnershipService (public - exposed to other modules)
	di.RegisterToken(c, coursesDI.OwnershipService, func(sr di.ServiceRegistry) *app.OwnershipService {
		log := sr.Get("logger").(logger.LoggerInterface)

		wallet := walletDI.GetWalletService(sr)
		reader := coursesDI.GetLedgerReader(sr)
		catalog := coursesDI.GetCatalogService(sr)
		return app.NewOwnershipService(wallet, reader, catalog, log)
	})

	// Register ManagementService (public - exposed to other modules)
	di.RegisterToken(c, coursesDI.ManagementService, func(sr di.ServiceRegistry) *app.ManagementService {
		log := sr.Get("logger").(logger.LoggerInterface)

		wallet := walletDI.GetWalletService(sr)
		reader := coursesDI.GetLedgerReader(sr)
		return app.NewManagementService(wallet, reader, log)
	})

	return nil
}

// Startup warms the catalog cache.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	catalog := coursesDI.GetCatalogService(mono.Services())
	if entry := catalog.Catalog(ctx); entry.Err != nil {
		log.Error(ctx, "catalog warmup failed", "error", entry.Err)
		return entry.Err
	}

	log.Info(ctx, "courses module started")
	return nil
}
