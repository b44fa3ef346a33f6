// Package marketplace implements the marketplace bounded context for
// purchases and course administration.
package marketplace

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	coursesApp "github.com/jinwei908/eth-market-course/business/courses/app"
	coursesDI "github.com/jinwei908/eth-market-course/business/courses/di"
	"github.com/jinwei908/eth-market-course/business/marketplace/app"
	marketplaceDI "github.com/jinwei908/eth-market-course/business/marketplace/di"
	"github.com/jinwei908/eth-market-course/business/marketplace/infra/contract"
	walletDI "github.com/jinwei908/eth-market-course/business/wallet/di"
	"github.com/jinwei908/eth-market-course/internal/config"
	"github.com/jinwei908/eth-market-course/internal/di"
	"github.com/jinwei908/eth-market-course/internal/logger"
	"github.com/jinwei908/eth-market-course/internal/monolith"
)

// Module implements the marketplace bounded context.
type Module struct{}

// cacheRevalidator bridges settled transactions to the courses caches.
type cacheRevalidator struct {
	owned   *coursesApp.OwnershipService
	managed *coursesApp.ManagementService
}

func (r *cacheRevalidator) RevalidateOwned(ctx context.Context)   { r.owned.RevalidateOwned(ctx) }
func (r *cacheRevalidator) RevalidateManaged(ctx context.Context) { r.managed.RevalidateManaged(ctx) }
func (r *cacheRevalidator) ApplyRepurchase(hash common.Hash)      { r.owned.ApplyRepurchase(hash) }

// RegisterServices registers all marketplace services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register LedgerWriter (private - internal dependency)
	di.RegisterToken(c, marketplaceDI.LedgerWriter, func(sr di.ServiceRegistry) app.LedgerWriter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		writerCfg := contract.DefaultWriterConfig()
		if cfg.Ethereum.ReceiptInterval > 0 {
			writerCfg.ReceiptInterval = cfg.Ethereum.ReceiptInterval
		}
		if cfg.Ethereum.ReceiptTimeout > 0 {
			writerCfg.ReceiptTimeout = cfg.Ethereum.ReceiptTimeout
		}

		conn := walletDI.GetConnection(sr)
		writer, err := contract.NewWriter(conn, writerCfg, log)
		if err != nil {
			panic("failed to create ledger writer: " + err.Error())
		}
		return writer
	})

	// Register Revalidator (private - internal dependency)
	di.RegisterToken(c, marketplaceDI.Revalidator, func(sr di.ServiceRegistry) app.Revalidator {
		return &cacheRevalidator{
			owned:   coursesDI.GetOwnershipService(sr),
			managed: coursesDI.GetManagementService(sr),
		}
	})

	// Register Coordinator (public - exposed to other modules)
	di.RegisterToken(c, marketplaceDI.Coordinator, func(sr di.ServiceRegistry) *app.Coordinator {
		log := sr.Get("logger").(logger.LoggerInterface)

		wallet := walletDI.GetWalletService(sr)
		writer := marketplaceDI.GetLedgerWriter(sr)
		revalidator := marketplaceDI.GetRevalidator(sr)
		return app.NewCoordinator(wallet, writer, revalidator, log)
	})

	return nil
}

// Startup initializes the marketplace module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "marketplace module started")
	return nil
}
