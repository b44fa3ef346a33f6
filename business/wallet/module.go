// Package wallet implements the wallet bounded context for provider
// detection, account and network state.
package wallet

import (
	"context"

	"github.com/jinwei908/eth-market-course/business/wallet/app"
	walletDI "github.com/jinwei908/eth-market-course/business/wallet/di"
	"github.com/jinwei908/eth-market-course/business/wallet/domain"
	"github.com/jinwei908/eth-market-course/business/wallet/infra/ethereum"
	"github.com/jinwei908/eth-market-course/internal/config"
	"github.com/jinwei908/eth-market-course/internal/di"
	"github.com/jinwei908/eth-market-course/internal/logger"
	"github.com/jinwei908/eth-market-course/internal/monolith"
)

// Module implements the wallet bounded context.
type Module struct {
	// Reset is invoked when the connected chain changes. The process owner
	// decides how to restart; nil means chain switches are only logged.
	Reset app.HardReset
}

// RegisterServices registers all wallet services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Resolver (private - internal dependency)
	di.RegisterToken(c, walletDI.Resolver, func(sr di.ServiceRegistry) *app.Resolver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		providerCfg := ethereum.DefaultProviderConfig(cfg.Ethereum.RPCURL)
		if cfg.Ethereum.PollInterval > 0 {
			providerCfg.PollInterval = cfg.Ethereum.PollInterval
		}
		if cfg.Ethereum.PollRatePerMin > 0 {
			providerCfg.PollRatePerMin = cfg.Ethereum.PollRatePerMin
		}

		detect := ethereum.Detector(providerCfg, log)
		return app.NewResolver(detect, cfg.Marketplace.ContractAddressHex(), log)
	})

	// Register Connection (public - exposed to other modules)
	di.RegisterToken(c, walletDI.Connection, func(sr di.ServiceRegistry) *app.ConnectionState {
		return walletDI.GetResolver(sr).Resolve(context.Background())
	})

	// Register WalletService (public - exposed to other modules)
	di.RegisterToken(c, walletDI.WalletService, func(sr di.ServiceRegistry) *app.WalletService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		adminSet, err := domain.NewAdminSet(cfg.Marketplace.AdminHashes)
		if err != nil {
			panic("invalid admin hash set: " + err.Error())
		}

		conn := walletDI.GetConnection(sr)
		return app.NewWalletService(conn, adminSet, cfg.Marketplace.TargetChainID, log)
	})

	// Register EventBridge (private - internal dependency)
	di.RegisterToken(c, walletDI.EventBridge, func(sr di.ServiceRegistry) *app.EventBridge {
		log := sr.Get("logger").(logger.LoggerInterface)

		conn := walletDI.GetConnection(sr)
		wallet := walletDI.GetWalletService(sr)

		reset := m.Reset
		if reset == nil {
			reset = func(reason string) {
				log.Warn(context.Background(), "hard reset requested but no handler installed", "reason", reason)
			}
		}
		return app.NewEventBridge(conn.Provider, wallet, reset, log)
	})

	return nil
}

// Startup resolves the wallet connection and wires provider events.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	state := walletDI.GetResolver(mono.Services()).Resolve(ctx)
	if !state.Ready() {
		log.Warn(ctx, "wallet module started without a provider")
		return nil
	}

	bridge := walletDI.GetEventBridge(mono.Services())
	if err := bridge.Start(ctx); err != nil {
		log.Error(ctx, "failed to start wallet event bridge", "error", err)
		return err
	}

	log.Info(ctx, "wallet module started")
	return nil
}
