// Package di contains dependency injection tokens for the wallet context.
package di

import (
	"github.com/jinwei908/eth-market-course/business/wallet/app"
	"github.com/jinwei908/eth-market-course/internal/di"
)

// Public service tokens - exposed to other modules
var (
	WalletService = di.NewToken[*app.WalletService]("wallet.WalletService")
	Connection    = di.NewToken[*app.ConnectionState]("wallet.Connection")
)

// Private dependency tokens - internal to wallet module
var (
	Resolver    = di.NewToken[*app.Resolver]("wallet:resolver")
	EventBridge = di.NewToken[*app.EventBridge]("wallet:eventBridge")
)

// Helper functions for type-safe access
func GetWalletService(c di.ServiceRegistry) *app.WalletService {
	return di.GetToken(c, WalletService)
}

func GetConnection(c di.ServiceRegistry) *app.ConnectionState {
	return di.GetToken(c, Connection)
}

func GetResolver(c di.ServiceRegistry) *app.Resolver {
	return di.GetToken(c, Resolver)
}

func GetEventBridge(c di.ServiceRegistry) *app.EventBridge {
	return di.GetToken(c, EventBridge)
}
