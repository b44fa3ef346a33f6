package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jinwei908/eth-market-course/business/wallet/domain"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/logger"
	"github.com/jinwei908/eth-market-course/internal/swr"
)

// WalletService exposes the account and network caches for one
// ConnectionState. It is constructed once per state; a replaced state gets a
// fresh service.
type WalletService struct {
	conn          *ConnectionState
	adminSet      domain.AdminSet
	targetChainID uint64
	logger        logger.LoggerInterface

	account *swr.Resource[*domain.Account]
	network *swr.Resource[*domain.Network]
}

// NewWalletService creates the service bound to conn.
func NewWalletService(conn *ConnectionState, adminSet domain.AdminSet, targetChainID uint64, log logger.LoggerInterface) *WalletService {
	s := &WalletService{
		conn:          conn,
		adminSet:      adminSet,
		targetChainID: targetChainID,
		logger:        log,
	}

	s.account = swr.NewResource("wallet.account",
		func() (string, bool) {
			if !conn.Ready() {
				return "", false
			}
			return "account", true
		},
		s.fetchAccount,
	)

	s.network = swr.NewResource("wallet.network",
		func() (string, bool) {
			if !conn.Ready() {
				return "", false
			}
			return "network", true
		},
		s.fetchNetwork,
	)

	return s
}

func (s *WalletService) fetchAccount(ctx context.Context) (*domain.Account, error) {
	accounts, err := s.conn.Provider.Accounts(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeAccountsFetchFailed, apperror.WithCause(err))
	}
	if len(accounts) == 0 {
		return nil, apperror.New(apperror.CodeNoAccount)
	}
	return &domain.Account{
		Address: accounts[0],
		IsAdmin: s.adminSet.Contains(accounts[0]),
	}, nil
}

func (s *WalletService) fetchNetwork(ctx context.Context) (*domain.Network, error) {
	chainID, err := s.conn.Provider.ChainID(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainIDFetchFailed, apperror.WithCause(err))
	}
	network, ok := domain.ResolveNetwork(chainID, s.targetChainID)
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownNetwork,
			apperror.WithContext(fmt.Sprintf("chain id %d", chainID)))
	}
	return &network, nil
}

// Account returns the account cache entry, fetching on first use.
func (s *WalletService) Account(ctx context.Context) swr.Entry[*domain.Account] {
	return s.account.Get(ctx)
}

// PeekAccount returns the account entry without fetching. Dependent caches
// derive their keys from it.
func (s *WalletService) PeekAccount() swr.Entry[*domain.Account] {
	return s.account.Peek()
}

// Network returns the network cache entry, fetching on first use.
func (s *WalletService) Network(ctx context.Context) swr.Entry[*domain.Network] {
	return s.network.Get(ctx)
}

// RevalidateAccount refetches the active account.
func (s *WalletService) RevalidateAccount(ctx context.Context) swr.Entry[*domain.Account] {
	return s.account.Revalidate(ctx)
}

// ApplyAccountsChanged feeds a provider accountsChanged event into the
// account cache. An empty list means disconnected and stores nil, which is
// distinct from an uninitialized entry.
func (s *WalletService) ApplyAccountsChanged(ctx context.Context, accounts []common.Address) {
	if len(accounts) == 0 {
		s.logger.Info(ctx, "wallet disconnected")
		s.account.RevalidateWith(nil)
		return
	}
	primary := accounts[0]
	s.logger.Info(ctx, "active account changed", "account", primary.Hex())
	s.account.RevalidateWith(&domain.Account{
		Address: primary,
		IsAdmin: s.adminSet.Contains(primary),
	})
}

// Connect prompts the wallet to expose accounts (eth_requestAccounts).
func (s *WalletService) Connect(ctx context.Context) error {
	if !s.conn.Ready() {
		return apperror.New(apperror.CodeProviderUnavailable)
	}
	if _, err := s.conn.Provider.RequestAccounts(ctx); err != nil {
		return apperror.New(apperror.CodeAccountsFetchFailed, apperror.WithCause(err))
	}
	s.account.Revalidate(ctx)
	return nil
}

// WalletInfo is the composite connection view consumed for UI gating.
type WalletInfo struct {
	Account            swr.Entry[*domain.Account]
	Network            swr.Entry[*domain.Network]
	IsConnecting       bool
	HasConnectedWallet bool
	RequireInstall     bool
}

// Info derives the composite wallet view from the two underlying caches.
// Pure derivation: recomputed on every call, never cached independently.
func (s *WalletService) Info(ctx context.Context) WalletInfo {
	account := s.Account(ctx)
	network := s.Network(ctx)

	return WalletInfo{
		Account:            account,
		Network:            network,
		IsConnecting:       !account.HasInitialized && !network.HasInitialized,
		HasConnectedWallet: account.Data != nil && network.Data != nil && network.Data.IsSupported,
		RequireInstall:     s.conn.RequireInstall(),
	}
}
