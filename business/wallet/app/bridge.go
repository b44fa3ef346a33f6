package app

import (
	"context"
	"sync"

	"github.com/jinwei908/eth-market-course/business/wallet/domain"
	"github.com/jinwei908/eth-market-course/internal/logger"
)

// HardReset is invoked when the connected chain changes. Contract bindings
// and every derived cache are keyed by the old chain, so the only safe
// recovery is a full restart; the callback hands that decision to the
// process owner.
type HardReset func(reason string)

// EventBridge feeds provider events into the wallet caches. Its listener
// registrations are scoped to one ConnectionState: Stop releases them
// exactly once, so a re-resolved connection never leaks old handlers.
type EventBridge struct {
	provider Provider
	wallet   *WalletService
	reset    HardReset
	logger   logger.LoggerInterface

	mu     sync.Mutex
	unsubs []Unsubscribe
	done   sync.Once
}

// NewEventBridge creates a bridge for the provider backing wallet's
// ConnectionState.
func NewEventBridge(provider Provider, wallet *WalletService, reset HardReset, log logger.LoggerInterface) *EventBridge {
	return &EventBridge{
		provider: provider,
		wallet:   wallet,
		reset:    reset,
		logger:   log,
	}
}

// Start subscribes to the provider's account and chain events.
func (b *EventBridge) Start(ctx context.Context) error {
	unsubAccounts, err := b.provider.Subscribe(domain.EventAccountsChanged, func(ev domain.Event) {
		b.wallet.ApplyAccountsChanged(ctx, ev.Accounts)
	})
	if err != nil {
		return err
	}

	unsubChain, err := b.provider.Subscribe(domain.EventChainChanged, func(ev domain.Event) {
		b.logger.Warn(ctx, "chain changed, requesting hard reset", "chain_id", ev.ChainID)
		b.reset("chain changed")
	})
	if err != nil {
		unsubAccounts()
		return err
	}

	b.mu.Lock()
	b.unsubs = append(b.unsubs, unsubAccounts, unsubChain)
	b.mu.Unlock()

	b.logger.Debug(ctx, "event bridge started")
	return nil
}

// Stop deregisters all listeners. Idempotent.
func (b *EventBridge) Stop() {
	b.done.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, unsub := range b.unsubs {
			unsub()
		}
		b.unsubs = nil
	})
}
