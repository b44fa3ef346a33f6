package app

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jinwei908/eth-market-course/business/wallet/domain"
	"github.com/jinwei908/eth-market-course/internal/logger"
)

// Detect probes for a wallet provider. Implementations return ErrNoProvider
// when none is reachable.
type Detect func(ctx context.Context) (Provider, error)

// ConnectionState is the resolved wallet connection. It is created wholesale
// by the Resolver and never patched in place: consumers bind to one state and
// are replaced together with it.
type ConnectionState struct {
	Phase    domain.Phase
	Provider Provider       // nil unless PhaseReady
	Contract common.Address // deployed marketplace contract
}

// Ready reports whether the connection can serve RPC traffic.
func (s *ConnectionState) Ready() bool {
	return s != nil && s.Phase == domain.PhaseReady && s.Provider != nil
}

// RequireInstall reports the "no wallet" end state.
func (s *ConnectionState) RequireInstall() bool {
	return s != nil && s.Phase == domain.PhaseUnavailable
}

// Resolver establishes the wallet connection once per process lifetime.
type Resolver struct {
	detect   Detect
	contract common.Address
	logger   logger.LoggerInterface

	once  sync.Once
	state *ConnectionState
}

// NewResolver creates a Resolver around a provider detection function. The
// connection starts in PhaseLoading until Resolve runs.
func NewResolver(detect Detect, contract common.Address, log logger.LoggerInterface) *Resolver {
	return &Resolver{
		detect:   detect,
		contract: contract,
		logger:   log,
		state:    &ConnectionState{Phase: domain.PhaseLoading},
	}
}

// Resolve detects the provider and produces the ConnectionState. Repeat
// calls return the same state; a chain switch invalidates the whole process
// instead (see EventBridge).
func (r *Resolver) Resolve(ctx context.Context) *ConnectionState {
	r.once.Do(func() {
		provider, err := r.detect(ctx)
		if err != nil {
			if !errors.Is(err, ErrNoProvider) {
				r.logger.Error(ctx, "provider detection failed", "error", err)
			} else {
				r.logger.Warn(ctx, "no wallet provider found, install one to continue")
			}
			r.state = &ConnectionState{Phase: domain.PhaseUnavailable}
			return
		}

		r.state = &ConnectionState{
			Phase:    domain.PhaseReady,
			Provider: provider,
			Contract: r.contract,
		}
		r.logger.Info(ctx, "wallet connection ready", "contract", r.contract.Hex())
	})
	return r.state
}

// State returns the current state: the PhaseLoading placeholder before
// Resolve has run, the resolved state afterwards.
func (r *Resolver) State() *ConnectionState {
	return r.state
}
