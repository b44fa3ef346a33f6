// Package ethereum provides the RPC-backed wallet provider adapter.
package ethereum

import (
	"context"
	"sync"
	"time"

	gethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jinwei908/eth-market-course/business/wallet/app"
	"github.com/jinwei908/eth-market-course/business/wallet/domain"
	"github.com/jinwei908/eth-market-course/internal/circuitbreaker"
	"github.com/jinwei908/eth-market-course/internal/logger"
	"github.com/jinwei908/eth-market-course/internal/ratelimit"
)

const (
	tracerName = "wallet/ethereum"
	meterName  = "wallet/ethereum"
)

// Ensure Provider implements the port.
var _ app.Provider = (*Provider)(nil)

// ProviderConfig holds configuration for the wallet provider.
type ProviderConfig struct {
	RPCURL         string
	DialTimeout    time.Duration // provider detection probe budget
	PollInterval   time.Duration // account/chain change detection cadence
	PollRatePerMin int           // ceiling on polling RPC traffic
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig(rpcURL string) ProviderConfig {
	return ProviderConfig{
		RPCURL:         rpcURL,
		DialTimeout:    5 * time.Second,
		PollInterval:   4 * time.Second,
		PollRatePerMin: 30,
	}
}

// providerMetrics holds OTEL metric instruments.
type providerMetrics struct {
	pollsTotal    metric.Int64Counter
	pollErrors    metric.Int64Counter
	eventsEmitted metric.Int64Counter
	rpcCalls      metric.Int64Counter
}

// Provider implements the wallet provider port over a JSON-RPC node. The
// node holds the accounts and signs transactions, so account and chain
// switches surface as polled state changes, delivered through the
// subscription interface.
type Provider struct {
	config ProviderConfig
	logger logger.LoggerInterface

	rpcClient *gethrpc.Client
	eth       *ethclient.Client

	// Subscriptions
	subMu     sync.Mutex
	subs      map[domain.EventKind]map[uint64]app.Handler
	nextSubID uint64

	// Poll baseline
	lastAccounts []common.Address
	lastChainID  uint64
	primed       bool

	done      chan struct{}
	closeOnce sync.Once
	limiter   *ratelimit.Limiter

	// Circuit breakers
	accountsCB *circuitbreaker.CircuitBreaker[[]common.Address]
	chainCB    *circuitbreaker.CircuitBreaker[uint64]
	callCB     *circuitbreaker.CircuitBreaker[[]byte]

	// Observability
	tracer  trace.Tracer
	metrics *providerMetrics
}

// Detector returns a detection function for the resolver. Detection fails
// with app.ErrNoProvider when the node cannot be dialed or probed, which the
// resolver treats as the recoverable "install a wallet" state.
func Detector(cfg ProviderConfig, log logger.LoggerInterface) app.Detect {
	return func(ctx context.Context) (app.Provider, error) {
		return Dial(ctx, cfg, log)
	}
}

// Dial connects to the wallet node and starts change detection.
func Dial(ctx context.Context, cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	rpcClient, err := gethrpc.DialContext(dialCtx, cfg.RPCURL)
	if err != nil {
		log.Warn(ctx, "wallet node unreachable", "url", cfg.RPCURL, "error", err)
		return nil, app.ErrNoProvider
	}

	eth := ethclient.NewClient(rpcClient)

	// Probe: a node that cannot answer eth_chainId is not a usable provider.
	if _, err := eth.ChainID(dialCtx); err != nil {
		rpcClient.Close()
		log.Warn(ctx, "wallet node probe failed", "url", cfg.RPCURL, "error", err)
		return nil, app.ErrNoProvider
	}

	p := &Provider{
		config:    cfg,
		logger:    log,
		rpcClient: rpcClient,
		eth:       eth,
		subs:      make(map[domain.EventKind]map[uint64]app.Handler),
		done:      make(chan struct{}),
		limiter:   ratelimit.New(cfg.PollRatePerMin),
		tracer:    otel.Tracer(tracerName),
	}

	p.initCircuitBreakers()
	if err := p.initMetrics(); err != nil {
		rpcClient.Close()
		return nil, err
	}

	go p.pollLoop()

	log.Info(ctx, "wallet provider connected", "url", cfg.RPCURL)
	return p, nil
}

func (p *Provider) initCircuitBreakers() {
	p.accountsCB = circuitbreaker.New[[]common.Address](circuitbreaker.DefaultConfig("wallet-accounts"))
	p.chainCB = circuitbreaker.New[uint64](circuitbreaker.DefaultConfig("wallet-chain"))
	p.callCB = circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("wallet-call"))
}

// initMetrics initializes OTEL metric instruments.
func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	p.metrics = &providerMetrics{}
	var err error

	p.metrics.pollsTotal, err = meter.Int64Counter(
		"wallet_polls_total",
		metric.WithDescription("Change-detection polls executed"),
	)
	if err != nil {
		return err
	}

	p.metrics.pollErrors, err = meter.Int64Counter(
		"wallet_poll_errors_total",
		metric.WithDescription("Change-detection polls that failed"),
	)
	if err != nil {
		return err
	}

	p.metrics.eventsEmitted, err = meter.Int64Counter(
		"wallet_events_emitted_total",
		metric.WithDescription("Provider events delivered to subscribers"),
	)
	if err != nil {
		return err
	}

	p.metrics.rpcCalls, err = meter.Int64Counter(
		"wallet_rpc_calls_total",
		metric.WithDescription("RPC calls issued by the provider"),
	)
	return err
}

// Accounts lists the wallet's unlocked accounts.
func (p *Provider) Accounts(ctx context.Context) ([]common.Address, error) {
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "eth_accounts")))
	return p.accountsCB.Execute(func() ([]common.Address, error) {
		var accounts []common.Address
		err := p.rpcClient.CallContext(ctx, &accounts, "eth_accounts")
		return accounts, err
	})
}

// RequestAccounts prompts the wallet to expose accounts.
func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "eth_requestAccounts")))
	var accounts []common.Address
	if err := p.rpcClient.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChainID returns the connected chain's id.
func (p *Provider) ChainID(ctx context.Context) (uint64, error) {
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "eth_chainId")))
	return p.chainCB.Execute(func() (uint64, error) {
		id, err := p.eth.ChainID(ctx)
		if err != nil {
			return 0, err
		}
		return id.Uint64(), nil
	})
}

// CallContract executes a read-only contract call.
func (p *Provider) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	ctx, span := p.tracer.Start(ctx, "wallet.call_contract",
		trace.WithAttributes(attribute.String("to", to.Hex())),
	)
	defer span.End()

	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "eth_call")))
	return p.callCB.Execute(func() ([]byte, error) {
		return p.eth.CallContract(ctx, gethereum.CallMsg{To: &to, Data: data}, nil)
	})
}

// SendTransaction submits a provider-signed transaction.
func (p *Provider) SendTransaction(ctx context.Context, msg app.TxMessage) (common.Hash, error) {
	ctx, span := p.tracer.Start(ctx, "wallet.send_transaction",
		trace.WithAttributes(
			attribute.String("from", msg.From.Hex()),
			attribute.String("to", msg.To.Hex()),
		),
	)
	defer span.End()

	args := map[string]any{
		"from": msg.From,
		"to":   msg.To,
	}
	if msg.Value != nil {
		args["value"] = (*hexutil.Big)(msg.Value)
	}
	if len(msg.Data) > 0 {
		args["data"] = hexutil.Bytes(msg.Data)
	}

	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "eth_sendTransaction")))

	var txHash common.Hash
	if err := p.rpcClient.CallContext(ctx, &txHash, "eth_sendTransaction", args); err != nil {
		span.RecordError(err)
		return common.Hash{}, err
	}
	return txHash, nil
}

// TransactionReceipt fetches the receipt for a mined transaction.
func (p *Provider) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "eth_getTransactionReceipt")))
	return p.eth.TransactionReceipt(ctx, txHash)
}

// Subscribe registers a handler for the event kind.
func (p *Provider) Subscribe(kind domain.EventKind, h app.Handler) (app.Unsubscribe, error) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	if p.subs[kind] == nil {
		p.subs[kind] = make(map[uint64]app.Handler)
	}
	p.nextSubID++
	id := p.nextSubID
	p.subs[kind][id] = h

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			p.subMu.Lock()
			defer p.subMu.Unlock()
			delete(p.subs[kind], id)
		})
	}
	return unsub, nil
}

// Close stops polling and releases network connections.
func (p *Provider) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.rpcClient.Close()
	})
}

// pollLoop detects account and chain switches. The first poll establishes
// the baseline; only subsequent differences emit events.
func (p *Provider) pollLoop() {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

func (p *Provider) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PollInterval)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return
	}

	p.metrics.pollsTotal.Add(ctx, 1)

	accounts, accErr := p.Accounts(ctx)
	chainID, chainErr := p.ChainID(ctx)
	if accErr != nil || chainErr != nil {
		p.metrics.pollErrors.Add(ctx, 1)
		p.logger.Debug(ctx, "wallet poll failed", "accounts_error", accErr, "chain_error", chainErr)
		return
	}

	if !p.primed {
		p.lastAccounts = accounts
		p.lastChainID = chainID
		p.primed = true
		return
	}

	if chainID != p.lastChainID {
		p.lastChainID = chainID
		p.emit(ctx, domain.Event{Kind: domain.EventChainChanged, ChainID: chainID})
	}

	if !sameAccounts(accounts, p.lastAccounts) {
		p.lastAccounts = accounts
		p.emit(ctx, domain.Event{Kind: domain.EventAccountsChanged, Accounts: accounts})
	}
}

func (p *Provider) emit(ctx context.Context, ev domain.Event) {
	p.subMu.Lock()
	handlers := make([]app.Handler, 0, len(p.subs[ev.Kind]))
	for _, h := range p.subs[ev.Kind] {
		handlers = append(handlers, h)
	}
	p.subMu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
	p.metrics.eventsEmitted.Add(ctx, int64(len(handlers)),
		metric.WithAttributes(attribute.String("kind", string(ev.Kind))))
}

func sameAccounts(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
