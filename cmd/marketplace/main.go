// Package main is the entry point for the course marketplace client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jinwei908/eth-market-course/business/courses"
	coursesDI "github.com/jinwei908/eth-market-course/business/courses/di"
	"github.com/jinwei908/eth-market-course/business/marketplace"
	"github.com/jinwei908/eth-market-course/business/wallet"
	walletDI "github.com/jinwei908/eth-market-course/business/wallet/di"
	"github.com/jinwei908/eth-market-course/internal/apm"
	"github.com/jinwei908/eth-market-course/internal/config"
	"github.com/jinwei908/eth-market-course/internal/health"
	"github.com/jinwei908/eth-market-course/internal/logger"
	"github.com/jinwei908/eth-market-course/internal/metrics"
	"github.com/jinwei908/eth-market-course/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// exitCodeRestart tells the supervisor to relaunch the process. A chain
// switch invalidates every cache and contract binding, so a clean restart
// is the recovery path.
const exitCodeRestart = 3

// errChainChanged signals the restart path out of run.
var errChainChanged = errors.New("chain changed")

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("eth-market-course %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, cancel, *configPath); err != nil {
		if errors.Is(err, errChainChanged) {
			fmt.Fprintln(os.Stderr, "chain changed, restarting")
			os.Exit(exitCodeRestart)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, configPath string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting course marketplace client",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Start health check server on port 8081
	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// A chain switch cancels the run and maps to a restart exit code.
	resetCh := make(chan struct{}, 1)
	reset := func(reason string) {
		select {
		case resetCh <- struct{}{}:
		default:
		}
		cancel()
	}

	// Define modules in dependency order
	modules := []monolith.Module{
		&wallet.Module{Reset: reset}, // Must be first - provides the connection
		&courses.Module{},            // Depends on wallet for the ledger reader
		&marketplace.Module{},        // Depends on wallet and courses
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	// Start modules
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	// Readiness tracks the wallet connection and the catalog cache.
	healthServer.RegisterCheck("wallet", func(ctx context.Context) (bool, string) {
		state := walletDI.GetConnection(mono.Services())
		if state.RequireInstall() {
			return false, "no wallet provider"
		}
		return state.Ready(), ""
	})
	healthServer.RegisterCheck("catalog", func(ctx context.Context) (bool, string) {
		entry := coursesDI.GetCatalogService(mono.Services()).Catalog(ctx)
		if entry.Err != nil {
			return false, entry.Err.Error()
		}
		return entry.HasInitialized, ""
	})

	err = runLoop(ctx, mono, log)

	select {
	case <-resetCh:
		return errChainChanged
	default:
		return err
	}
}

// runLoop logs the session state periodically until shutdown. The caches do
// the real work; this keeps them warm and makes the daemon observable from
// its logs alone.
func runLoop(ctx context.Context, mono monolith.Monolith, log logger.LoggerInterface) error {
	walletSvc := walletDI.GetWalletService(mono.Services())
	ownership := coursesDI.GetOwnershipService(mono.Services())

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	logSession := func() {
		info := walletSvc.Info(ctx)
		switch {
		case info.RequireInstall:
			log.Warn(ctx, "no wallet provider, session idle")
		case info.IsConnecting:
			log.Info(ctx, "wallet connecting")
		case !info.HasConnectedWallet:
			log.Info(ctx, "wallet not connected or network unsupported")
		default:
			owned := ownership.OwnedCourses(ctx)
			log.Info(ctx, "session active",
				"account", info.Account.Data.Address.Hex(),
				"network", info.Network.Data.Name,
				"is_admin", info.Account.Data.IsAdmin,
				"owned_courses", len(owned.Data),
			)
		}
	}

	logSession()
	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "shutting down")
			return nil
		case <-ticker.C:
			logSession()
		}
	}
}
