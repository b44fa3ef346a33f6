// Package metrics wires the OpenTelemetry meter provider and the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// newReader builds one SDK reader for a configured exporter.
func newReader(ctx context.Context, provider ProviderCfg) (sdkmetric.Reader, error) {
	switch provider.Provider {
	case PrometheusProvider:
		return prometheus.New()
	case OtelCollector:
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(provider.Endpoint),
			otlpmetricgrpc.WithHeaders(provider.Headers),
		}
		if provider.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	default:
		return nil, fmt.Errorf("metrics: unknown provider %q", provider.Provider)
	}
}

// NewMetricProvider installs the global meter provider. With no exporter
// configured it falls back to a Prometheus reader so instruments never
// record into the void.
func NewMetricProvider(options ...OptionFn) MetricProvider {
	ctx := context.Background()

	var cfg Config
	for _, opt := range options {
		cfg = opt(cfg)
	}
	if len(cfg.Provider) == 0 {
		cfg.Provider = []ProviderCfg{{Provider: PrometheusProvider}}
	}

	sdkOpts := make([]sdkmetric.Option, 0, len(cfg.Provider)+1)
	for _, provider := range cfg.Provider {
		reader, err := newReader(ctx, provider)
		if err != nil {
			panic(err)
		}
		sdkOpts = append(sdkOpts, sdkmetric.WithReader(reader))
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}
	sdkOpts = append(sdkOpts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	))

	meterProvider := sdkmetric.NewMeterProvider(sdkOpts...)
	otel.SetMeterProvider(meterProvider)
	return meterProvider
}

// ServePrometheusMetrics blocks serving /metrics; run it in a goroutine.
func ServePrometheusMetrics(opt ...PromOptionFn) {
	var cfg PromServerConfig
	for _, o := range opt {
		cfg = o(cfg)
	}
	port := cfg.port
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		fmt.Printf("metrics: serve: %v\n", err)
	}
}
