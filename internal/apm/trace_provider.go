// Package apm bootstraps the OpenTelemetry tracer provider from
// environment configuration.
package apm

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/jinwei908/eth-market-course/internal/logger"
)

type Provider string

const (
	ZipkinProvider  Provider = "ZIPKIN_PROVIDER"
	OTLPProvider    Provider = "OTLP_PROVIDER"
	ConsoleProvider Provider = "CONSOLE_PROVIDER"
	EmptyProvider   Provider = "EMPTY_PROVIDER"
)

type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// noopTraceProvider leaves the default (no-op) global provider in place.
type noopTraceProvider struct{}

func (noopTraceProvider) Stop() error { return nil }

func NewEmptyTraceProvider() TraceProvider {
	return noopTraceProvider{}
}

type TracerOptions struct {
	exporter     sdktrace.SpanExporter
	providerName string
	useEmpty     bool
}

type TracerOption func(*TracerOptions)

// WithProvider selects the span exporter. Endpoint and headers come from
// the standard OTEL_EXPORTER_* environment variables.
func WithProvider(provider Provider, log logger.LoggerInterface) TracerOption {
	switch provider {
	case ZipkinProvider:
		return useZipkin()
	case OTLPProvider:
		return useOTLP()
	case ConsoleProvider:
		return useConsole()
	default:
		log.Warn(context.Background(), "unknown trace provider, tracing disabled", "provider", string(provider))
		return useEmpty()
	}
}

func useEmpty() TracerOption {
	return func(option *TracerOptions) {
		option.useEmpty = true
		option.providerName = string(EmptyProvider)
	}
}

func useConsole() TracerOption {
	return func(option *TracerOptions) {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			panic(err)
		}
		option.exporter = exp
		option.providerName = string(ConsoleProvider)
	}
}

func useZipkin() TracerOption {
	return func(option *TracerOptions) {
		exp, err := zipkin.New(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
		if err != nil {
			panic(err)
		}
		option.exporter = exp
		option.providerName = string(ZipkinProvider)
	}
}

func useOTLP() TracerOption {
	return func(option *TracerOptions) {
		url := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

		var exp sdktrace.SpanExporter
		var err error
		if os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "http/protobuf" {
			exp, err = otlptracehttp.New(context.Background(), otlptracehttp.WithEndpointURL(url))
		} else {
			exp, err = otlptracegrpc.New(context.Background(), otlptracegrpc.WithEndpointURL(url))
		}
		if err != nil {
			panic(err)
		}
		option.exporter = exp
		option.providerName = string(OTLPProvider)
	}
}

// NewTraceProvider installs the global tracer provider and propagators.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) TraceProvider {
	if len(options) == 0 {
		options = []TracerOption{useOTLP()}
	}

	opts := &TracerOptions{}
	for _, opt := range options {
		opt(opts)
	}
	if opts.useEmpty {
		return NewEmptyTraceProvider()
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(os.Getenv("OTEL_SERVICE_NAME")),
			attribute.String("otel.provider", opts.providerName),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.tp.Shutdown(ctx)
}
