// Package httpclient provides an instrumented HTTP client for external
// content services.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Default connection pool settings
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
)

// Client is the interface for making HTTP requests.
type Client interface {
	// GetJSON issues a GET and decodes a JSON response body into result.
	GetJSON(ctx context.Context, url string, result any) error
	// Get issues a GET and returns the raw response.
	Get(ctx context.Context, url string) (*Response, error)
}

// Response wraps the outcome of an executed request.
type Response struct {
	StatusCode int
	body       []byte
}

// Body returns the raw response body.
func (r *Response) Body() []byte {
	return r.body
}

// IsError reports whether the response status indicates a failure.
func (r *Response) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

// InstrumentedClient wraps http.Client with OTEL instrumentation.
type InstrumentedClient struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	defaultHeaders map[string]string
}

// ClientOption customizes the client.
type ClientOption func(*InstrumentedClient)

// WithProviderName labels metrics with the upstream provider's name.
func WithProviderName(name string) ClientOption {
	return func(c *InstrumentedClient) {
		c.providerName = name
	}
}

// WithRequestTimeout overrides the default request timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *InstrumentedClient) {
		c.client.Timeout = timeout
	}
}

// WithHeaders sets headers attached to every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *InstrumentedClient) {
		c.defaultHeaders = headers
	}
}

// NewInstrumentedClient creates a new instrumented HTTP client.
func NewInstrumentedClient(opts ...ClientOption) (*InstrumentedClient, error) {
	httpClient := &http.Client{
		Timeout: defaultRequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		},
	}

	// Wrap transport with OTEL instrumentation
	httpClient.Transport = otelhttp.NewTransport(
		httpClient.Transport,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	c := &InstrumentedClient{
		client:       httpClient,
		providerName: "default",
	}
	for _, opt := range opts {
		opt(c)
	}

	meter := otel.Meter("httpclient")
	counter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total HTTP client requests"),
	)
	if err != nil {
		return nil, err
	}
	c.requestCounter = counter

	return c, nil
}

// Get issues a GET and returns the raw response.
func (c *InstrumentedClient) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	c.recordMetrics(ctx, err == nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, body: body}, nil
}

// GetJSON issues a GET and decodes the JSON response into result.
func (c *InstrumentedClient) GetJSON(ctx context.Context, url string, result any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.Unmarshal(resp.Body(), result)
}

func (c *InstrumentedClient) recordMetrics(ctx context.Context, success bool) {
	c.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", c.providerName),
		attribute.Bool("success", success),
	))
}

var _ Client = (*InstrumentedClient)(nil)
