// Package ratelimit caps how often outbound JSON-RPC requests are issued.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter bounds request frequency against a node endpoint.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerMinute requests, with a
// burst of 10% of the limit (minimum 1).
func New(requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may be made or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may be made immediately.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetLimit updates the per-minute rate, keeping the current burst.
func (l *Limiter) SetLimit(requestsPerMinute int) {
	l.limiter.SetLimit(rate.Limit(float64(requestsPerMinute) / 60.0))
}
