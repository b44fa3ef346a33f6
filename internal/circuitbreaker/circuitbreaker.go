// Package circuitbreaker wraps sony/gobreaker with typed results and
// application defaults.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config holds circuit breaker settings.
type Config struct {
	Name        string
	MaxRequests uint32        // allowed through while half-open
	Interval    time.Duration // closed-state counter reset interval
	Timeout     time.Duration // open-state cool-down before half-open
	MaxFailures uint32        // consecutive failures that trip the breaker
}

// DefaultConfig returns the defaults used for RPC-facing breakers.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		MaxFailures: 5,
	}
}

// CircuitBreaker is a typed wrapper around gobreaker.CircuitBreaker.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a circuit breaker from the config.
func New[T any](cfg Config) *CircuitBreaker[T] {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	return c.cb.Execute(fn)
}

// State returns the current breaker state.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}
