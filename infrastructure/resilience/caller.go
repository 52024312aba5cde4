// Package resilience provides the resilient remote caller: bounded retries
// with backoff, a consecutive-failure circuit breaker, and a per-attempt
// timeout, composed using fortify.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ErrUnavailable marks a call that failed after the full resilience budget:
// retries exhausted or circuit open. Callers are expected to render it as a
// degraded state, not a crash.
var ErrUnavailable = errors.New("service unavailable")

// Config configures the caller.
type Config struct {
	// MaxAttempts is the total attempt budget (first call included).
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier is the exponential backoff multiplier.
	BackoffMultiplier float64

	// BreakerThreshold is the number of consecutive failed calls before
	// the circuit opens.
	BreakerThreshold int

	// BreakerCooldown is how long the circuit stays open before admitting
	// one trial call.
	BreakerCooldown time.Duration

	// AttemptTimeout bounds each individual attempt. Exceeding it counts
	// as a failure for retry and breaker purposes.
	AttemptTimeout time.Duration

	// Idempotent enables retries. Non-idempotent callers get a single
	// attempt per call.
	Idempotent bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialBackoff:    200 * time.Millisecond,
		BackoffMultiplier: 2.0,
		BreakerThreshold:  5,
		BreakerCooldown:   30 * time.Second,
		AttemptTimeout:    10 * time.Second,
		Idempotent:        true,
	}
}

// Caller wraps a function call with the resilience policy. Breaker state is
// owned by the instance and safe for concurrent use; a Caller is meant to be
// long-lived and shared across requests.
type Caller[T any] struct {
	breaker        circuitbreaker.CircuitBreaker[T]
	retrier        retry.Retry[T]
	attemptTimeout time.Duration
	retryEnabled   bool
}

// New creates a caller with the given configuration.
// Composition order: circuit breaker outside, retry inside, per-attempt
// timeout innermost. A call that exhausts its retries counts as one breaker
// failure.
func New[T any](cfg Config) *Caller[T] {
	threshold := cfg.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	multiplier := cfg.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	return &Caller[T]{
		breaker: circuitbreaker.New[T](circuitbreaker.Config{
			MaxRequests: 1, // one trial call while half-open
			Interval:    cfg.BreakerCooldown,
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retrier: retry.New[T](retry.Config{
			MaxAttempts:        attempts,
			InitialDelay:       cfg.InitialBackoff,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         multiplier,
			NonRetryableErrors: []error{context.Canceled},
		}),
		attemptTimeout: cfg.AttemptTimeout,
		retryEnabled:   cfg.Idempotent,
	}
}

// NewDefault creates a caller with the default configuration.
func NewDefault[T any]() *Caller[T] {
	return New[T](DefaultConfig())
}

// Call runs fn under the resilience policy.
//
// Caller cancellation passes through unchanged; every other terminal failure
// wraps ErrUnavailable.
func (c *Caller[T]) Call(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	attempt := func(ctx context.Context) (T, error) {
		if c.attemptTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
			defer cancel()
		}
		return fn(ctx)
	}

	result, err := c.breaker.Execute(ctx, func(ctx context.Context) (T, error) {
		if c.retryEnabled {
			return c.retrier.Do(ctx, attempt)
		}
		return attempt(ctx)
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return zero, cerr
		}
		return zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return result, nil
}

// State returns the current circuit breaker state ("closed", "open",
// "half-open").
func (c *Caller[T]) State() string {
	return c.breaker.State().String()
}
