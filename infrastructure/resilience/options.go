package resilience

import "time"

// Option configures the caller.
type Option func(*Config)

// WithMaxAttempts sets the total attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithInitialBackoff sets the delay before the first retry.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Config) {
		c.InitialBackoff = d
	}
}

// WithBreakerThreshold sets the consecutive-failure threshold.
func WithBreakerThreshold(n int) Option {
	return func(c *Config) {
		c.BreakerThreshold = n
	}
}

// WithBreakerCooldown sets how long the circuit stays open.
func WithBreakerCooldown(d time.Duration) Option {
	return func(c *Config) {
		c.BreakerCooldown = d
	}
}

// WithAttemptTimeout sets the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.AttemptTimeout = d
	}
}

// WithIdempotent enables or disables retries.
func WithIdempotent(idempotent bool) Option {
	return func(c *Config) {
		c.Idempotent = idempotent
	}
}

// NewWithOptions creates a caller with the given options applied to the
// default configuration.
func NewWithOptions[T any](opts ...Option) *Caller[T] {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return New[T](config)
}
