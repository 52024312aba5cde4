// Package cache provides the resilient cache client: a wrapper that turns
// every backend failure into a logged non-event.
//
// The cache is a performance optimization, never a correctness dependency.
// Reads that fail look like misses; writes that fail look like successes.
// The only error either path ever returns is caller cancellation.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	domaincache "github.com/felixgeelhaar/skycast/domain/cache"
	"github.com/felixgeelhaar/skycast/infrastructure/logging"
	"github.com/felixgeelhaar/skycast/infrastructure/telemetry"
)

// Resilient wraps a cache backend with graceful degradation.
type Resilient struct {
	backend domaincache.Cache
	log     *bolt.Logger
	metrics telemetry.Metrics
	entity  string
}

// Option configures the resilient client.
type Option func(*Resilient)

// WithLogger sets the logger.
func WithLogger(log *bolt.Logger) Option {
	return func(r *Resilient) {
		r.log = log
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(r *Resilient) {
		r.metrics = m
	}
}

// WithEntity sets the entity name used in logs and metrics.
func WithEntity(name string) Option {
	return func(r *Resilient) {
		r.entity = name
	}
}

// NewResilient wraps the given backend.
func NewResilient(backend domaincache.Cache, opts ...Option) *Resilient {
	r := &Resilient{
		backend: backend,
		log:     logging.Get(),
		metrics: &telemetry.NoopMetrics{},
		entity:  "forecast",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup reads a key from the backend.
//
// The returned error carries only caller cancellation. Any backend failure
// is logged once at warn level and reported as OutcomeBackendError; callers
// treat it as a miss but tests can tell the two apart.
func (r *Resilient) Lookup(ctx context.Context, key string) (domaincache.Result, error) {
	if err := ctx.Err(); err != nil {
		return domaincache.Result{}, err
	}

	value, found, err := r.backend.Get(ctx, key)
	if err != nil {
		if isCancellation(ctx, err) {
			return domaincache.Result{}, err
		}

		r.metrics.RecordCacheBackendError(ctx, r.entity, "get")
		logging.NewEvent(r.log.Warn()).
			Add(logging.Component("cache")).
			Add(logging.Operation("get")).
			Add(logging.Key(key)).
			Add(logging.ErrorField(err)).
			Msg("cache read failed, treating as miss")
		return domaincache.BackendError(err), nil
	}

	if !found {
		return domaincache.Miss(), nil
	}
	return domaincache.Hit(value), nil
}

// Store writes a key to the backend with the given TTL.
//
// Fire-and-forget semantics: any backend failure is logged and swallowed.
// The returned error carries only caller cancellation.
func (r *Resilient) Store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.backend.Set(ctx, key, value, domaincache.SetOptions{TTL: ttl})
	if err == nil {
		return nil
	}

	if isCancellation(ctx, err) {
		return err
	}

	r.metrics.RecordCacheBackendError(ctx, r.entity, "set")
	logging.NewEvent(r.log.Warn()).
		Add(logging.Component("cache")).
		Add(logging.Operation("set")).
		Add(logging.Key(key)).
		Add(logging.TTL(ttl)).
		Add(logging.ErrorField(err)).
		Msg("cache write failed, continuing without cache")
	return nil
}

// Backend returns the wrapped backend, for health checks.
func (r *Resilient) Backend() domaincache.Cache {
	return r.backend
}

// isCancellation reports whether err is the caller's own cancellation rather
// than a backend failure. A backend-side timeout is a backend failure even
// though it surfaces as DeadlineExceeded.
func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
