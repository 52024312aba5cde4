// Package application provides the cache-aside forecast service.
//
// The service owns the read path: look in the cache, fall back to the
// generator, write the fresh result back. Cache trouble never surfaces to
// callers; only generator and validation errors do.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	domaincache "github.com/felixgeelhaar/skycast/domain/cache"
	"github.com/felixgeelhaar/skycast/domain/forecast"
	"github.com/felixgeelhaar/skycast/infrastructure/cache"
	"github.com/felixgeelhaar/skycast/infrastructure/logging"
	"github.com/felixgeelhaar/skycast/infrastructure/telemetry"
)

// Default cache-aside parameters.
const (
	DefaultNamespace    = "api:weather"
	DefaultEntity       = "forecast"
	DefaultTTL          = 5 * time.Minute
	DefaultWriteTimeout = 5 * time.Second
)

// Service serves forecasts through a cache-aside read path.
type Service struct {
	cache        *cache.Resilient
	generate     forecast.Generator
	log          *bolt.Logger
	metrics      telemetry.Metrics
	namespace    string
	entity       string
	ttl          time.Duration
	writeTimeout time.Duration
}

// Option configures the service.
type Option func(*Service)

// WithGenerator sets the forecast generator.
func WithGenerator(g forecast.Generator) Option {
	return func(s *Service) {
		s.generate = g
	}
}

// WithLogger sets the logger.
func WithLogger(log *bolt.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithNamespace sets the cache key namespace.
func WithNamespace(ns string) Option {
	return func(s *Service) {
		s.namespace = ns
	}
}

// WithTTL sets the cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithWriteTimeout bounds the cache write-back.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.writeTimeout = d
	}
}

// NewService creates a forecast service over the given resilient cache.
func NewService(c *cache.Resilient, opts ...Option) *Service {
	s := &Service{
		cache:        c,
		generate:     forecast.Generate,
		log:          logging.Get(),
		metrics:      &telemetry.NoopMetrics{},
		namespace:    DefaultNamespace,
		entity:       DefaultEntity,
		ttl:          DefaultTTL,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Forecast returns a days-long forecast, serving from cache when possible.
//
// Negative day counts return forecast.ErrInvalidDays. A zero count returns an
// empty forecast without touching the cache. Cache failures degrade to
// generation; the result is returned to the caller either way.
func (s *Service) Forecast(ctx context.Context, days int) ([]forecast.Record, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: %d", forecast.ErrInvalidDays, days)
	}
	if days == 0 {
		return []forecast.Record{}, nil
	}

	key := s.cacheKey(days)

	result, err := s.cache.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if result.Present() {
		if records, ok := decodeRecords(result.Value); ok {
			s.metrics.RecordCacheHit(ctx, s.entity)
			logging.NewEvent(s.log.Debug()).
				Add(logging.Component("service")).
				Add(logging.Key(key)).
				Add(logging.Outcome(domaincache.OutcomeHit)).
				Msg("forecast served from cache")
			return records, nil
		}
		// A corrupt entry reads as a miss; the write-back below repairs it.
		logging.NewEvent(s.log.Warn()).
			Add(logging.Component("service")).
			Add(logging.Key(key)).
			Msg("discarding undecodable cache entry")
	}
	s.metrics.RecordCacheMiss(ctx, s.entity)

	records := s.generate(days)
	s.metrics.RecordForecastGenerated(ctx, days)
	logging.NewEvent(s.log.Debug()).
		Add(logging.Component("service")).
		Add(logging.Key(key)).
		Add(logging.Outcome(result.Outcome)).
		Add(logging.Days(days)).
		Msg("forecast generated")

	s.writeBack(ctx, key, records)
	return records, nil
}

// cacheKey builds the "{namespace}:{entity}:{count}" key.
func (s *Service) cacheKey(days int) string {
	return fmt.Sprintf("%s:%s:%d", s.namespace, s.entity, days)
}

// writeBack stores freshly generated records. The write survives caller
// cancellation but is bounded by the write timeout, and its failure is
// already swallowed by the resilient cache.
func (s *Service) writeBack(ctx context.Context, key string, records []forecast.Record) {
	payload, err := json.Marshal(records)
	if err != nil {
		logging.NewEvent(s.log.Error()).
			Add(logging.Component("service")).
			Add(logging.Key(key)).
			Add(logging.ErrorField(err)).
			Msg("forecast encode failed, skipping cache write")
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	_ = s.cache.Store(writeCtx, key, payload, s.ttl)
}

func decodeRecords(payload []byte) ([]forecast.Record, bool) {
	var records []forecast.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false
	}
	return records, true
}
