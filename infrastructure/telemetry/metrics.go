// Package telemetry provides OpenTelemetry metrics support for skycast.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics defines the interface for metrics recording. All methods are
// diagnostic only; callers must not change control flow based on them.
type Metrics interface {
	RecordCacheHit(ctx context.Context, entity string)
	RecordCacheMiss(ctx context.Context, entity string)
	RecordCacheBackendError(ctx context.Context, entity string, operation string)
	RecordForecastGenerated(ctx context.Context, days int)
	RecordRemoteCall(ctx context.Context, resource string, success bool, duration time.Duration)
	RecordRequest(ctx context.Context, route string, status int, duration time.Duration)
	RecordCircuitBreakerStateChange(ctx context.Context, endpoint string, isOpen bool)
}

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	cacheHits          metric.Int64Counter
	cacheMisses        metric.Int64Counter
	cacheBackendErrors metric.Int64Counter
	forecastsGenerated metric.Int64Counter
	remoteCalls        metric.Int64Counter

	// Histograms
	remoteCallDuration metric.Float64Histogram
	requestDuration    metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	circuitBreakerOpen metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/skycast").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/skycast",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider off the global meter
// provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.cacheHits, err = mp.meter.Int64Counter(
		"skycast.cache.hits",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.cacheMisses, err = mp.meter.Int64Counter(
		"skycast.cache.misses",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	mp.cacheBackendErrors, err = mp.meter.Int64Counter(
		"skycast.cache.backend_errors",
		metric.WithDescription("Number of swallowed cache backend failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.forecastsGenerated, err = mp.meter.Int64Counter(
		"skycast.forecast.generated",
		metric.WithDescription("Number of forecasts generated on cache miss"),
		metric.WithUnit("{forecast}"),
	)
	if err != nil {
		return err
	}

	mp.remoteCalls, err = mp.meter.Int64Counter(
		"skycast.remote.calls",
		metric.WithDescription("Number of upstream service calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	mp.remoteCallDuration, err = mp.meter.Float64Histogram(
		"skycast.remote.duration",
		metric.WithDescription("Duration of upstream service calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.requestDuration, err = mp.meter.Float64Histogram(
		"skycast.request.duration",
		metric.WithDescription("Duration of handled HTTP requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.circuitBreakerOpen, err = mp.meter.Int64UpDownCounter(
		"skycast.circuitbreaker.open",
		metric.WithDescription("Number of open circuit breakers"),
		metric.WithUnit("{circuit}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordCacheHit records a cache hit for the given entity.
func (mp *MetricsProvider) RecordCacheHit(ctx context.Context, entity string) {
	mp.cacheHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
	))
}

// RecordCacheMiss records a cache miss for the given entity.
func (mp *MetricsProvider) RecordCacheMiss(ctx context.Context, entity string) {
	mp.cacheMisses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
	))
}

// RecordCacheBackendError records a swallowed cache backend failure.
func (mp *MetricsProvider) RecordCacheBackendError(ctx context.Context, entity string, operation string) {
	mp.cacheBackendErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
	))
}

// RecordForecastGenerated records a forecast generation.
func (mp *MetricsProvider) RecordForecastGenerated(ctx context.Context, days int) {
	mp.forecastsGenerated.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("days", days),
	))
}

// RecordRemoteCall records an upstream service call.
func (mp *MetricsProvider) RecordRemoteCall(ctx context.Context, resource string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("resource", resource),
		attribute.Bool("success", success),
	}

	mp.remoteCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.remoteCallDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordRequest records a handled HTTP request.
func (mp *MetricsProvider) RecordRequest(ctx context.Context, route string, status int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("route", route),
		attribute.Int("status", status),
	}

	mp.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCircuitBreakerStateChange records a circuit breaker state change.
func (mp *MetricsProvider) RecordCircuitBreakerStateChange(ctx context.Context, endpoint string, isOpen bool) {
	attrs := []attribute.KeyValue{
		attribute.String("endpoint", endpoint),
	}

	if isOpen {
		mp.circuitBreakerOpen.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		mp.circuitBreakerOpen.Add(ctx, -1, metric.WithAttributes(attrs...))
	}
}

// NoopMetrics is a no-op metrics implementation for testing or when metrics
// are disabled.
type NoopMetrics struct{}

// RecordCacheHit is a no-op.
func (n *NoopMetrics) RecordCacheHit(ctx context.Context, entity string) {}

// RecordCacheMiss is a no-op.
func (n *NoopMetrics) RecordCacheMiss(ctx context.Context, entity string) {}

// RecordCacheBackendError is a no-op.
func (n *NoopMetrics) RecordCacheBackendError(ctx context.Context, entity string, operation string) {}

// RecordForecastGenerated is a no-op.
func (n *NoopMetrics) RecordForecastGenerated(ctx context.Context, days int) {}

// RecordRemoteCall is a no-op.
func (n *NoopMetrics) RecordRemoteCall(ctx context.Context, resource string, success bool, duration time.Duration) {
}

// RecordRequest is a no-op.
func (n *NoopMetrics) RecordRequest(ctx context.Context, route string, status int, duration time.Duration) {
}

// RecordCircuitBreakerStateChange is a no-op.
func (n *NoopMetrics) RecordCircuitBreakerStateChange(ctx context.Context, endpoint string, isOpen bool) {
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetrics)(nil)
)
