// Package client calls the upstream forecast service over HTTP, wrapped in
// the resilience policy: retries with backoff, circuit breaker, per-attempt
// timeout.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/skycast/domain/forecast"
	"github.com/felixgeelhaar/skycast/infrastructure/logging"
	"github.com/felixgeelhaar/skycast/infrastructure/resilience"
	"github.com/felixgeelhaar/skycast/infrastructure/telemetry"
)

// ForecastClient retrieves forecasts from the backend service.
type ForecastClient struct {
	baseURL string
	http    *http.Client
	caller  *resilience.Caller[[]forecast.Record]
	log     *bolt.Logger
	metrics telemetry.Metrics

	mu        sync.Mutex
	lastState string
}

// Option configures the client.
type Option func(*ForecastClient)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ForecastClient) {
		c.http = client
	}
}

// WithResilience sets the resilience configuration.
func WithResilience(cfg resilience.Config) Option {
	return func(c *ForecastClient) {
		c.caller = resilience.New[[]forecast.Record](cfg)
	}
}

// WithLogger sets the logger.
func WithLogger(log *bolt.Logger) Option {
	return func(c *ForecastClient) {
		c.log = log
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *ForecastClient) {
		c.metrics = m
	}
}

// New creates a forecast client for the given base URL.
func New(baseURL string, opts ...Option) *ForecastClient {
	c := &ForecastClient{
		baseURL:   baseURL,
		http:      &http.Client{},
		caller:    resilience.NewDefault[[]forecast.Record](),
		log:       logging.Get(),
		metrics:   &telemetry.NoopMetrics{},
		lastState: "closed",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Forecast fetches a days-long forecast from the upstream service.
//
// Failures after the resilience budget surface as resilience.ErrUnavailable;
// caller cancellation passes through unchanged.
func (c *ForecastClient) Forecast(ctx context.Context, days int) ([]forecast.Record, error) {
	start := time.Now()

	records, err := c.caller.Call(ctx, func(ctx context.Context) ([]forecast.Record, error) {
		return c.fetch(ctx, days)
	})

	c.metrics.RecordRemoteCall(ctx, "forecast", err == nil, time.Since(start))
	c.observeBreaker(ctx)
	if err != nil {
		logging.NewEvent(c.log.Warn()).
			Add(logging.Component("client")).
			Add(logging.Endpoint(c.baseURL)).
			Add(logging.Days(days)).
			Add(logging.BreakerState(c.caller.State())).
			Add(logging.ErrorField(err)).
			Msg("upstream forecast call failed")
		return nil, err
	}

	return records, nil
}

// BreakerState returns the circuit breaker state for health reporting.
func (c *ForecastClient) BreakerState() string {
	return c.caller.State()
}

// observeBreaker records circuit breaker open/close transitions.
func (c *ForecastClient) observeBreaker(ctx context.Context) {
	state := c.caller.State()

	c.mu.Lock()
	previous := c.lastState
	c.lastState = state
	c.mu.Unlock()

	if state == previous {
		return
	}
	if state == "open" {
		c.metrics.RecordCircuitBreakerStateChange(ctx, c.baseURL, true)
	} else if previous == "open" {
		c.metrics.RecordCircuitBreakerStateChange(ctx, c.baseURL, false)
	}
}

func (c *ForecastClient) fetch(ctx context.Context, days int) ([]forecast.Record, error) {
	u := c.baseURL + "/weatherforecast?days=" + strconv.Itoa(days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast request: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Forecast []forecast.Record `json:"forecast"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	return body.Forecast, nil
}
