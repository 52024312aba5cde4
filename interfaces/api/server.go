// Package api exposes the forecast backend over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	domainflags "github.com/felixgeelhaar/skycast/domain/flags"
	"github.com/felixgeelhaar/skycast/domain/forecast"
	"github.com/felixgeelhaar/skycast/infrastructure/logging"
	"github.com/felixgeelhaar/skycast/infrastructure/telemetry"
)

// Forecast query limits.
const (
	DefaultDays = 5
	MaxDays     = 14
)

// Server serves the forecast API.
type Server struct {
	service ForecastService
	flags   domainflags.Provider
	health  []HealthCheck
	log     *bolt.Logger
	metrics telemetry.Metrics
	mux     *http.ServeMux
	http    *http.Server
}

// ForecastService is the application-layer dependency of the API.
type ForecastService interface {
	Forecast(ctx context.Context, days int) ([]forecast.Record, error)
}

// HealthCheck reports one component's health for /healthz.
type HealthCheck struct {
	// Name identifies the component ("cache", "flags", ...).
	Name string

	// Check returns a short status string. Failures are reported, never
	// fatal: /healthz stays 200 while the service can serve requests.
	Check func(ctx context.Context) string
}

// Option configures the server.
type Option func(*Server)

// WithFlags sets the feature flag provider.
func WithFlags(provider domainflags.Provider) Option {
	return func(s *Server) {
		s.flags = provider
	}
}

// WithHealthCheck registers a component health check.
func WithHealthCheck(check HealthCheck) Option {
	return func(s *Server) {
		s.health = append(s.health, check)
	}
}

// WithLogger sets the logger.
func WithLogger(log *bolt.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates an API server bound to addr.
func NewServer(addr string, service ForecastService, opts ...Option) *Server {
	s := &Server{
		service: service,
		flags:   domainflags.Static{},
		log:     logging.Get(),
		metrics: &telemetry.NoopMetrics{},
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /weatherforecast", s.handleForecast)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.withRequestLogging(s.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe starts serving. It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	logging.NewEvent(s.log.Info()).
		Add(logging.Component("api")).
		Add(logging.Str("addr", s.http.Addr)).
		Msg("api server listening")
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
