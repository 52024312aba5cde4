// Package web renders the forecast as an HTML page.
//
// The page is served from the backend API through the resilient client. When
// the backend is unavailable the page degrades to a banner instead of
// failing.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	domainflags "github.com/felixgeelhaar/skycast/domain/flags"
	"github.com/felixgeelhaar/skycast/domain/forecast"
	"github.com/felixgeelhaar/skycast/infrastructure/logging"
)

// ForecastSource provides forecast records, typically the resilient API
// client.
type ForecastSource interface {
	Forecast(ctx context.Context, days int) ([]forecast.Record, error)
}

// Server serves the forecast page.
type Server struct {
	source   ForecastSource
	fallback forecast.Generator
	flags    domainflags.Provider
	log      *bolt.Logger
	days     int
	mux      *http.ServeMux
	http     *http.Server
}

// Option configures the server.
type Option func(*Server)

// WithFlags sets the feature flag provider.
func WithFlags(provider domainflags.Provider) Option {
	return func(s *Server) {
		s.flags = provider
	}
}

// WithFallbackGenerator sets the local generator used when the
// UpstreamForecast flag is off.
func WithFallbackGenerator(g forecast.Generator) Option {
	return func(s *Server) {
		s.fallback = g
	}
}

// WithLogger sets the logger.
func WithLogger(log *bolt.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithDays sets how many days the page shows.
func WithDays(days int) Option {
	return func(s *Server) {
		if days > 0 {
			s.days = days
		}
	}
}

// NewServer creates a web server bound to addr.
func NewServer(addr string, source ForecastSource, opts ...Option) *Server {
	s := &Server{
		source:   source,
		fallback: forecast.Generate,
		flags:    domainflags.Static{domainflags.UpstreamForecast: true},
		log:      logging.Get(),
		days:     5,
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
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
		Add(logging.Component("web")).
		Add(logging.Str("addr", s.http.Addr)).
		Msg("web server listening")
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type pageRow struct {
	Date         string
	TemperatureC int
	TemperatureF int
	Summary      string
}

type pageData struct {
	Rows     []pageRow
	Degraded bool
}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Skycast</title></head>
<body>
<h1>Weather Forecast</h1>
{{if .Degraded}}<p class="degraded">Forecast service is temporarily unavailable. Please try again later.</p>{{else}}
<table>
<tr><th>Date</th><th>Temp. (C)</th><th>Temp. (F)</th><th>Summary</th></tr>
{{range .Rows}}<tr><td>{{.Date}}</td><td>{{.TemperatureC}}</td><td>{{.TemperatureF}}</td><td>{{.Summary}}</td></tr>
{{end}}</table>
{{end}}</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	records, err := s.fetch(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logging.NewEvent(s.log.Warn()).
			Add(logging.Component("web")).
			Add(logging.ErrorField(err)).
			Msg("forecast unavailable, rendering degraded page")
		s.render(w, http.StatusServiceUnavailable, pageData{Degraded: true})
		return
	}

	rows := make([]pageRow, len(records))
	for i, record := range records {
		rows[i] = pageRow{
			Date:         record.Date.Format("Mon, 02 Jan 2006"),
			TemperatureC: record.TemperatureC,
			TemperatureF: record.TemperatureF(),
			Summary:      record.Summary,
		}
	}
	s.render(w, http.StatusOK, pageData{Rows: rows})
}

// fetch retrieves records from upstream, or generates locally when the
// UpstreamForecast flag is off.
func (s *Server) fetch(ctx context.Context) ([]forecast.Record, error) {
	if !s.flags.IsEnabled(domainflags.UpstreamForecast) {
		return s.fallback(s.days), nil
	}

	return s.source.Forecast(ctx, s.days)
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		logging.NewEvent(s.log.Warn()).
			Add(logging.Component("web")).
			Add(logging.ErrorField(err)).
			Msg("page render failed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
