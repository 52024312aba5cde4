package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	domainflags "github.com/felixgeelhaar/skycast/domain/flags"
	"github.com/felixgeelhaar/skycast/domain/forecast"
	"github.com/felixgeelhaar/skycast/infrastructure/resilience"
)

func quietLogger() *bolt.Logger {
	return bolt.New(bolt.NewJSONHandler(&bytes.Buffer{}))
}

type stubSource struct {
	records []forecast.Record
	err     error
	calls   int
}

func (s *stubSource) Forecast(ctx context.Context, days int) ([]forecast.Record, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func doRequest(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestServer_Index(t *testing.T) {
	t.Parallel()

	t.Run("renders forecast table", func(t *testing.T) {
		t.Parallel()

		source := &stubSource{records: []forecast.Record{
			{Date: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), TemperatureC: 21, Summary: "Mild"},
			{Date: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), TemperatureC: 30, Summary: "Hot"},
		}}
		s := NewServer(":0", source, WithLogger(quietLogger()))
		w := doRequest(t, s, "/")

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		page := w.Body.String()
		for _, want := range []string{"Weather Forecast", "Mild", "Hot", "69", "85"} {
			if !strings.Contains(page, want) {
				t.Errorf("page missing %q", want)
			}
		}
		if strings.Contains(page, "unavailable") {
			t.Error("healthy page should not show the degraded banner")
		}
	})

	t.Run("degrades to banner when upstream unavailable", func(t *testing.T) {
		t.Parallel()

		source := &stubSource{err: resilience.ErrUnavailable}
		s := NewServer(":0", source, WithLogger(quietLogger()))
		w := doRequest(t, s, "/")

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", w.Code)
		}
		if !strings.Contains(w.Body.String(), "temporarily unavailable") {
			t.Error("degraded page should show the banner")
		}
	})

	t.Run("local generation when upstream flag off", func(t *testing.T) {
		t.Parallel()

		source := &stubSource{err: resilience.ErrUnavailable}
		s := NewServer(":0", source,
			WithLogger(quietLogger()),
			WithFlags(domainflags.Static{domainflags.UpstreamForecast: false}),
			WithDays(3),
		)
		w := doRequest(t, s, "/")

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 from local generation", w.Code)
		}
		if source.calls != 0 {
			t.Error("upstream must not be called when the flag is off")
		}
	})

	t.Run("unknown path is 404", func(t *testing.T) {
		t.Parallel()

		s := NewServer(":0", &stubSource{}, WithLogger(quietLogger()))
		if w := doRequest(t, s, "/nope"); w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	s := NewServer(":0", &stubSource{}, WithLogger(quietLogger()))
	w := doRequest(t, s, "/healthz")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %s", w.Body.String())
	}
}
