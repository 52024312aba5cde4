package flags

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	domainflags "github.com/felixgeelhaar/skycast/domain/flags"
)

func quietLogger() *bolt.Logger {
	return bolt.New(bolt.NewJSONHandler(&bytes.Buffer{}))
}

type stubFetcher struct {
	mu       sync.Mutex
	snapshot *domainflags.Snapshot
	err      error
}

func (s *stubFetcher) Fetch(ctx context.Context) (*domainflags.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func (s *stubFetcher) set(snapshot *domainflags.Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot, s.err = snapshot, err
}

func TestResolver_LocalDefaultsBeforeInitialize(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil,
		WithDefaults(map[domainflags.Flag]bool{domainflags.WeatherAlerts: true}),
		WithLogger(quietLogger()),
	)
	defer r.Close()

	if !r.IsEnabled(domainflags.WeatherAlerts) {
		t.Error("local default should be served before any remote fetch")
	}
	if got := r.Snapshot().Source; got != "local" {
		t.Errorf("Source = %s, want local", got)
	}
}

func TestResolver_UnreachableRemoteKeepsLocalDefaults(t *testing.T) {
	t.Parallel()

	r := Initialize(context.Background(),
		&stubFetcher{err: errors.New("connection refused")},
		WithDefaults(map[domainflags.Flag]bool{"FeatureX": true}),
		WithLogger(quietLogger()),
	)
	defer r.Close()

	if !r.IsEnabled("FeatureX") {
		t.Error("IsEnabled(FeatureX) = false, want true from local defaults")
	}
	if got := r.Snapshot().Source; got != "local" {
		t.Errorf("Source = %s, want local", got)
	}
}

func TestResolver_RemoteOverridesLocal(t *testing.T) {
	t.Parallel()

	remote := &domainflags.Snapshot{
		Values:    map[domainflags.Flag]bool{domainflags.WeatherAlerts: true},
		FetchedAt: time.Now(),
		Source:    "remote",
	}
	r := NewResolver(&stubFetcher{snapshot: remote}, WithLogger(quietLogger()))
	defer r.Close()

	if r.IsEnabled(domainflags.WeatherAlerts) {
		t.Fatal("WeatherAlerts should be off by default")
	}

	r.Start(context.Background())

	if !r.IsEnabled(domainflags.WeatherAlerts) {
		t.Error("remote snapshot should override the local default")
	}
	if got := r.Snapshot().Source; got != "remote" {
		t.Errorf("Source = %s, want remote", got)
	}
}

func TestResolver_BackgroundRefresh(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{err: errors.New("not yet")}
	r := NewResolver(fetcher,
		WithRefreshInterval(10*time.Millisecond),
		WithLogger(quietLogger()),
	)
	defer r.Close()

	r.Start(context.Background())
	if r.IsEnabled(domainflags.WeatherAlerts) {
		t.Fatal("failed fetch should leave defaults in place")
	}

	// Source recovers; the loop picks up the new snapshot.
	fetcher.set(&domainflags.Snapshot{
		Values:    map[domainflags.Flag]bool{domainflags.WeatherAlerts: true},
		FetchedAt: time.Now(),
		Source:    "remote",
	}, nil)

	deadline := time.After(2 * time.Second)
	for !r.IsEnabled(domainflags.WeatherAlerts) {
		select {
		case <-deadline:
			t.Fatal("refresh loop never picked up the recovered source")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestResolver_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	r := NewResolver(&stubFetcher{err: errors.New("down")}, WithLogger(quietLogger()))
	r.Start(context.Background())
	r.Close()
	r.Close()
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("parses flag response", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/flags" {
				t.Errorf("path = %s, want /flags", req.URL.Path)
			}
			if got := req.URL.Query().Get("label"); got != "production" {
				t.Errorf("label = %s, want production", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"flags":[
				{"name":"WeatherAlerts","label":"production","enabled":true},
				{"name":"DetailedForecast","label":"production","enabled":false}
			]}`))
		}))
		defer srv.Close()

		snapshot, err := NewHTTPFetcher(srv.URL, "production").Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if !snapshot.IsEnabled(domainflags.WeatherAlerts) {
			t.Error("WeatherAlerts should be enabled")
		}
		if snapshot.IsEnabled(domainflags.DetailedForecast) {
			t.Error("DetailedForecast should be disabled")
		}
		if snapshot.Source != "remote" {
			t.Errorf("Source = %s, want remote", snapshot.Source)
		}
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		if _, err := NewHTTPFetcher(srv.URL, "production").Fetch(context.Background()); err == nil {
			t.Fatal("Fetch() should fail on a 500 response")
		}
	})

	t.Run("unreachable endpoint is an error", func(t *testing.T) {
		t.Parallel()

		f := NewHTTPFetcher("http://127.0.0.1:1", "production",
			WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
		if _, err := f.Fetch(context.Background()); err == nil {
			t.Fatal("Fetch() should fail when the endpoint is unreachable")
		}
	})
}
