// Package flags resolves feature flags from a remote configuration service
// with a local fallback.
//
// Resolution never blocks a request and never fails: reads are served from an
// atomically swapped snapshot, refreshed in the background. When the remote
// source is unreachable the last good snapshot (or the local defaults) stays
// in effect.
package flags

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	domainflags "github.com/felixgeelhaar/skycast/domain/flags"
	"github.com/felixgeelhaar/skycast/infrastructure/logging"
)

// DefaultRefreshInterval is how often the resolver polls the remote source.
const DefaultRefreshInterval = 30 * time.Second

// Fetcher retrieves a flag snapshot from a remote source.
type Fetcher interface {
	Fetch(ctx context.Context) (*domainflags.Snapshot, error)
}

// Resolver serves flag values from an in-memory snapshot and keeps it fresh.
type Resolver struct {
	fetcher  Fetcher
	defaults map[domainflags.Flag]bool
	interval time.Duration
	log      *bolt.Logger

	current atomic.Pointer[domainflags.Snapshot]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// ResolverOption configures the resolver.
type ResolverOption func(*Resolver)

// WithDefaults sets the local fallback values.
func WithDefaults(defaults map[domainflags.Flag]bool) ResolverOption {
	return func(r *Resolver) {
		r.defaults = defaults
	}
}

// WithRefreshInterval sets the background refresh interval.
func WithRefreshInterval(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *bolt.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

// NewResolver creates a resolver backed by fetcher. A nil fetcher means
// local-only resolution.
func NewResolver(fetcher Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:  fetcher,
		defaults: domainflags.Defaults(),
		interval: DefaultRefreshInterval,
		log:      logging.Get(),
	}
	for _, opt := range opts {
		opt(r)
	}
	local := domainflags.LocalSnapshot(r.defaults)
	r.current.Store(&local)
	return r
}

// Initialize builds a resolver, performs the first fetch, and starts the
// refresh loop. It never fails; an unreachable source leaves the local
// defaults in effect.
func Initialize(ctx context.Context, fetcher Fetcher, opts ...ResolverOption) *Resolver {
	r := NewResolver(fetcher, opts...)
	r.Start(ctx)
	return r
}

// Start attempts one remote fetch and starts the refresh loop.
//
// It never returns an error: a failed fetch leaves the local defaults in
// place and the background loop keeps trying.
func (r *Resolver) Start(ctx context.Context) {
	if r.fetcher == nil {
		return
	}

	r.refresh(ctx, true)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return // already running
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go r.loop(loopCtx, done)
}

// IsEnabled reports whether the flag is enabled in the current snapshot.
// Unknown flags resolve to false.
func (r *Resolver) IsEnabled(flag domainflags.Flag) bool {
	return r.current.Load().IsEnabled(flag)
}

// Snapshot returns the current snapshot.
func (r *Resolver) Snapshot() domainflags.Snapshot {
	return *r.current.Load()
}

// Close stops the refresh loop and waits for it to exit.
func (r *Resolver) Close() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (r *Resolver) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx, false)
		}
	}
}

// refresh fetches a new snapshot and swaps it in. On failure the current
// snapshot stays in effect: the first failure is a warning, later refresh
// failures are routine and log at debug.
func (r *Resolver) refresh(ctx context.Context, first bool) {
	snapshot, err := r.fetcher.Fetch(ctx)
	if err != nil {
		event := r.log.Debug()
		if first {
			event = r.log.Warn()
		}
		logging.NewEvent(event).
			Add(logging.Component("flags")).
			Add(logging.Str("category", failureCategory(err))).
			Add(logging.ErrorField(err)).
			Add(logging.Str("source", r.current.Load().Source)).
			Msg("flag fetch failed, keeping current snapshot")
		return
	}

	r.current.Store(snapshot)
	logging.NewEvent(r.log.Debug()).
		Add(logging.Component("flags")).
		Add(logging.Str("source", snapshot.Source)).
		Msg("flag snapshot refreshed")
}

// failureCategory classifies a fetch failure for the log line.
func failureCategory(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			return "network"
		}
		return "response"
	}
}

var _ domainflags.Provider = (*Resolver)(nil)
