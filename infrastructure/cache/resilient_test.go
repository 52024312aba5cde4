package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	domaincache "github.com/felixgeelhaar/skycast/domain/cache"
	"github.com/felixgeelhaar/skycast/infrastructure/storage/memory"
)

// failingCache simulates a backend that is down.
type failingCache struct {
	err error
}

func (f *failingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return nil, false, f.err
}

func (f *failingCache) Set(ctx context.Context, key string, value []byte, opts domaincache.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.err
}

func (f *failingCache) Delete(ctx context.Context, key string) error { return f.err }
func (f *failingCache) Exists(ctx context.Context, key string) (bool, error) {
	return false, f.err
}
func (f *failingCache) Clear(ctx context.Context) error { return f.err }

func quietLogger() *bolt.Logger {
	return bolt.New(bolt.NewJSONHandler(&bytes.Buffer{}))
}

func TestResilient_Lookup(t *testing.T) {
	t.Parallel()

	t.Run("hit on healthy backend", func(t *testing.T) {
		t.Parallel()

		backend := memory.NewCache()
		_ = backend.Set(context.Background(), "key", []byte("value"), domaincache.SetOptions{})

		r := NewResilient(backend, WithLogger(quietLogger()))
		result, err := r.Lookup(context.Background(), "key")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if result.Outcome != domaincache.OutcomeHit {
			t.Errorf("Outcome = %v, want OutcomeHit", result.Outcome)
		}
		if string(result.Value) != "value" {
			t.Errorf("Value = %s, want value", result.Value)
		}
	})

	t.Run("miss on healthy backend", func(t *testing.T) {
		t.Parallel()

		r := NewResilient(memory.NewCache(), WithLogger(quietLogger()))
		result, err := r.Lookup(context.Background(), "absent")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if result.Outcome != domaincache.OutcomeMiss {
			t.Errorf("Outcome = %v, want OutcomeMiss", result.Outcome)
		}
	})

	t.Run("backend failure reported as backend error, not propagated", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")
		r := NewResilient(&failingCache{err: cause}, WithLogger(quietLogger()))

		result, err := r.Lookup(context.Background(), "key")
		if err != nil {
			t.Fatalf("Lookup() error = %v, backend failures must be swallowed", err)
		}
		if result.Outcome != domaincache.OutcomeBackendError {
			t.Errorf("Outcome = %v, want OutcomeBackendError", result.Outcome)
		}
		if !errors.Is(result.Err, cause) {
			t.Error("Result.Err should carry the backend failure for observability")
		}
		if result.Present() {
			t.Error("backend error must read as absence downstream")
		}
	})

	t.Run("cancellation is propagated, not swallowed", func(t *testing.T) {
		t.Parallel()

		r := NewResilient(memory.NewCache(), WithLogger(quietLogger()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Lookup(ctx, "key")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Lookup() error = %v, want context.Canceled", err)
		}
	})
}

func TestResilient_Store(t *testing.T) {
	t.Parallel()

	t.Run("write reaches healthy backend", func(t *testing.T) {
		t.Parallel()

		backend := memory.NewCache()
		r := NewResilient(backend, WithLogger(quietLogger()))

		if err := r.Store(context.Background(), "key", []byte("value"), time.Minute); err != nil {
			t.Fatalf("Store() error = %v", err)
		}

		value, found, _ := backend.Get(context.Background(), "key")
		if !found || string(value) != "value" {
			t.Errorf("backend value = %s, found = %v", value, found)
		}
	})

	t.Run("write failure swallowed", func(t *testing.T) {
		t.Parallel()

		r := NewResilient(&failingCache{err: errors.New("broken pipe")}, WithLogger(quietLogger()))
		if err := r.Store(context.Background(), "key", []byte("value"), time.Minute); err != nil {
			t.Errorf("Store() error = %v, write failures must be swallowed", err)
		}
	})

	t.Run("cancellation is propagated", func(t *testing.T) {
		t.Parallel()

		r := NewResilient(memory.NewCache(), WithLogger(quietLogger()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := r.Store(ctx, "key", nil, time.Minute); !errors.Is(err, context.Canceled) {
			t.Errorf("Store() error = %v, want context.Canceled", err)
		}
	})
}

func TestResilient_RoundTrip(t *testing.T) {
	t.Parallel()

	r := NewResilient(memory.NewCache(), WithLogger(quietLogger()))
	ctx := context.Background()

	payload := []byte(`[{"temperatureC":20},{"temperatureC":21}]`)
	if err := r.Store(ctx, "api:weather:forecast:2", payload, 5*time.Minute); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	result, err := r.Lookup(ctx, "api:weather:forecast:2")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !result.Present() {
		t.Fatal("Lookup() should hit after Store")
	}
	if !bytes.Equal(result.Value, payload) {
		t.Errorf("Value = %s, want %s", result.Value, payload)
	}
}
