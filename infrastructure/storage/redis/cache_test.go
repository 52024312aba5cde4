package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/skycast/domain/cache"
)

func TestNewCacheFromClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		keyPrefix string
	}{
		{"default prefix", "skycast:"},
		{"empty prefix", ""},
		{"custom prefix", "myapp:cache:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewCacheFromClient(nil, tt.keyPrefix)
			if c == nil {
				t.Fatal("NewCacheFromClient() returned nil")
			}
			if c.keyPrefix != tt.keyPrefix {
				t.Errorf("keyPrefix = %s, want %s", c.keyPrefix, tt.keyPrefix)
			}
		})
	}
}

func TestCache_prefixKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		keyPrefix string
		key       string
		expected  string
	}{
		{"default prefix", "skycast:", "api:weather:forecast:5", "skycast:api:weather:forecast:5"},
		{"empty prefix", "", "api:weather:forecast:5", "api:weather:forecast:5"},
		{"custom prefix", "prod:", "data", "prod:data"},
		{"empty key", "skycast:", "", "skycast:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewCacheFromClient(nil, tt.keyPrefix)
			if result := c.prefixKey(tt.key); result != tt.expected {
				t.Errorf("prefixKey(%q) = %q, want %q", tt.key, result, tt.expected)
			}
		})
	}
}

func TestCache_Stats(t *testing.T) {
	t.Parallel()

	t.Run("initial stats are zero", func(t *testing.T) {
		t.Parallel()

		c := NewCacheFromClient(nil, "test:")
		stats := c.Stats()
		if stats.Hits != 0 || stats.Misses != 0 {
			t.Errorf("Stats() = %+v, want zeroes", stats)
		}
	})

	t.Run("stats are concurrent-safe", func(t *testing.T) {
		t.Parallel()

		c := NewCacheFromClient(nil, "test:")

		done := make(chan bool)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					c.hits.Add(1)
					c.misses.Add(1)
				}
				done <- true
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		stats := c.Stats()
		if stats.Hits != 1000 {
			t.Errorf("Hits = %d, want 1000", stats.Hits)
		}
		if stats.Misses != 1000 {
			t.Errorf("Misses = %d, want 1000", stats.Misses)
		}
	})
}

func TestCache_wrapError(t *testing.T) {
	t.Parallel()

	c := NewCacheFromClient(nil, "test:")

	t.Run("returns nil for nil error", func(t *testing.T) {
		t.Parallel()

		if err := c.wrapError(nil); err != nil {
			t.Errorf("wrapError(nil) = %v, want nil", err)
		}
	})

	t.Run("wraps deadline exceeded as timeout", func(t *testing.T) {
		t.Parallel()

		err := c.wrapError(context.DeadlineExceeded)
		if !errors.Is(err, cache.ErrOperationTimeout) {
			t.Error("wrapError(DeadlineExceeded) should wrap as ErrOperationTimeout")
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Error("wrapped error should contain original error")
		}
	})

	t.Run("returns other errors unchanged", func(t *testing.T) {
		t.Parallel()

		originalErr := errors.New("some redis error")
		if err := c.wrapError(originalErr); err != originalErr {
			t.Error("wrapError() should return original error for non-timeout errors")
		}
	})
}

func TestCache_ContextCancellation(t *testing.T) {
	t.Parallel()

	c := NewCacheFromClient(nil, "test:")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("Get", func(t *testing.T) {
		t.Parallel()

		_, _, err := c.Get(ctx, "key")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Get() error = %v, want context.Canceled", err)
		}
	})

	t.Run("Set", func(t *testing.T) {
		t.Parallel()

		err := c.Set(ctx, "key", []byte("value"), cache.SetOptions{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Set() error = %v, want context.Canceled", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		t.Parallel()

		if err := c.Delete(ctx, "key"); !errors.Is(err, context.Canceled) {
			t.Errorf("Delete() error = %v, want context.Canceled", err)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		t.Parallel()

		if _, err := c.Exists(ctx, "key"); !errors.Is(err, context.Canceled) {
			t.Errorf("Exists() error = %v, want context.Canceled", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		t.Parallel()

		if err := c.Clear(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Clear() error = %v, want context.Canceled", err)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Address != "localhost:6379" {
		t.Errorf("Address = %s, want localhost:6379", cfg.Address)
	}
	if cfg.KeyPrefix != "skycast:" {
		t.Errorf("KeyPrefix = %s, want skycast:", cfg.KeyPrefix)
	}
	if cfg.PoolSize != 10 {
		t.Errorf("PoolSize = %d, want 10", cfg.PoolSize)
	}
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range []ConfigOption{
		WithAddress("redis:6380"),
		WithPassword("secret"),
		WithDB(2),
		WithKeyPrefix("custom:"),
	} {
		opt(&cfg)
	}

	if cfg.Address != "redis:6380" {
		t.Errorf("Address = %s, want redis:6380", cfg.Address)
	}
	if cfg.Password != "secret" {
		t.Errorf("Password = %s, want secret", cfg.Password)
	}
	if cfg.DB != 2 {
		t.Errorf("DB = %d, want 2", cfg.DB)
	}
	if cfg.KeyPrefix != "custom:" {
		t.Errorf("KeyPrefix = %s, want custom:", cfg.KeyPrefix)
	}
}
