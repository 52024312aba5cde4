package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/skycast/domain/cache"
	"github.com/felixgeelhaar/skycast/domain/flags"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for skycast logging.

// Key adds a cache key field.
func Key(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("key", key)
	}
}

// Entity adds an entity field (the cached domain object kind).
func Entity(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("entity", name)
	}
}

// Outcome adds a cache lookup outcome field.
func Outcome(o cache.Outcome) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("outcome", o.String())
	}
}

// Backend adds a cache backend field.
func Backend(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("backend", name)
	}
}

// FlagName adds a feature flag field.
func FlagName(f flags.Flag) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("flag", string(f))
	}
}

// Endpoint adds a remote endpoint field.
func Endpoint(url string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("endpoint", url)
	}
}

// Days adds a forecast day count field.
func Days(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("days", n)
	}
}

// TTL adds a cache TTL field in seconds.
func TTL(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("ttl_s", int64(d.Seconds()))
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Attempt adds a retry attempt field.
func Attempt(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("attempt", n)
	}
}

// BreakerState adds a circuit breaker state field.
func BreakerState(state string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("breaker_state", state)
	}
}

// RequestID adds a request ID field.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// Route adds an HTTP route field.
func Route(route string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("route", route)
	}
}

// Status adds an HTTP status field.
func Status(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("status", code)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
