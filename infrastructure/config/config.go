// Package config provides configuration loading and parsing for skycast.
package config

import (
	"errors"
	"os"
	"time"
)

// Environment variables consumed by skycast. Absence of any of them is a
// valid, supported state, not an error.
const (
	EnvAddr          = "SKYCAST_ADDR"
	EnvCacheAddr     = "SKYCAST_CACHE_ADDR"
	EnvFlagsEndpoint = "SKYCAST_FLAGS_ENDPOINT"
	EnvUpstreamURL   = "SKYCAST_UPSTREAM_URL"
	EnvEnvironment   = "SKYCAST_ENVIRONMENT"
)

// Configuration errors.
var (
	// ErrMissingEnvVar is returned when a required environment variable is not set.
	ErrMissingEnvVar = errors.New("missing environment variable")

	// ErrUnsupportedFormat is returned for config files that are not YAML.
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)

// Config is the complete skycast configuration, shared by both services.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Cache configures the cache backend. An empty address selects the
	// in-memory backend.
	Cache CacheConfig `yaml:"cache"`

	// Flags configures the remote feature-flag source. An empty endpoint
	// selects the static local defaults.
	Flags FlagsConfig `yaml:"flags"`

	// Upstream configures the frontend's forecast API client.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Resilience configures the remote-call policy.
	Resilience ResilienceConfig `yaml:"resilience"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Address is the listen address (host:port).
	Address string `yaml:"address"`

	// ReadTimeout bounds request reads.
	ReadTimeout Duration `yaml:"read_timeout"`

	// WriteTimeout bounds response writes.
	WriteTimeout Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// CacheConfig configures the cache backend and the cache-aside service.
type CacheConfig struct {
	// Address is the Redis server address; empty means in-memory.
	Address string `yaml:"address"`

	// Password for authentication (optional).
	Password string `yaml:"password"`

	// DB selects the Redis database index.
	DB int `yaml:"db"`

	// KeyPrefix is prepended to all keys.
	KeyPrefix string `yaml:"key_prefix"`

	// TTL is the forecast entry time-to-live.
	TTL Duration `yaml:"ttl"`

	// WriteTimeout bounds fire-and-forget cache writes.
	WriteTimeout Duration `yaml:"write_timeout"`
}

// FlagsConfig configures the feature-flag source.
type FlagsConfig struct {
	// Endpoint is the remote config service URL; empty means local defaults.
	Endpoint string `yaml:"endpoint"`

	// Label selects the environment label used when fetching flags.
	Label string `yaml:"label"`

	// RefreshInterval is how often the snapshot is refreshed.
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// UpstreamConfig configures the frontend's forecast API client.
type UpstreamConfig struct {
	// URL is the forecast API base URL.
	URL string `yaml:"url"`
}

// ResilienceConfig configures the resilient remote caller.
type ResilienceConfig struct {
	// MaxAttempts is the total attempt budget for idempotent calls.
	MaxAttempts int `yaml:"max_attempts"`

	// InitialBackoff is the first retry delay.
	InitialBackoff Duration `yaml:"initial_backoff"`

	// BreakerThreshold is consecutive failures before the circuit opens.
	BreakerThreshold int `yaml:"breaker_threshold"`

	// BreakerCooldown is how long the circuit stays open.
	BreakerCooldown Duration `yaml:"breaker_cooldown"`

	// AttemptTimeout bounds each individual attempt.
	AttemptTimeout Duration `yaml:"attempt_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level.
	Level string `yaml:"level"`

	// Format is the output format (json or console).
	Format string `yaml:"format"`
}

// Default returns a configuration with sensible defaults for local use.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Cache: CacheConfig{
			KeyPrefix:    "skycast:",
			TTL:          Duration(5 * time.Minute),
			WriteTimeout: Duration(5 * time.Second),
		},
		Flags: FlagsConfig{
			Label:           "development",
			RefreshInterval: Duration(30 * time.Second),
		},
		Resilience: ResilienceConfig{
			MaxAttempts:      3,
			InitialBackoff:   Duration(200 * time.Millisecond),
			BreakerThreshold: 5,
			BreakerCooldown:  Duration(30 * time.Second),
			AttemptTimeout:   Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ApplyEnv overlays environment variable overrides onto the configuration.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv(EnvCacheAddr); v != "" {
		c.Cache.Address = v
	}
	if v := os.Getenv(EnvFlagsEndpoint); v != "" {
		c.Flags.Endpoint = v
	}
	if v := os.Getenv(EnvUpstreamURL); v != "" {
		c.Upstream.URL = v
	}
	if v := os.Getenv(EnvEnvironment); v != "" {
		c.Flags.Label = v
	}
}
