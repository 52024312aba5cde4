// Package main provides the entry point for the skycast forecast API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/skycast/application"
	domaincache "github.com/felixgeelhaar/skycast/domain/cache"
	"github.com/felixgeelhaar/skycast/infrastructure/cache"
	"github.com/felixgeelhaar/skycast/infrastructure/config"
	"github.com/felixgeelhaar/skycast/infrastructure/flags"
	"github.com/felixgeelhaar/skycast/infrastructure/logging"
	"github.com/felixgeelhaar/skycast/infrastructure/storage/memory"
	"github.com/felixgeelhaar/skycast/infrastructure/storage/redis"
	"github.com/felixgeelhaar/skycast/infrastructure/telemetry"
	"github.com/felixgeelhaar/skycast/interfaces/api"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	log := logging.Get()

	metrics := telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())

	backend := newCacheBackend(cfg)
	defer closeBackend(backend)

	resilient := cache.NewResilient(backend,
		cache.WithLogger(log),
		cache.WithMetrics(metrics),
	)

	service := application.NewService(resilient,
		application.WithLogger(log),
		application.WithMetrics(metrics),
		application.WithTTL(cfg.Cache.TTL.Duration()),
		application.WithWriteTimeout(cfg.Cache.WriteTimeout.Duration()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := newFlagResolver(ctx, cfg)
	defer resolver.Close()

	server := api.NewServer(cfg.Server.Address, service,
		api.WithLogger(log),
		api.WithMetrics(metrics),
		api.WithFlags(resolver),
		api.WithHealthCheck(api.HealthCheck{Name: "cache", Check: cacheHealth(backend)}),
		api.WithHealthCheck(api.HealthCheck{Name: "flags", Check: flagsHealth(resolver)}),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logging.NewEvent(log.Info()).
		Add(logging.Component("api")).
		Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newCacheBackend dials Redis when an address is configured, falling back to
// the in-memory cache if the backend is unreachable at startup. The service
// starts either way.
func newCacheBackend(cfg config.Config) domaincache.Cache {
	log := logging.Get()

	if cfg.Cache.Address == "" {
		logging.NewEvent(log.Info()).
			Add(logging.Backend("memory")).
			Msg("using in-memory cache")
		return memory.NewCache()
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.Address = cfg.Cache.Address
	redisCfg.Password = cfg.Cache.Password
	redisCfg.DB = cfg.Cache.DB
	if cfg.Cache.KeyPrefix != "" {
		redisCfg.KeyPrefix = cfg.Cache.KeyPrefix
	}

	backend, err := redis.NewCache(redisCfg)
	if err != nil {
		logging.NewEvent(log.Warn()).
			Add(logging.Backend("redis")).
			Add(logging.Str("addr", cfg.Cache.Address)).
			Add(logging.ErrorField(err)).
			Msg("cache backend unreachable, falling back to in-memory")
		return memory.NewCache()
	}

	logging.NewEvent(log.Info()).
		Add(logging.Backend("redis")).
		Add(logging.Str("addr", cfg.Cache.Address)).
		Msg("using redis cache")
	return backend
}

func closeBackend(backend domaincache.Cache) {
	if closer, ok := backend.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

// newFlagResolver starts flag resolution against the configured endpoint, or
// serves local defaults when none is set. It never fails.
func newFlagResolver(ctx context.Context, cfg config.Config) *flags.Resolver {
	var fetcher flags.Fetcher
	if cfg.Flags.Endpoint != "" {
		fetcher = flags.NewHTTPFetcher(cfg.Flags.Endpoint, cfg.Flags.Label)
	}

	return flags.Initialize(ctx, fetcher,
		flags.WithRefreshInterval(cfg.Flags.RefreshInterval.Duration()),
	)
}

func cacheHealth(backend domaincache.Cache) func(context.Context) string {
	return func(ctx context.Context) string {
		pinger, ok := backend.(domaincache.Pinger)
		if !ok {
			return "ok"
		}
		if err := pinger.Ping(ctx); err != nil {
			return "unreachable"
		}
		return "ok"
	}
}

func flagsHealth(resolver *flags.Resolver) func(context.Context) string {
	return func(ctx context.Context) string {
		return resolver.Snapshot().Source
	}
}
