// Package main provides the entry point for the skycast web frontend.
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

	"github.com/felixgeelhaar/skycast/infrastructure/client"
	"github.com/felixgeelhaar/skycast/infrastructure/config"
	"github.com/felixgeelhaar/skycast/infrastructure/flags"
	"github.com/felixgeelhaar/skycast/infrastructure/logging"
	"github.com/felixgeelhaar/skycast/infrastructure/resilience"
	"github.com/felixgeelhaar/skycast/infrastructure/telemetry"
	"github.com/felixgeelhaar/skycast/interfaces/web"
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

	upstream := client.New(cfg.Upstream.URL,
		client.WithLogger(log),
		client.WithMetrics(metrics),
		client.WithResilience(resilience.Config{
			MaxAttempts:      cfg.Resilience.MaxAttempts,
			InitialBackoff:   cfg.Resilience.InitialBackoff.Duration(),
			BreakerThreshold: cfg.Resilience.BreakerThreshold,
			BreakerCooldown:  cfg.Resilience.BreakerCooldown.Duration(),
			AttemptTimeout:   cfg.Resilience.AttemptTimeout.Duration(),
			Idempotent:       true,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var fetcher flags.Fetcher
	if cfg.Flags.Endpoint != "" {
		fetcher = flags.NewHTTPFetcher(cfg.Flags.Endpoint, cfg.Flags.Label)
	}
	resolver := flags.Initialize(ctx, fetcher,
		flags.WithRefreshInterval(cfg.Flags.RefreshInterval.Duration()),
	)
	defer resolver.Close()

	server := web.NewServer(cfg.Server.Address, upstream,
		web.WithLogger(log),
		web.WithFlags(resolver),
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
		Add(logging.Component("web")).
		Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
