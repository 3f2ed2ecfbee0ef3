package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomobs/tom-portal/config"
	httpx "github.com/tomobs/tom-portal/internal/http"
	"github.com/tomobs/tom-portal/internal/observability/statsd"
)

// RunPortal connects the portal's dependencies, serves HTTP and blocks until
// a shutdown signal arrives or the server fails.
func RunPortal(cfg *config.AppConfig, logger *slog.Logger) (err error) {
	if cfg == nil {
		return errors.New("app config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := buildMetrics(ctx, cfg.Observability, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := metrics.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close statsd client: %w", closeErr))
		}
	}()

	rdb, err := ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rdb.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close redis client: %w", closeErr))
		}
	}()

	auth, err := BuildAuth(ctx, AuthConfig{Config: cfg, RedisClient: rdb, Metrics: metrics, Logger: logger})
	if err != nil {
		return err
	}
	logger.Info("auth configured", "providers", auth.Service.Providers(), "tom_api", cfg.API.BaseURL)

	errCh := make(chan error, 1)
	server, err := StartHTTPServer(&HTTPServerConfig{
		Config:    cfg,
		Auth:      auth,
		Readiness: map[string]httpx.ReadinessCheck{"redis": redisReadiness(rdb)},
		Logger:    logger,
	}, errCh)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err = <-errCh:
		logger.Error("service error", "error", err)
	}

	// The signal context is already done; shutdown gets a fresh deadline.
	if stopErr := ShutdownHTTPServer(context.Background(), server, cfg.HTTP.ShutdownTimeout, logger); stopErr != nil {
		err = errors.Join(err, fmt.Errorf("shutdown http server: %w", stopErr))
	}
	return err
}

// buildMetrics returns a StatsD client, disabled unless metrics are configured.
func buildMetrics(ctx context.Context, cfg config.ObservabilityConfig, logger *slog.Logger) (*statsd.Client, error) {
	address := ""
	if cfg.Metrics.IsEnabled() {
		address = cfg.Metrics.StatsdAddress
	}
	client, err := statsd.NewClient(ctx, statsd.Config{
		Address: address,
		Prefix:  cfg.Metrics.Prefix,
		Tags:    cfg.Metrics.Tags(),
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("statsd client: %w", err)
	}
	return client, nil
}
