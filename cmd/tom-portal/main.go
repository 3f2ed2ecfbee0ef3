package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/tomobs/tom-portal/config"
	"github.com/tomobs/tom-portal/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logger := bootstrap.InitLogger(&cfg)
	logStartupInfo(ctx, logger, &cfg)

	if err := bootstrap.RunPortal(&cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting tom portal",
		"addr", cfg.HTTP.Addr,
		"tom_api", cfg.API.BaseURL,
		"redis_addr", cfg.Redis.Addr,
		"frontend", cfg.HTTP.FrontendDir != "",
		"dev", cfg.IsDev,
		"metrics", cfg.Observability.Metrics.IsEnabled())
}
