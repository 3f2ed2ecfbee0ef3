package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/tomobs/tom-portal/config"
	httpx "github.com/tomobs/tom-portal/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config    *config.AppConfig
	Auth      AuthComponents
	Readiness map[string]httpx.ReadinessCheck
	Logger    *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig, errCh chan<- error) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	frontend, err := openFrontend(appCfg.HTTP.FrontendDir)
	if err != nil {
		return nil, err
	}

	handler := buildHTTPHandler(logger, httpx.RouterServices{
		Auth:         cfg.Auth.Service,
		Refresher:    cfg.Auth.Refresher,
		Clients:      cfg.Auth.ClientFactory(),
		Cookies:      httpx.CookieConfig{Domain: appCfg.Auth.CookieDomain, ForceSecure: appCfg.SecureCookies()},
		PublicURL:    appCfg.HTTP.PublicURL,
		FallbackPath: appCfg.Auth.FallbackPath,
		Frontend:     frontend,
		Readiness:    cfg.Readiness,
		Logger:       logger,
	})

	return startServer(logger, handler, appCfg.HTTP.Addr, errCh), nil
}

// openFrontend returns the built single-page app, or nil to serve the API only.
//
//nolint:ireturn // fs.FS is what the router consumes.
func openFrontend(dir string) (fs.FS, error) {
	if dir == "" {
		return nil, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("frontend dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("frontend dir %q is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func buildHTTPHandler(logger *slog.Logger, services httpx.RouterServices) http.Handler {
	// Order: Recover -> Logging -> Router
	h := httpx.NewRouter(services)
	h = httpx.Logging(logger)(h)
	h = httpx.Recover(logger)(h)
	return h
}

func startServer(logger *slog.Logger, handler http.Handler, addr string, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}
	return nil
}
