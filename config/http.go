package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// PublicURL is the portal's external origin (e.g., "https://portal.example.edu").
	// Used to build OAuth callback URLs; derived from the request when empty.
	PublicURL string `env:"APP_PUBLIC_URL" envDefault:""`

	// FrontendDir holds the built single-page app. Empty serves the JSON API only.
	FrontendDir string `env:"FRONTEND_DIR" envDefault:""`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	h.PublicURL = strings.TrimRight(strings.TrimSpace(h.PublicURL), "/")
	h.FrontendDir = strings.TrimSpace(h.FrontendDir)
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}
