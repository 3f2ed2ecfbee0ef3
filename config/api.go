package config

import (
	"strings"
	"time"
)

// APIConfig describes how the portal reaches the TOM API.
type APIConfig struct {
	// BaseURL is the TOM API root, e.g. https://tom.example.edu/.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8000/"`

	// Timeout bounds a single upstream request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// AuthScheme prefixes the access token in the Authorization header.
	AuthScheme string `env:"AUTH_SCHEME" envDefault:"JWT"`
}

// Sanitize applies guardrails to API client configuration.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	if c.BaseURL != "" && !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	c.AuthScheme = strings.TrimSpace(c.AuthScheme)
	if c.AuthScheme == "" {
		c.AuthScheme = "JWT"
	}
}
