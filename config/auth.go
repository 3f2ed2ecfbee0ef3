package config

import (
	"strings"
	"time"
)

const (
	minSessionTTL     = 5 * time.Minute
	maxRefreshSkew    = 5 * time.Minute
	defaultFallback   = "/"
	defaultSessionTTL = 7 * 24 * time.Hour
)

// OAuthClientConfig holds one social login client registration.
// A provider is enabled only when both ID and secret are set.
type OAuthClientConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// Enabled reports whether the provider is configured.
func (c OAuthClientConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// AuthConfig groups session, token refresh and social login configuration.
type AuthConfig struct {
	// SessionTTL should match the TOM API refresh token lifetime.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// RefreshSkew is how close to expiry an access token gets refreshed ahead of use.
	RefreshSkew time.Duration `env:"TOKEN_REFRESH_SKEW" envDefault:"60s"`

	// RefreshTimeout bounds one shared refresh request.
	RefreshTimeout time.Duration `env:"TOKEN_REFRESH_TIMEOUT" envDefault:"10s"`

	// FallbackPath is where browsers land when their role may not open a page.
	FallbackPath string `env:"AUTH_FALLBACK_PATH" envDefault:"/"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure forces the Secure cookie flag on or off. Unset means
	// secure outside dev mode.
	CookieSecure *bool `env:"APP_COOKIE_SECURE"`

	Google OAuthClientConfig `envPrefix:"GOOGLE_OAUTH_"`
	GitHub OAuthClientConfig `envPrefix:"GITHUB_OAUTH_"`

	// GoogleIssuer overrides the OIDC discovery issuer, for tests and proxies.
	GoogleIssuer string `env:"GOOGLE_OAUTH_ISSUER"`
}

// Sanitize applies guardrails to auth configuration values.
func (c *AuthConfig) Sanitize() {
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.SessionTTL < minSessionTTL {
		c.SessionTTL = minSessionTTL
	}
	if c.RefreshSkew < 0 {
		c.RefreshSkew = 0
	}
	if c.RefreshSkew > maxRefreshSkew {
		c.RefreshSkew = maxRefreshSkew
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = 10 * time.Second
	}

	c.FallbackPath = strings.TrimSpace(c.FallbackPath)
	if !strings.HasPrefix(c.FallbackPath, "/") || strings.HasPrefix(c.FallbackPath, "//") {
		c.FallbackPath = defaultFallback
	}

	c.CookieDomain = strings.TrimSpace(c.CookieDomain)
	c.Google.ClientID = strings.TrimSpace(c.Google.ClientID)
	c.GitHub.ClientID = strings.TrimSpace(c.GitHub.ClientID)
}
