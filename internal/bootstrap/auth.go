package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/tomobs/tom-portal/config"
	"github.com/tomobs/tom-portal/internal/adapters/oidc"
	redisadapter "github.com/tomobs/tom-portal/internal/adapters/redis"
	"github.com/tomobs/tom-portal/internal/adapters/tomapi"
	httpx "github.com/tomobs/tom-portal/internal/http"
	"github.com/tomobs/tom-portal/internal/observability/statsd"
	"github.com/tomobs/tom-portal/internal/ports"
	"github.com/tomobs/tom-portal/internal/service"
)

// AuthConfig contains dependencies for the auth components.
type AuthConfig struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// AuthComponents is everything the portal needs to sign users in and act for them.
type AuthComponents struct {
	API       *tomapi.Client
	Service   *service.AuthService
	Refresher *service.TokenRefresher
}

// ClientFactory binds the shared TOM API client to one session's tokens.
func (a AuthComponents) ClientFactory() httpx.ClientFactory {
	return func(sessionID string) httpx.PortalAPI {
		return a.API.WithTokenSource(a.Refresher.TokenSource(sessionID))
	}
}

// BuildAuth wires the TOM API client, session store, refresher and social providers.
func BuildAuth(ctx context.Context, cfg AuthConfig) (AuthComponents, error) {
	if cfg.Config == nil {
		return AuthComponents{}, errors.New("app config is required")
	}
	if cfg.RedisClient == nil {
		return AuthComponents{}, errors.New("redis client is required for sessions")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	api, err := tomapi.New(tomapi.Config{
		BaseURL:    appCfg.API.BaseURL,
		Timeout:    appCfg.API.Timeout,
		AuthScheme: appCfg.API.AuthScheme,
		Metrics:    cfg.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("tom api client: %w", err)
	}

	sessions := redisadapter.NewSessionStore(cfg.RedisClient, redisadapter.SessionStoreOptions{
		Prefix: appCfg.Redis.Prefix,
	})

	refresher, err := service.NewTokenRefresher(service.TokenRefresherOptions{
		Sessions: sessions,
		Issuer:   api,
		Metrics:  cfg.Metrics,
		Logger:   logger,
		Timeout:  appCfg.Auth.RefreshTimeout,
		Skew:     appCfg.Auth.RefreshSkew,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("token refresher: %w", err)
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Issuer:     api,
		Profiles:   api,
		Sessions:   sessions,
		Providers:  buildSocialProviders(ctx, appCfg, logger),
		SessionTTL: appCfg.Auth.SessionTTL,
		Logger:     logger,
	})

	return AuthComponents{API: api, Service: svc, Refresher: refresher}, nil
}

// buildSocialProviders enables each configured provider. A provider that
// fails to initialise is logged and skipped so password login keeps working.
func buildSocialProviders(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) []ports.SocialProvider {
	auth := cfg.Auth
	if !auth.Google.Enabled() && !auth.GitHub.Enabled() {
		return nil
	}
	if cfg.HTTP.PublicURL == "" {
		logger.Warn("social login disabled: APP_PUBLIC_URL is required for OAuth callbacks")
		return nil
	}

	var providers []ports.SocialProvider
	if auth.Google.Enabled() {
		p, err := oidc.NewGoogleProvider(ctx, oidc.GoogleConfig{
			ClientID:     auth.Google.ClientID,
			ClientSecret: auth.Google.ClientSecret,
			RedirectURL:  httpx.CallbackURL(cfg.HTTP.PublicURL, "google"),
			Issuer:       auth.GoogleIssuer,
		})
		if err != nil {
			logger.Warn("google login disabled", "error", err)
		} else {
			providers = append(providers, p)
		}
	}
	if auth.GitHub.Enabled() {
		p, err := oidc.NewGitHubProvider(oidc.GitHubConfig{
			ClientID:     auth.GitHub.ClientID,
			ClientSecret: auth.GitHub.ClientSecret,
			RedirectURL:  httpx.CallbackURL(cfg.HTTP.PublicURL, "github"),
		})
		if err != nil {
			logger.Warn("github login disabled", "error", err)
		} else {
			providers = append(providers, p)
		}
	}
	return providers
}
