package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomobs/tom-portal/internal/ports"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var _ ports.SocialProvider = (*GitHubProvider)(nil)

// GitHubProvider signs users in with GitHub's plain OAuth2 flow.
// GitHub issues no ID token, so there is no nonce.
type GitHubProvider struct {
	config *oauth2.Config
	client *http.Client
}

// GitHubConfig holds configuration for the GitHub provider.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint overrides github.Endpoint, for tests.
	Endpoint   *oauth2.Endpoint
	HTTPClient *http.Client
}

// NewGitHubProvider creates a GitHub provider.
func NewGitHubProvider(cfg GitHubConfig) (*GitHubProvider, error) {
	if err := validateClient(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL); err != nil {
		return nil, err
	}

	endpoint := github.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		client: httpClient,
	}, nil
}

// Name implements ports.SocialProvider.
func (p *GitHubProvider) Name() string { return "github" }

// Begin implements ports.SocialProvider. The returned nonce is always empty.
func (p *GitHubProvider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	return p.config.AuthCodeURL(state), state, "", nil
}

// Exchange trades the code for a GitHub access token.
func (p *GitHubProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (string, error) {
	if in.Code == "" {
		return "", errors.New("authorization code is required")
	}
	if in.State == "" {
		return "", errors.New("state is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return "", fmt.Errorf("exchange code for token: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("github returned no access token")
	}
	return token.AccessToken, nil
}
