package oidc

// Package oidc provides the social login adapters (Google, GitHub) for the TOM portal.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/tomobs/tom-portal/internal/ports"
	"golang.org/x/oauth2"
)

// GoogleIssuer is Google's OIDC issuer.
const GoogleIssuer = "https://accounts.google.com"

var _ ports.SocialProvider = (*GoogleProvider)(nil)

// GoogleProvider signs users in with Google. The verified ID token is what
// the TOM API's Google login endpoint accepts.
type GoogleProvider struct {
	config   *oauth2.Config
	verifier *gooidc.IDTokenVerifier
	client   *http.Client
}

// GoogleConfig holds configuration for the Google provider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Issuer overrides GoogleIssuer, for tests.
	Issuer     string
	HTTPClient *http.Client
}

// NewGoogleProvider discovers Google's endpoints and keys.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	if err := validateClient(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	issuer := strings.TrimSuffix(firstNonEmpty(cfg.Issuer, GoogleIssuer), "/")

	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{gooidc.ScopeOpenID, "profile", "email"},
		Endpoint:     op.Endpoint(),
	}
	return newGoogleProvider(oauthCfg, op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}), httpClient), nil
}

func newGoogleProvider(cfg *oauth2.Config, verifier *gooidc.IDTokenVerifier, client *http.Client) *GoogleProvider {
	return &GoogleProvider{config: cfg, verifier: verifier, client: client}
}

// Name implements ports.SocialProvider.
func (p *GoogleProvider) Name() string { return "google" }

// Begin implements ports.SocialProvider.
func (p *GoogleProvider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri stays the configured one; it must match the console registration exactly.
	authURL := p.config.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange trades the code for tokens, verifies the ID token and its nonce,
// and returns the raw ID token.
func (p *GoogleProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (string, error) {
	if in.Code == "" {
		return "", errors.New("authorization code is required")
	}
	if in.State == "" {
		return "", errors.New("state is required")
	}
	if in.Nonce == "" {
		return "", errors.New("nonce is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return "", fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, err := getIDTokenFromToken(token)
	if err != nil {
		return "", err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return "", fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != in.Nonce {
		return "", errors.New("invalid nonce")
	}

	var claims googleClaims
	if err := idTok.Claims(&claims); err != nil {
		return "", fmt.Errorf("parse id_token claims: %w", err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return "", errors.New("google account has no verified email")
	}

	return rawID, nil
}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
