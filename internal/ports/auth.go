package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
)

// AccessGrant is the result of exchanging a refresh token.
// Expiry is zero when the issuer did not say and the token carries no exp claim.
type AccessGrant struct {
	AccessToken string
	Expiry      time.Time
}

// TokenIssuer talks to the TOM API token endpoints.
// Failures are reported as *domainauth.AuthError.
type TokenIssuer interface {
	// ObtainToken exchanges username and password for a token pair.
	ObtainToken(ctx context.Context, username, password string) (domainauth.Credentials, error)

	// RefreshToken exchanges a refresh token for a new access token.
	RefreshToken(ctx context.Context, refreshToken string) (AccessGrant, error)

	// ExchangeSocialToken trades a social provider access token for a token pair.
	ExchangeSocialToken(ctx context.Context, provider, providerToken string) (domainauth.Credentials, error)

	// RevokeToken ends the upstream session for the given token pair.
	RevokeToken(ctx context.Context, creds domainauth.Credentials) error
}

// ProfileFetcher loads the user that owns an access token.
type ProfileFetcher interface {
	CurrentUser(ctx context.Context, accessToken string) (domainauth.Profile, error)
}

// BeginInput carries inputs for initiating a social login flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SocialProvider initiates and completes an OAuth2 flow against Google or GitHub.
type SocialProvider interface {
	// Name is the provider key used in routes and in the TOM API exchange ("google", "github").
	Name() string

	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the flow, verifying state and nonce, and returns the provider access token.
	Exchange(ctx context.Context, in ExchangeInput) (providerToken string, err error)
}

// ErrSessionNotFound is returned by SessionStore implementations for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	// Save creates or overwrites a session.
	Save(ctx context.Context, sess domainauth.Session) error
	// Update overwrites an existing session and returns ErrSessionNotFound if it is gone,
	// so a late refresh cannot resurrect a logged-out session.
	Update(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}
