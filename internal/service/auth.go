package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
	"github.com/tomobs/tom-portal/internal/ports"
)

// DefaultSessionTTL matches the TOM API refresh token lifetime.
const DefaultSessionTTL = 6 * 24 * time.Hour

var (
	errSessionExpired = errors.New("session expired")
	// ErrInactiveAccount is returned when the TOM API account has not been activated.
	ErrInactiveAccount = apperrors.Forbidden("account is not activated")
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Issuer    ports.TokenIssuer
	Profiles  ports.ProfileFetcher
	Sessions  ports.SessionStore
	Providers []ports.SocialProvider
	// SessionTTL is how long a session lives; it should not exceed the refresh token lifetime.
	SessionTTL time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

// AuthService orchestrates sign-in flows by coordinating the TOM API token
// endpoints, social providers, and session persistence.
type AuthService struct {
	issuer     ports.TokenIssuer
	profiles   ports.ProfileFetcher
	sessions   ports.SessionStore
	providers  map[string]ports.SocialProvider
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	providers := make(map[string]ports.SocialProvider, len(opts.Providers))
	for _, p := range opts.Providers {
		if p != nil {
			providers[p.Name()] = p
		}
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		issuer:     opts.Issuer,
		profiles:   opts.Profiles,
		sessions:   opts.Sessions,
		providers:  providers,
		sessionTTL: ttl,
		logger:     logger.With("component", "auth_service"),
		now:        now,
	}
}

// Providers lists the configured social login providers.
func (s *AuthService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Login signs in with a TOM API username and password and opens a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domainauth.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.Validation("username and password are required")
	}

	creds, err := s.issuer.ObtainToken(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("obtain token: %w", err)
	}
	return s.openSession(ctx, creds)
}

// BeginLoginResult contains the result of beginning a social login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginSocialLogin starts a login flow with the named provider.
func (s *AuthService) BeginSocialLogin(ctx context.Context, provider, redirectURL string) (*BeginLoginResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, apperrors.NotFoundf("unknown login provider %q", provider)
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := p.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin %s auth flow: %w", provider, err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a social login flow.
type CompleteLoginInput struct {
	Provider string
	Code     string
	State    string
	Nonce    string
}

// CompleteSocialLogin exchanges the provider code, trades the provider token
// for TOM API tokens, and opens a session.
func (s *AuthService) CompleteSocialLogin(ctx context.Context, in CompleteLoginInput) (*domainauth.Session, error) {
	p, ok := s.providers[in.Provider]
	if !ok {
		return nil, apperrors.NotFoundf("unknown login provider %q", in.Provider)
	}
	if in.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if in.State == "" {
		return nil, errors.New("state parameter is required")
	}

	providerToken, err := p.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	creds, err := s.issuer.ExchangeSocialToken(ctx, p.Name(), providerToken)
	if err != nil {
		return nil, fmt.Errorf("exchange %s token: %w", p.Name(), err)
	}
	return s.openSession(ctx, creds)
}

func (s *AuthService) openSession(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
	profile, err := s.profiles.CurrentUser(ctx, creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !profile.IsActive {
		s.revoke(ctx, creds)
		return nil, ErrInactiveAccount
	}

	session := domainauth.Session{
		ID:          generateSessionID(),
		UserID:      profile.ID,
		Username:    profile.Username,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		Email:       profile.Email,
		Institute:   profile.Institute,
		Role:        profile.Role,
		Credentials: creds,
		ExpiresAt:   s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.InfoContext(ctx, "session opened",
		"user_id", profile.ID,
		"username", profile.Username,
		"role", profile.Role.String())
	return &session, nil
}

// GetSession retrieves a session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !s.now().Before(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session and, best effort, ends it upstream.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if session, err := s.sessions.Get(ctx, sessionID); err == nil {
		s.revoke(ctx, session.Credentials)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *AuthService) revoke(ctx context.Context, creds domainauth.Credentials) {
	if creds.AccessToken == "" {
		return
	}
	if err := s.issuer.RevokeToken(ctx, creds); err != nil {
		s.logger.WarnContext(ctx, "upstream logout failed", "error", err)
	}
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// UUIDv4 is URL-safe and carries 122 random bits.
	return uuid.NewString()
}
