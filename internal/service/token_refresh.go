package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/observability/metrics"
	"github.com/tomobs/tom-portal/internal/observability/statsd"
	"github.com/tomobs/tom-portal/internal/ports"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRefreshTimeout = 10 * time.Second
	defaultRefreshSkew    = 60 * time.Second
)

var (
	errEmptySessionID   = errors.New("session ID is required")
	errNoRefreshToken   = errors.New("session has no refresh token")
	errSessionLoggedOut = errors.New("session ended during refresh")
)

// TokenRefresherOptions groups dependencies for TokenRefresher.
type TokenRefresherOptions struct {
	Sessions ports.SessionStore
	Issuer   ports.TokenIssuer
	Metrics  statsd.Sink
	Logger   *slog.Logger
	// Timeout bounds one shared refresh, independent of any caller's context.
	Timeout time.Duration
	// Skew is how long before expiry EnsureFresh starts refreshing.
	Skew time.Duration
	Now  func() time.Time
}

// TokenRefresher replaces a session's access token using its refresh token.
// Concurrent refreshes for one session share a single request to the issuer.
type TokenRefresher struct {
	sessions ports.SessionStore
	issuer   ports.TokenIssuer
	metrics  statsd.Sink
	logger   *slog.Logger
	timeout  time.Duration
	skew     time.Duration
	now      func() time.Time

	group singleflight.Group
}

// NewTokenRefresher constructs a TokenRefresher.
func NewTokenRefresher(opts TokenRefresherOptions) (*TokenRefresher, error) {
	if opts.Sessions == nil {
		return nil, errors.New("Sessions is required")
	}
	if opts.Issuer == nil {
		return nil, errors.New("Issuer is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	skew := opts.Skew
	if skew < 0 {
		skew = 0
	} else if skew == 0 {
		skew = defaultRefreshSkew
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &TokenRefresher{
		sessions: opts.Sessions,
		issuer:   opts.Issuer,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "token_refresher"),
		timeout:  timeout,
		skew:     skew,
		now:      now,
	}, nil
}

// MustNewTokenRefresher constructs a TokenRefresher and panics on error.
func MustNewTokenRefresher(opts TokenRefresherOptions) *TokenRefresher {
	r, err := NewTokenRefresher(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return r
}

// Refresh obtains a new access token for the session and stores it.
//
// Callers that arrive while a refresh for the same session is in flight wait
// for it and receive the same token or the same error. A caller whose ctx ends
// first gets ctx.Err(); the shared refresh still completes and is stored.
// Errors are *domainauth.AuthError.
func (r *TokenRefresher) Refresh(ctx context.Context, sessionID string) (string, error) {
	return r.refreshAfter(ctx, sessionID, "")
}

// refreshAfter is Refresh for a caller whose request was rejected with token.
// If the session already holds a different token, that token is returned
// without contacting the issuer.
func (r *TokenRefresher) refreshAfter(ctx context.Context, sessionID, rejected string) (string, error) {
	if sessionID == "" {
		return "", domainauth.NewAuthError(domainauth.KindUnauthorized, 0, errEmptySessionID)
	}

	start := r.now()
	leader := false
	ch := r.group.DoChan(sessionID, func() (any, error) {
		leader = true
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.refresh(flightCtx, sessionID, rejected)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		shared := !leader
		result := metrics.ResultSuccess
		if res.Err != nil {
			result = metrics.ResultError
		}
		metrics.EmitRefresh(r.metrics, metrics.RefreshMetric{
			Result:   result,
			Shared:   shared,
			Duration: r.now().Sub(start),
			Err:      res.Err,
		})
		if res.Err != nil {
			return "", res.Err
		}
		token, _ := res.Val.(string)
		return token, nil
	}
}

func (r *TokenRefresher) refresh(ctx context.Context, sessionID, rejected string) (string, error) {
	sess, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return "", domainauth.NewAuthError(domainauth.KindUnauthorized, 0, err)
		}
		return "", domainauth.NewAuthError(domainauth.KindUnknown, 0, fmt.Errorf("load session: %w", err))
	}

	creds := sess.Credentials
	if rejected != "" && creds.AccessToken != "" && creds.AccessToken != rejected {
		return creds.AccessToken, nil
	}
	if creds.RefreshToken == "" {
		return "", domainauth.NewAuthError(domainauth.KindUnauthorized, 0, errNoRefreshToken)
	}

	grant, err := r.issuer.RefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		if domainauth.KindOf(err) == "" {
			err = domainauth.NewAuthError(domainauth.KindUnknown, 0, err)
		}
		r.logger.WarnContext(ctx, "token refresh failed",
			"session_user", sess.Username,
			"kind", string(domainauth.KindOf(err)),
			"error", err)
		return "", err
	}

	sess.Credentials.AccessToken = grant.AccessToken
	sess.Credentials.Expiry = grant.Expiry
	if err := r.sessions.Update(ctx, sess); err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return "", domainauth.NewAuthError(domainauth.KindUnauthorized, 0, errSessionLoggedOut)
		}
		return "", domainauth.NewAuthError(domainauth.KindUnknown, 0, fmt.Errorf("store refreshed session: %w", err))
	}

	r.logger.DebugContext(ctx, "access token refreshed",
		"session_user", sess.Username,
		"expires_at", grant.Expiry)
	return grant.AccessToken, nil
}

// EnsureFresh returns the session's access token, refreshing it first when it
// is missing or expires within the configured skew.
func (r *TokenRefresher) EnsureFresh(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", domainauth.NewAuthError(domainauth.KindUnauthorized, 0, errEmptySessionID)
	}
	sess, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return "", domainauth.NewAuthError(domainauth.KindUnauthorized, 0, err)
		}
		return "", domainauth.NewAuthError(domainauth.KindUnknown, 0, fmt.Errorf("load session: %w", err))
	}
	if !sess.Credentials.NeedsRefresh(r.now(), r.skew) {
		return sess.Credentials.AccessToken, nil
	}
	return r.Refresh(ctx, sessionID)
}

// TokenSource returns a token source bound to one session, for the TOM API client.
func (r *TokenRefresher) TokenSource(sessionID string) *SessionTokenSource {
	return &SessionTokenSource{refresher: r, sessionID: sessionID}
}

// SessionTokenSource hands out a session's access token and refreshes it on demand.
// It is safe for concurrent use.
type SessionTokenSource struct {
	refresher *TokenRefresher
	sessionID string

	mu   sync.Mutex
	last string
}

// Token returns a fresh access token.
func (s *SessionTokenSource) Token(ctx context.Context) (string, error) {
	tok, err := s.refresher.EnsureFresh(ctx, s.sessionID)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.last = tok
	s.mu.Unlock()
	return tok, nil
}

// Refresh replaces the token last handed out, which the API rejected.
func (s *SessionTokenSource) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	rejected := s.last
	s.mu.Unlock()

	tok, err := s.refresher.refreshAfter(ctx, s.sessionID, rejected)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.last = tok
	s.mu.Unlock()
	return tok, nil
}
