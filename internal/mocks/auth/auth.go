package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SocialProvider = (*MockSocialProvider)(nil)
	_ ports.TokenIssuer    = (*FakeTokenIssuer)(nil)
	_ ports.ProfileFetcher = (*FakeTokenIssuer)(nil)
)

// MockSocialProvider simulates Google or GitHub with deterministic state/nonce handling.
type MockSocialProvider struct {
	ProviderName string
	AuthURL      string
	StatePrefix  string
	NoncePrefix  string
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (string, error)

	callCount atomic.Int32
}

// NewMockSocialProvider creates a MockSocialProvider with sensible defaults.
func NewMockSocialProvider(name string) *MockSocialProvider {
	return &MockSocialProvider{
		ProviderName: name,
		AuthURL:      "https://mock-idp/" + name + "/auth",
		StatePrefix:  "state",
		NoncePrefix:  "nonce",
	}
}

func (m *MockSocialProvider) Name() string { return m.ProviderName }

func (m *MockSocialProvider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	n := m.callCount.Add(1)
	return m.AuthURL, fmt.Sprintf("%s-%d", m.StatePrefix, n), fmt.Sprintf("%s-%d", m.NoncePrefix, n), nil
}

func (m *MockSocialProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (string, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	if in.Code == "" {
		return "", errors.New("authorization code is required")
	}
	return m.ProviderName + "-token-" + in.Code, nil
}

// Account is a user known to FakeTokenIssuer.
type Account struct {
	Password string
	Profile  domainauth.Profile
}

// FakeTokenIssuer is an in-memory TOM API token service. Access tokens are
// "access-<username>-<n>" and refresh tokens "refresh-<username>".
type FakeTokenIssuer struct {
	// TTL is the lifetime stamped on issued access tokens.
	TTL time.Duration
	// RefreshDelay holds each refresh call open, for concurrency tests.
	RefreshDelay time.Duration
	// RefreshErr, when set, fails every refresh.
	RefreshErr error
	Now        func() time.Time

	mu       sync.Mutex
	accounts map[string]Account
	access   map[string]string // access token -> username
	revoked  map[string]bool   // refresh token -> revoked
	issued   int

	refreshCalls atomic.Int32
}

// NewFakeTokenIssuer creates an issuer with no accounts.
func NewFakeTokenIssuer() *FakeTokenIssuer {
	return &FakeTokenIssuer{
		TTL:      45 * time.Minute,
		Now:      time.Now,
		accounts: map[string]Account{},
		access:   map[string]string{},
		revoked:  map[string]bool{},
	}
}

// AddAccount registers a user.
func (f *FakeTokenIssuer) AddAccount(username, password string, profile domainauth.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile.Username = username
	f.accounts[username] = Account{Password: password, Profile: profile}
}

// RefreshCalls returns how many refresh requests reached the issuer.
func (f *FakeTokenIssuer) RefreshCalls() int { return int(f.refreshCalls.Load()) }

// ExpireAccess invalidates every access token issued so far.
func (f *FakeTokenIssuer) ExpireAccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = map[string]string{}
}

// Valid reports whether an access token is currently accepted.
func (f *FakeTokenIssuer) Valid(accessToken string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.access[accessToken]
	return ok
}

func (f *FakeTokenIssuer) ObtainToken(_ context.Context, username, password string) (domainauth.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[username]
	if !ok || acct.Password != password {
		return domainauth.Credentials{}, domainauth.NewAuthError(domainauth.KindUnauthorized, 400, errors.New("bad credentials"))
	}
	refresh := "refresh-" + username
	delete(f.revoked, refresh)
	return domainauth.Credentials{
		AccessToken:  f.issueLocked(username),
		RefreshToken: refresh,
		Expiry:       f.Now().Add(f.TTL),
	}, nil
}

func (f *FakeTokenIssuer) RefreshToken(ctx context.Context, refreshToken string) (ports.AccessGrant, error) {
	f.refreshCalls.Add(1)
	if f.RefreshDelay > 0 {
		select {
		case <-time.After(f.RefreshDelay):
		case <-ctx.Done():
			return ports.AccessGrant{}, domainauth.NewAuthError(domainauth.KindNetwork, 0, ctx.Err())
		}
	}
	if f.RefreshErr != nil {
		return ports.AccessGrant{}, f.RefreshErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	username, ok := f.usernameForRefreshLocked(refreshToken)
	if !ok {
		return ports.AccessGrant{}, domainauth.NewAuthError(domainauth.KindUnauthorized, 401, errors.New("token_not_valid"))
	}
	return ports.AccessGrant{AccessToken: f.issueLocked(username), Expiry: f.Now().Add(f.TTL)}, nil
}

func (f *FakeTokenIssuer) ExchangeSocialToken(_ context.Context, provider, providerToken string) (domainauth.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Social accounts are keyed "<provider>:<providerToken>".
	username := provider + ":" + providerToken
	if _, ok := f.accounts[username]; !ok {
		return domainauth.Credentials{}, domainauth.NewAuthError(domainauth.KindUnauthorized, 400, errors.New("unknown social account"))
	}
	return domainauth.Credentials{
		AccessToken:  f.issueLocked(username),
		RefreshToken: "refresh-" + username,
		Expiry:       f.Now().Add(f.TTL),
	}, nil
}

func (f *FakeTokenIssuer) RevokeToken(_ context.Context, creds domainauth.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.access, creds.AccessToken)
	f.revoked[creds.RefreshToken] = true
	return nil
}

func (f *FakeTokenIssuer) CurrentUser(_ context.Context, accessToken string) (domainauth.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	username, ok := f.access[accessToken]
	if !ok {
		return domainauth.Profile{}, domainauth.NewAuthError(domainauth.KindUnauthorized, 401, errors.New("invalid token"))
	}
	return f.accounts[username].Profile, nil
}

func (f *FakeTokenIssuer) issueLocked(username string) string {
	f.issued++
	tok := fmt.Sprintf("access-%s-%d", username, f.issued)
	f.access[tok] = username
	return tok
}

func (f *FakeTokenIssuer) usernameForRefreshLocked(refreshToken string) (string, bool) {
	if f.revoked[refreshToken] {
		return "", false
	}
	for username := range f.accounts {
		if "refresh-"+username == refreshToken {
			return username, true
		}
	}
	return "", false
}
