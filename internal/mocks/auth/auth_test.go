package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/ports"
)

func TestMockSocialProvider_Begin(t *testing.T) {
	provider := NewMockSocialProvider("github")
	ctx := context.Background()

	authURL, state, nonce, err := provider.Begin(ctx, ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/github/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, _, err := provider.Begin(ctx, ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)

	tok, err := provider.Exchange(ctx, ports.ExchangeInput{Code: "abc", State: state})
	require.NoError(t, err)
	assert.Equal(t, "github-token-abc", tok)
}

func TestFakeTokenIssuer_LoginRefreshRevoke(t *testing.T) {
	issuer := NewFakeTokenIssuer()
	issuer.AddAccount("vega", "pw", domainauth.Profile{ID: 1, Role: domainauth.RoleUser, IsActive: true})
	ctx := context.Background()

	_, err := issuer.ObtainToken(ctx, "vega", "wrong")
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)

	creds, err := issuer.ObtainToken(ctx, "vega", "pw")
	require.NoError(t, err)
	assert.True(t, issuer.Valid(creds.AccessToken))

	profile, err := issuer.CurrentUser(ctx, creds.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "vega", profile.Username)

	grant, err := issuer.RefreshToken(ctx, creds.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, creds.AccessToken, grant.AccessToken)
	assert.Equal(t, 1, issuer.RefreshCalls())

	require.NoError(t, issuer.RevokeToken(ctx, creds))
	_, err = issuer.RefreshToken(ctx, creds.RefreshToken)
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)
}

func TestFakeTokenIssuer_ConcurrentUse(t *testing.T) {
	issuer := NewFakeTokenIssuer()
	issuer.RefreshDelay = 5 * time.Millisecond
	issuer.AddAccount("deneb", "pw", domainauth.Profile{ID: 2})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := issuer.RefreshToken(context.Background(), "refresh-deneb")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, issuer.RefreshCalls())
}
