package tomapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/ports"
)

var _ ports.TokenIssuer = (*Client)(nil)

type tokenPairResponse struct {
	Access           string `json:"access"`
	Refresh          string `json:"refresh"`
	AccessExpiration string `json:"access_expiration,omitempty"`
}

type refreshResponse struct {
	Access           string `json:"access"`
	AccessExpiration string `json:"access_expiration,omitempty"`
}

var errEmptyAccess = errors.New("token endpoint returned no access token")

// ObtainToken exchanges username and password for a token pair.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (domainauth.Credentials, error) {
	var out tokenPairResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "api/login/",
		body:     map[string]string{"username": username, "password": password},
		resource: "login",
	}, &out)
	if err != nil {
		return domainauth.Credentials{}, asAuthError(err)
	}
	return out.credentials()
}

// RefreshToken exchanges a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (ports.AccessGrant, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return ports.AccessGrant{}, domainauth.NewAuthError(domainauth.KindUnauthorized, 0, errors.New("refresh token is empty"))
	}

	var out refreshResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "api/token/refresh/",
		body:     map[string]string{"refresh": refreshToken},
		resource: "token_refresh",
	}, &out)
	if err != nil {
		return ports.AccessGrant{}, asAuthError(err)
	}
	if out.Access == "" {
		return ports.AccessGrant{}, domainauth.NewAuthError(domainauth.KindUnknown, 0, errEmptyAccess)
	}
	return ports.AccessGrant{
		AccessToken: out.Access,
		Expiry:      resolveExpiry(out.AccessExpiration, out.Access),
	}, nil
}

// ExchangeSocialToken trades a Google or GitHub access token for a token pair.
func (c *Client) ExchangeSocialToken(ctx context.Context, provider, providerToken string) (domainauth.Credentials, error) {
	switch provider {
	case "google", "github":
	default:
		return domainauth.Credentials{}, domainauth.NewAuthError(domainauth.KindUnknown, 0, errors.New("unsupported provider: "+provider))
	}

	var out tokenPairResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "api/oauth/" + provider + "/",
		body:     map[string]string{"access_token": providerToken},
		resource: "oauth_" + provider,
	}, &out)
	if err != nil {
		return domainauth.Credentials{}, asAuthError(err)
	}
	return out.credentials()
}

// RevokeToken logs the token pair out of the TOM API, blacklisting the refresh token.
func (c *Client) RevokeToken(ctx context.Context, creds domainauth.Credentials) error {
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "api/logout/",
		body:     map[string]string{"refresh": creds.RefreshToken},
		bearer:   creds.AccessToken,
		resource: "logout",
	}, nil)
	return asAuthError(err)
}

func (r tokenPairResponse) credentials() (domainauth.Credentials, error) {
	if r.Access == "" {
		return domainauth.Credentials{}, domainauth.NewAuthError(domainauth.KindUnknown, 0, errEmptyAccess)
	}
	return domainauth.Credentials{
		AccessToken:  r.Access,
		RefreshToken: r.Refresh,
		Expiry:       resolveExpiry(r.AccessExpiration, r.Access),
	}, nil
}

// resolveExpiry prefers the endpoint's access_expiration and falls back to the token's exp claim.
func resolveExpiry(expiration, token string) time.Time {
	if expiration != "" {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
			if t, err := time.Parse(layout, expiration); err == nil {
				return t
			}
		}
	}
	if exp, ok := TokenExpiry(token); ok {
		return exp
	}
	return time.Time{}
}

// TokenExpiry reads the exp claim from a JWT without verifying its signature.
// The portal only uses it to schedule refreshes; the TOM API stays the authority.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
