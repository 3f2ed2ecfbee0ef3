// Package testutil provides testing utilities and helpers for the TOM portal.
package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
)

// SessionBuilder provides a fluent interface for building sessions for testing.
type SessionBuilder struct {
	sess domainauth.Session
}

// NewSession creates a new SessionBuilder with sensible defaults.
func NewSession() *SessionBuilder {
	return &SessionBuilder{
		sess: domainauth.Session{
			ID:        "sess-1",
			UserID:    7,
			Username:  "observer",
			FirstName: "Ada",
			LastName:  "Observer",
			Email:     "observer@example.org",
			Institute: "NCU",
			Role:      domainauth.RoleUser,
			Credentials: domainauth.Credentials{
				AccessToken:  "access-0",
				RefreshToken: "refresh-0",
			},
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

// WithID sets the session ID.
func (b *SessionBuilder) WithID(id string) *SessionBuilder {
	b.sess.ID = id
	return b
}

// WithRole sets the user role.
func (b *SessionBuilder) WithRole(role domainauth.Role) *SessionBuilder {
	b.sess.Role = role
	return b
}

// WithTokens sets the access and refresh tokens.
func (b *SessionBuilder) WithTokens(access, refresh string) *SessionBuilder {
	b.sess.Credentials.AccessToken = access
	b.sess.Credentials.RefreshToken = refresh
	return b
}

// WithAccessExpiry sets the access token expiry.
func (b *SessionBuilder) WithAccessExpiry(exp time.Time) *SessionBuilder {
	b.sess.Credentials.Expiry = exp
	return b
}

// WithExpiresAt sets when the session itself expires.
func (b *SessionBuilder) WithExpiresAt(exp time.Time) *SessionBuilder {
	b.sess.ExpiresAt = exp
	return b
}

// Build returns the session.
func (b *SessionBuilder) Build() domainauth.Session {
	return b.sess
}

// SignedAccessToken returns an HS256 token whose exp claim is the given time.
// The portal never verifies signatures, so the key is irrelevant.
func SignedAccessToken(exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"token_type": "access",
		"exp":        exp.Unix(),
		"user_id":    7,
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return s
}
