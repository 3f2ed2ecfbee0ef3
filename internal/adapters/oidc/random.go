package oidc

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

func validateClient(clientID, clientSecret, redirectURL string) error {
	switch {
	case clientID == "":
		return errors.New("client ID is required")
	case clientSecret == "":
		return errors.New("client secret is required")
	case redirectURL == "":
		return errors.New("redirect URL is required")
	}
	return nil
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	// Enough bytes for at least length base64 characters.
	b := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
