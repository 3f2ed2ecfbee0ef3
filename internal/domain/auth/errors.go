package auth

import (
	"errors"
	"fmt"
)

// AuthErrorKind classifies why a token operation failed.
type AuthErrorKind string

const (
	// KindNetwork means no response was received.
	KindNetwork AuthErrorKind = "network_error"
	// KindUnauthorized means the refresh token (or credentials) were rejected.
	KindUnauthorized AuthErrorKind = "unauthorized"
	// KindUnknown covers any other non-2xx answer.
	KindUnknown AuthErrorKind = "unknown"
)

// Sentinels for errors.Is matching against an *AuthError.
var (
	ErrNetwork      = errors.New("auth: network error")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrUnknown      = errors.New("auth: unknown failure")
)

// AuthError is returned by token operations. Callers decide the policy:
// Unauthorized forces a logout, NetworkError may be retried.
type AuthError struct {
	Kind   AuthErrorKind
	Status int // HTTP status when a response was received
	Err    error
}

func (e *AuthError) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUnauthorized) match on kind.
func (e *AuthError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrUnknown:
		return e.Kind == KindUnknown
	}
	return false
}

// NewAuthError builds an AuthError.
func NewAuthError(kind AuthErrorKind, status int, err error) *AuthError {
	return &AuthError{Kind: kind, Status: status, Err: err}
}

// KindOf returns the kind of an AuthError in err's chain, or "" if none.
func KindOf(err error) AuthErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
