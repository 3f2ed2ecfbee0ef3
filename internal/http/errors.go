package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
)

const (
	errCodeReauthRequired      = "reauth_required"
	errCodeUpstreamUnavailable = "upstream_unavailable"
	errCodeUpstreamError       = "upstream_error"
)

// SessionTerminator ends a portal session.
type SessionTerminator interface {
	Logout(ctx context.Context, sessionID string) error
}

// fieldMessager is implemented by upstream errors that carry per-field messages.
type fieldMessager interface {
	FieldMessages() map[string][]string
}

// ErrorResponder turns service and upstream errors into JSON responses.
// Rejected TOM API credentials end the session so the browser re-authenticates.
type ErrorResponder struct {
	Sessions SessionTerminator
	Cookies  CookieConfig
	Logger   *slog.Logger
}

func (e *ErrorResponder) logger() *slog.Logger {
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Respond writes err to w.
func (e *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *domainauth.AuthError
	if errors.As(err, &authErr) {
		e.respondAuth(w, r, authErr)
		return
	}

	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// Client went away; nobody is reading the body.
		w.WriteHeader(apperrors.HTTPStatus(apperrors.ErrCodeCanceled))
		return
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		e.logger().ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: string(apperrors.ErrCodeInternal),
			Err:     errors.New("internal server error"),
		})
		return
	}

	status := apperrors.HTTPStatus(appErr.Code)
	params := ErrorParams{Code: status, ErrCode: string(appErr.Code), Err: err}
	var fm fieldMessager
	if errors.As(err, &fm) {
		params.Fields = fm.FieldMessages()
	}
	if appErr.Field != "" && params.Fields == nil {
		params.Fields = map[string][]string{appErr.Field: {appErr.Message}}
	}
	if status >= http.StatusInternalServerError {
		e.logger().WarnContext(r.Context(), "upstream call failed",
			"path", r.URL.Path, "code", string(appErr.Code), "error", err)
		if appErr.Code == apperrors.ErrCodeInternal {
			params.Err = errors.New("internal server error")
		}
	}
	WriteError(w, params)
}

// EndSession deletes the request's session and clears its cookie.
func (e *ErrorResponder) EndSession(w http.ResponseWriter, r *http.Request) {
	if s, ok := GetUserSessionFromContext(r.Context()); ok && e.Sessions != nil {
		if err := e.Sessions.Logout(r.Context(), s.ID); err != nil {
			e.logger().WarnContext(r.Context(), "ending session failed", "error", err)
		}
	}
	e.Cookies.clear(w, r, SessionCookieName)
}

func (e *ErrorResponder) respondAuth(w http.ResponseWriter, r *http.Request, authErr *domainauth.AuthError) {
	switch authErr.Kind {
	case domainauth.KindUnauthorized:
		e.EndSession(w, r)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: errCodeReauthRequired,
			Err:     errors.New("session expired, sign in again"),
		})
	case domainauth.KindNetwork:
		e.logger().WarnContext(r.Context(), "tom api unreachable", "path", r.URL.Path, "error", authErr)
		WriteError(w, ErrorParams{
			Code:    http.StatusBadGateway,
			ErrCode: errCodeUpstreamUnavailable,
			Err:     errors.New("observation service is unreachable, try again"),
		})
	default:
		e.logger().ErrorContext(r.Context(), "token operation failed", "path", r.URL.Path, "error", authErr)
		WriteError(w, ErrorParams{
			Code:    http.StatusBadGateway,
			ErrCode: errCodeUpstreamError,
			Err:     errors.New("observation service returned an unexpected response"),
		})
	}
}
