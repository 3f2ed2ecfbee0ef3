package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Providers() []string
	Login(ctx context.Context, username, password string) (*domainauth.Session, error)
	BeginSocialLogin(ctx context.Context, provider, redirectURL string) (*service.BeginLoginResult, error)
	CompleteSocialLogin(ctx context.Context, input service.CompleteLoginInput) (*domainauth.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// SessionRefresher renews a session's access token.
type SessionRefresher interface {
	Refresh(ctx context.Context, sessionID string) (string, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc       AuthServiceInterface
	Refresher SessionRefresher
	Cookies   CookieConfig
	// PublicURL is the externally visible origin used to build provider callback URLs.
	PublicURL string
	Errors    *ErrorResponder
	Logger    *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login signs in with TOM API credentials.
// POST /auth/login {"username","password"}.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	session, err := h.Svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domainauth.ErrUnauthorized) {
			WriteError(w, ErrorParams{
				Code:    http.StatusUnauthorized,
				ErrCode: "invalid_credentials",
				Err:     errors.New("invalid username or password"),
			})
			return
		}
		h.Errors.Respond(w, r, err)
		return
	}

	h.setSessionCookie(w, r, *session)
	WriteJSON(w, http.StatusOK, newStatusPayload(session))
}

// Providers lists the configured social login providers.
// GET /auth/providers.
func (h *AuthHandlers) Providers(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string][]string{"providers": h.Svc.Providers()})
}

// SocialLogin starts a provider login flow.
// GET /auth/{provider}/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) SocialLogin(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginSocialLogin(r.Context(), provider, h.callbackURL(r, provider))
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}

	h.Cookies.set(w, r, oauthStateCookie, result.State, oauthCookieLifetime)
	if result.Nonce != "" {
		h.Cookies.set(w, r, oauthNonceCookie, result.Nonce, oauthCookieLifetime)
	}
	h.Cookies.set(w, r, postLoginCookie, redirectURI, oauthCookieLifetime)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// SocialCallback completes a provider login flow.
// GET /auth/{provider}/callback?code=<code>&state=<state>.
func (h *AuthHandlers) SocialCallback(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		// The user declined consent or the provider failed; send them back to sign in.
		h.clearOAuthCookies(w, r)
		h.logger().InfoContext(r.Context(), "provider login aborted", "provider", provider, "error", providerErr)
		http.Redirect(w, r, LoginPath+"?error="+url.QueryEscape(providerErr), http.StatusFound)
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	var nonce string
	if nonceCookie, nonceErr := r.Cookie(oauthNonceCookie); nonceErr == nil {
		nonce = nonceCookie.Value
	}

	session, err := h.Svc.CompleteSocialLogin(r.Context(), service.CompleteLoginInput{
		Provider: provider,
		Code:     code,
		State:    state,
		Nonce:    nonce,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "provider login failed", "provider", provider, "error", err)
		h.Errors.Respond(w, r, err)
		return
	}

	redirectURI := h.getPostLoginRedirect(r)
	h.clearOAuthCookies(w, r)
	h.setSessionCookie(w, r, *session)
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if id := sessionIDFromRequest(r); id != "" {
		if err := h.Svc.Logout(r.Context(), id); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.Cookies.clear(w, r, SessionCookieName)

	if IsBrowserRequest(r) {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "success",
		"redirect_to": LoginPath,
	})
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	id := sessionIDFromRequest(r)
	if id == "" {
		WriteJSON(w, http.StatusOK, statusPayload{Authenticated: false})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), id)
	if err != nil {
		// Session is invalid or expired, clear the cookie
		h.Cookies.clear(w, r, SessionCookieName)
		WriteJSON(w, http.StatusOK, statusPayload{Authenticated: false})
		return
	}
	WriteJSON(w, http.StatusOK, newStatusPayload(session))
}

// Refresh renews the session's access token ahead of expiry.
// POST /auth/refresh (requires a session).
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		denyUnauthenticated(w, r)
		return
	}
	if _, err := h.Refresher.Refresh(r.Context(), session.ID); err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"refreshed": true})
}

type statusUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Institute string `json:"institute"`
	Role      int    `json:"role"`
	RoleName  string `json:"role_name"`
}

type statusPayload struct {
	Authenticated bool        `json:"authenticated"`
	User          *statusUser `json:"user,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
}

func newStatusPayload(s *domainauth.Session) statusPayload {
	expires := s.ExpiresAt
	return statusPayload{
		Authenticated: true,
		User: &statusUser{
			ID:        s.UserID,
			Username:  s.Username,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Email:     s.Email,
			Institute: s.Institute,
			Role:      int(s.Role),
			RoleName:  s.Role.String(),
		},
		ExpiresAt: &expires,
	}
}

func (h *AuthHandlers) callbackURL(r *http.Request, provider string) string {
	base := strings.TrimRight(h.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if h.Cookies.secure(r) {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return CallbackURL(base, provider)
}

// CallbackURL is the OAuth redirect URI registered for provider under origin.
func CallbackURL(origin, provider string) string {
	return strings.TrimRight(origin, "/") + "/auth/" + url.PathEscape(provider) + "/callback"
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	h.Cookies.set(w, r, SessionCookieName, s.ID, time.Until(s.ExpiresAt))
}

func (h *AuthHandlers) clearOAuthCookies(w http.ResponseWriter, r *http.Request) {
	h.Cookies.clear(w, r, oauthStateCookie)
	h.Cookies.clear(w, r, oauthNonceCookie)
	h.Cookies.clear(w, r, postLoginCookie)
}

// getPostLoginRedirect returns the validated post-login destination.
func (h *AuthHandlers) getPostLoginRedirect(r *http.Request) string {
	c, err := r.Cookie(postLoginCookie)
	if err != nil {
		return "/"
	}
	return safeRedirectPath(c.Value)
}
