package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
	"github.com/tomobs/tom-portal/internal/service"
)

const testCSRFToken = "test-csrf-token"

// fakeAuthService is an in-memory AuthServiceInterface.
type fakeAuthService struct {
	mu        sync.Mutex
	sessions  map[string]*domainauth.Session
	loggedOut []string

	loginFunc    func(ctx context.Context, username, password string) (*domainauth.Session, error)
	beginFunc    func(ctx context.Context, provider, redirectURL string) (*service.BeginLoginResult, error)
	completeFunc func(ctx context.Context, in service.CompleteLoginInput) (*domainauth.Session, error)
}

func newFakeAuthService(sessions ...*domainauth.Session) *fakeAuthService {
	f := &fakeAuthService{sessions: make(map[string]*domainauth.Session)}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeAuthService) Providers() []string { return []string{"github", "google"} }

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (*domainauth.Session, error) {
	if f.loginFunc != nil {
		return f.loginFunc(ctx, username, password)
	}
	return nil, apperrors.Internal("login not configured")
}

func (f *fakeAuthService) BeginSocialLogin(
	ctx context.Context,
	provider, redirectURL string,
) (*service.BeginLoginResult, error) {
	if f.beginFunc != nil {
		return f.beginFunc(ctx, provider, redirectURL)
	}
	return &service.BeginLoginResult{
		AuthURL: "https://accounts.example.com/auth?state=state-1",
		State:   "state-1",
		Nonce:   "nonce-1",
	}, nil
}

func (f *fakeAuthService) CompleteSocialLogin(
	ctx context.Context,
	in service.CompleteLoginInput,
) (*domainauth.Session, error) {
	if f.completeFunc != nil {
		return f.completeFunc(ctx, in)
	}
	return testSession("social-session", domainauth.RoleUser), nil
}

func (f *fakeAuthService) GetSession(_ context.Context, sessionID string) (*domainauth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperrors.NotFound("session not found")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeAuthService) Logout(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	f.loggedOut = append(f.loggedOut, sessionID)
	return nil
}

func (f *fakeAuthService) LoggedOut() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loggedOut...)
}

func testSession(id string, role domainauth.Role) *domainauth.Session {
	return &domainauth.Session{
		ID:        id,
		UserID:    42,
		Username:  "vega",
		Email:     "vega@example.org",
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
		Credentials: domainauth.Credentials{
			AccessToken:  "access",
			RefreshToken: "refresh",
		},
	}
}

// withSession attaches the session cookie.
func withSession(r *http.Request, sessionID string) *http.Request {
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	return r
}

// withCSRF attaches a matching CSRF cookie and header.
func withCSRF(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	r.Header.Set(DefaultCSRFHeaderName, testCSRFToken)
	return r
}

// asAPI marks a request as an XHR so middleware answers with JSON.
func asAPI(r *http.Request) *http.Request {
	r.Header.Set("Accept", "application/json")
	return r
}

// asBrowser marks a request as a page navigation.
func asBrowser(r *http.Request) *http.Request {
	r.Header.Set("Accept", "text/html,application/xhtml+xml")
	return r
}

func serve(t *testing.T, h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	resp := rec.Result()
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
