package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
)

func okHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := GetUserSessionFromContext(r.Context())
		assert.True(t, ok, "session should be in context")
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	svc := newFakeAuthService(testSession("sess-1", domainauth.RoleUser))
	handler := RequireAuth(svc)(okHandler(t))

	t.Run("valid session", func(t *testing.T) {
		rec := serve(t, handler, withSession(httptest.NewRequest(http.MethodGet, "/api/targets", nil), "sess-1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("api request without session", func(t *testing.T) {
		rec := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/targets", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "authentication_required")
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := serve(t, handler, withSession(httptest.NewRequest(http.MethodGet, "/api/targets", nil), "nope"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("browser without session goes to login", func(t *testing.T) {
		req := asBrowser(httptest.NewRequest(http.MethodGet, "/observations?page=2", nil))
		rec := serve(t, handler, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?redirect_uri=%2Fobservations%3Fpage%3D2", rec.Header().Get("Location"))
	})
}

func TestRequireRole(t *testing.T) {
	svc := newFakeAuthService(
		testSession("admin", domainauth.RoleAdmin),
		testSession("faculty", domainauth.RoleFaculty),
		testSession("user", domainauth.RoleUser),
	)
	handler := RequireRole(svc, domainauth.ElevatedRoles(), "/dashboard")(okHandler(t))

	tests := []struct {
		name         string
		session      string
		browser      bool
		wantStatus   int
		wantLocation string
	}{
		{name: "admin allowed", session: "admin", wantStatus: http.StatusOK},
		{name: "faculty allowed", session: "faculty", wantStatus: http.StatusOK},
		{name: "user via api is forbidden", session: "user", wantStatus: http.StatusForbidden},
		{
			name:         "user via browser is sent to fallback",
			session:      "user",
			browser:      true,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/dashboard",
		},
		{name: "no session via api", wantStatus: http.StatusUnauthorized},
		{
			name:         "no session via browser is sent to login, not fallback",
			browser:      true,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?redirect_uri=%2Fusers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/users"
			if tt.browser {
				path = "/users"
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.browser {
				req = asBrowser(req)
			}
			if tt.session != "" {
				req = withSession(req, tt.session)
			}

			rec := serve(t, handler, req)
			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	svc := newFakeAuthService(testSession("sess-1", domainauth.RoleVisitor))
	var sawSession bool
	handler := OptionalAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawSession = GetUserSessionFromContext(r.Context())
	}))

	serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/layout", nil))
	assert.False(t, sawSession)

	serve(t, handler, withSession(httptest.NewRequest(http.MethodGet, "/api/layout", nil), "sess-1"))
	assert.True(t, sawSession)
}

func TestIsBrowserRequest(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		xhr    bool
		want   bool
	}{
		{name: "api path", path: "/api/targets", accept: "text/html", want: false},
		{name: "html navigation", path: "/targets", accept: "text/html,*/*", want: true},
		{name: "json fetch", path: "/targets", accept: "application/json", want: false},
		{name: "no accept header", path: "/targets", want: true},
		{name: "xhr", path: "/targets", accept: "text/html", xhr: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.xhr {
				req.Header.Set("X-Requested-With", "XMLHttpRequest")
			}
			assert.Equal(t, tt.want, IsBrowserRequest(req))
		})
	}
}

func TestSafeRedirectPath(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/observations?page=2": "/observations?page=2",
		"https://evil.example": "/",
		"//evil.example/x":     "/",
		`/\evil.example`:       "/",
		"relative/path":        "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeRedirectPath(in), "input %q", in)
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/targets", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"internal"`)
}
