package httpx

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"regexp"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      AuthServiceInterface
	Refresher SessionRefresher
	// Clients builds a TOM API client bound to one session's credentials.
	Clients ClientFactory
	Cookies CookieConfig
	// PublicURL is the portal's external origin, used for OAuth callbacks.
	PublicURL string
	// FallbackPath is where browsers land when their role may not open a page.
	FallbackPath string
	// Frontend serves the built single-page app; nil disables page routes.
	Frontend  fs.FS
	Readiness map[string]ReadinessCheck
	Logger    *slog.Logger
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	responder := &ErrorResponder{Sessions: services.Auth, Cookies: services.Cookies, Logger: services.Logger}
	authHandlers := &AuthHandlers{
		Svc:       services.Auth,
		Refresher: services.Refresher,
		Cookies:   services.Cookies,
		PublicURL: services.PublicURL,
		Errors:    responder,
		Logger:    services.Logger,
	}
	portal := &PortalHandlers{Clients: services.Clients, Errors: responder, Logger: services.Logger}
	gates := routeGates{sessions: services.Auth, fallback: services.FallbackPath}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(services.Readiness))

	registerAuthRoutes(mux, authHandlers, gates)
	registerTargetRoutes(mux, portal, gates)
	registerObservationRoutes(mux, portal, gates)
	registerLulinRoutes(mux, portal, gates)
	registerCatalogRoutes(mux, portal, gates)
	registerAPIFallback(mux)
	if services.Frontend != nil {
		registerFrontendRoutes(mux, services.Frontend, gates)
	}

	h := CSRFProtection(CSRFConfig{Cookies: services.Cookies})(mux)
	return BrowserDetection()(h)
}

// routeGates builds the auth middleware shared by route groups.
type routeGates struct {
	sessions SessionLoader
	fallback string
}

func (g routeGates) auth(h http.HandlerFunc) http.Handler {
	return RequireAuth(g.sessions)(h)
}

func (g routeGates) role(allowed domainauth.RoleSet, h http.Handler) http.Handler {
	return RequireRole(g.sessions, allowed, g.fallback)(h)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, g routeGates) {
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("GET /auth/providers", h.Providers)
	mux.HandleFunc("GET /auth/{provider}/login", h.SocialLogin)
	mux.HandleFunc("GET /auth/{provider}/callback", h.SocialCallback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.Handle("POST /auth/refresh", g.auth(h.Refresh))
}

func registerTargetRoutes(mux *http.ServeMux, h *PortalHandlers, g routeGates) {
	mux.Handle("GET /api/targets", g.auth(h.ListTargets))
	mux.Handle("POST /api/targets", g.auth(h.CreateTarget))
	mux.Handle("DELETE /api/targets", g.auth(h.DeleteTargets))
	mux.Handle("POST /api/targets/bulk", g.auth(h.BulkCreateTargets))
	mux.Handle("GET /api/targets/{id}", g.auth(h.GetTarget))
	mux.Handle("PUT /api/targets/{id}", g.auth(h.UpdateTarget))
	mux.Handle("DELETE /api/targets/{id}", g.auth(h.DeleteTarget))
	mux.Handle("GET /api/targets/{id}/simbad", g.auth(h.TargetSimbad))
	mux.Handle("GET /api/targets/{id}/sed", g.auth(h.TargetSED))
}

func registerObservationRoutes(mux *http.ServeMux, h *PortalHandlers, g routeGates) {
	mux.Handle("GET /api/observations", g.auth(h.ListObservations))
	mux.Handle("POST /api/observations", g.auth(h.CreateObservation))
	mux.Handle("DELETE /api/observations", g.auth(h.DeleteObservations))
	mux.Handle("GET /api/observations/stats", g.auth(h.ObservationStats))
	mux.Handle("GET /api/observations/{id}", g.auth(h.GetObservation))
	mux.Handle("PUT /api/observations/{id}", g.auth(h.UpdateObservation))
	mux.Handle("DELETE /api/observations/{id}", g.auth(h.DeleteObservation))
	mux.Handle("POST /api/observations/{id}/duplicate", g.auth(h.DuplicateObservation))
	mux.Handle("POST /api/observations/{id}/messages", g.auth(h.PostObservationMessage))
	mux.Handle("DELETE /api/comments/{id}", g.auth(h.DeleteComment))
}

// registerLulinRoutes serves Lulin runs and scripts. Runs live under
// /api/lulin-runs/ because /api/observations/lulin/{id} would conflict with
// /api/observations/{id}/lulin.
func registerLulinRoutes(mux *http.ServeMux, h *PortalHandlers, g routeGates) {
	mux.Handle("GET /api/observations/{id}/lulin", g.auth(h.ListLulinRuns))
	mux.Handle("POST /api/observations/{id}/lulin", g.auth(h.CreateLulinRun))
	mux.Handle("GET /api/observations/{id}/lulin/code", g.auth(h.LulinCode))
	mux.Handle("PUT /api/observations/{id}/lulin/code", g.auth(h.SaveLulinCode))
	mux.Handle("GET /api/lulin-runs/{id}", g.auth(h.GetLulinRun))
	mux.Handle("PUT /api/lulin-runs/{id}", g.auth(h.UpdateLulinRun))
	mux.Handle("DELETE /api/lulin-runs/{id}", g.auth(h.DeleteLulinRun))
	mux.Handle("GET /api/lulin/schedule", g.role(domainauth.LulinScheduleRoles(), http.HandlerFunc(h.LulinSchedule)))
}

func registerCatalogRoutes(mux *http.ServeMux, h *PortalHandlers, g routeGates) {
	mux.Handle("GET /api/tags", g.auth(h.ListTags))
	mux.Handle("POST /api/tags", g.auth(h.CreateTag))
	mux.Handle("GET /api/announcements", g.auth(h.ListAnnouncements))
	mux.Handle("POST /api/announcements", g.role(domainauth.AnnouncerRoles(), http.HandlerFunc(h.CreateAnnouncement)))
	mux.Handle("GET /api/etl-logs", g.role(domainauth.ETLLogRoles(), http.HandlerFunc(h.ETLLogs)))
	mux.Handle("GET /api/users", g.role(domainauth.UserAdminRoles(), http.HandlerFunc(h.ListUsers)))
	mux.Handle("PUT /api/users/{id}/role", g.role(domainauth.UserAdminRoles(), http.HandlerFunc(h.SetUserRole)))
	mux.Handle("GET /api/profile", g.auth(h.Profile))
	mux.Handle("PUT /api/profile", g.auth(h.UpdateProfile))
	mux.Handle("DELETE /api/profile", g.auth(h.DeleteAccount))
	mux.Handle("GET /api/dashboard", g.auth(h.Dashboard))
	mux.Handle("GET /api/layout", OptionalAuth(g.sessions)(http.HandlerFunc(h.Layout)))
}

// registerFrontendRoutes serves the single-page app. Restricted pages go
// through the same role gates as their API endpoints.
func registerFrontendRoutes(mux *http.ServeMux, frontend fs.FS, g routeGates) {
	spa := spaHandler(frontend)
	mux.Handle("GET /assets/", staticWithCacheHeaders(spa))
	mux.Handle("GET /login", spa)
	mux.Handle("GET /users", g.role(domainauth.UserAdminRoles(), spa))
	mux.Handle("GET /etl-logs", g.role(domainauth.ETLLogRoles(), spa))
	mux.Handle("GET /announcements/new", g.role(domainauth.AnnouncerRoles(), spa))
	mux.Handle("GET /lulin/schedule", g.role(domainauth.LulinScheduleRoles(), spa))
	mux.Handle("GET /", RequireAuth(g.sessions)(spa))
}

// apiFallbackMethods get a JSON 404 for unknown /api/ paths. A method-less
// "/api/" pattern would conflict with the frontend's "GET /".
var apiFallbackMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

func registerAPIFallback(mux *http.ServeMux) {
	for _, method := range apiFallbackMethods {
		mux.HandleFunc(method+" /api/", apiNotFound)
	}
}

func apiNotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("no such endpoint")})
}

// spaHandler serves files from frontend and falls back to index.html so the
// client-side router can resolve the path.
func spaHandler(frontend fs.FS) http.Handler {
	files := http.FileServerFS(frontend)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean(r.URL.Path)[1:]
		if name == "" {
			name = "."
		}
		if info, err := fs.Stat(frontend, name); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, frontend, "index.html")
	})
}

// hashedFilePattern matches content-hashed build outputs (app.abc123ef.js, styles.0badc0de.css.map).
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders caches content-hashed assets for a year and nothing else.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		handler.ServeHTTP(w, r)
	})
}
