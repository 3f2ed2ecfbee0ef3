package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/domain/model"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
	"github.com/tomobs/tom-portal/internal/http/ui/viewmodel"
)

// fakePortal overrides the calls a test needs; anything else panics on the nil embedded interface.
type fakePortal struct {
	PortalAPI

	mu        sync.Mutex
	calls     []string
	targets   func(f model.TargetFilter) (model.Page[model.Target], error)
	obs       func(f model.ObservationFilter) (model.Page[model.Observation], error)
	deleted   []int64
	createErr error
	stats     model.ObservationStats
	statsErr  error
	etlLogs   []model.ETLLog
	roleSet   map[int64]domainauth.Role

	messages      []string
	savedCode     map[int64]string
	scheduleStart time.Time
	scheduleEnd   time.Time
	deletedUsers  []int64
}

func (f *fakePortal) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakePortal) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakePortal) ListTargets(_ context.Context, filter model.TargetFilter) (model.Page[model.Target], error) {
	f.record("ListTargets")
	return f.targets(filter)
}

func (f *fakePortal) CreateTarget(_ context.Context, in model.TargetCreate) (model.Target, error) {
	f.record("CreateTarget")
	if f.createErr != nil {
		return model.Target{}, f.createErr
	}
	return model.Target{ID: 9, Name: in.Name, RA: in.RA, Dec: in.Dec}, nil
}

func (f *fakePortal) DeleteTargets(_ context.Context, ids []int64) error {
	f.record("DeleteTargets")
	f.deleted = ids
	return nil
}

func (f *fakePortal) ListObservations(_ context.Context, filter model.ObservationFilter) (model.Page[model.Observation], error) {
	f.record("ListObservations")
	return f.obs(filter)
}

func (f *fakePortal) ListAnnouncements(context.Context) ([]model.Announcement, error) {
	f.record("ListAnnouncements")
	return []model.Announcement{{ID: 1, Title: "Dome maintenance", Context: "Closed Friday"}}, nil
}

func (f *fakePortal) ObservationStats(context.Context) (model.ObservationStats, error) {
	f.record("ObservationStats")
	return f.stats, f.statsErr
}

func (f *fakePortal) ETLLogs(context.Context) ([]model.ETLLog, error) {
	f.record("ETLLogs")
	return f.etlLogs, nil
}

func (f *fakePortal) SetUserRole(_ context.Context, id int64, role domainauth.Role) (model.User, error) {
	f.record("SetUserRole")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleSet == nil {
		f.roleSet = map[int64]domainauth.Role{}
	}
	f.roleSet[id] = role
	return model.User{ID: id, Role: int(role)}, nil
}

type portalFixture struct {
	auth    *fakeAuthService
	api     *fakePortal
	handler *PortalHandlers
}

func newPortalFixture(role domainauth.Role) *portalFixture {
	auth := newFakeAuthService(testSession("sess-1", role))
	api := &fakePortal{}
	return &portalFixture{
		auth: auth,
		api:  api,
		handler: &PortalHandlers{
			Clients: func(sessionID string) PortalAPI { return api },
			Errors:  &ErrorResponder{Sessions: auth, Logger: discardLogger()},
			Logger:  discardLogger(),
		},
	}
}

// do runs fn behind RequireAuth, registered on pattern, with the fixture's session.
func (f *portalFixture) do(t *testing.T, pattern string, fn http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(pattern, RequireAuth(f.auth)(fn))
	return serve(t, mux, withSession(asAPI(req), "sess-1"))
}

func TestListTargets_ForwardsFilterAndBuildsPagination(t *testing.T) {
	f := newPortalFixture(domainauth.RoleUser)
	var got model.TargetFilter
	f.api.targets = func(filter model.TargetFilter) (model.Page[model.Target], error) {
		got = filter
		return model.Page[model.Target]{
			Count:   100,
			Current: 5,
			Total:   10,
			Results: []model.Target{{ID: 1, Name: "M31"}},
		}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/targets?page=5&page_size=500&name=M31&tags=1,2&tags=3", nil)
	rec := f.do(t, "GET /api/targets", f.handler.ListTargets, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, got.Page)
	assert.Equal(t, model.MaxPageSize, got.PageSize)
	assert.Equal(t, "M31", got.Name)
	assert.Equal(t, []int64{1, 2, 3}, got.Tags)

	var body listResponse[model.Target]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, 5, body.Pagination.Page)
	assert.Equal(t, 10, body.Pagination.TotalPages)
	assert.True(t, body.Pagination.HasPrev)
	assert.True(t, body.Pagination.HasNext)

	var rendered []string
	for _, c := range body.Pagination.Controls {
		if c.Kind == viewmodel.ControlEllipsis {
			rendered = append(rendered, "...")
			continue
		}
		rendered = append(rendered, c.URL)
	}
	assert.Len(t, rendered, 7)
	assert.Equal(t, "...", rendered[1])
	assert.Equal(t, "...", rendered[5])
	assert.Contains(t, rendered[3], "page=5")
	assert.Contains(t, rendered[3], "name=M31")
}

func TestListTargets_DerivesPageCountFromTotalCount(t *testing.T) {
	f := newPortalFixture(domainauth.RoleUser)
	f.api.targets = func(model.TargetFilter) (model.Page[model.Target], error) {
		return model.Page[model.Target]{Count: 21, Results: []model.Target{}}, nil
	}

	rec := f.do(t, "GET /api/targets", f.handler.ListTargets, httptest.NewRequest(http.MethodGet, "/api/targets", nil))

	var body listResponse[model.Target]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Pagination.TotalPages)
	assert.Len(t, body.Pagination.Controls, 3)
	assert.NotNil(t, body.Results)
}

func TestListTargets_InvalidTags(t *testing.T) {
	f := newPortalFixture(domainauth.RoleUser)
	rec := f.do(t, "GET /api/targets", f.handler.ListTargets, httptest.NewRequest(http.MethodGet, "/api/targets?tags=1,x", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tags"`)
	assert.False(t, f.api.called("ListTargets"))
}

func TestListObservations_LabelsAndFilters(t *testing.T) {
	f := newPortalFixture(domainauth.RoleUser)
	var got model.ObservationFilter
	f.api.obs = func(filter model.ObservationFilter) (model.Page[model.Observation], error) {
		got = filter
		return model.Page[model.Observation]{
			Count: 1, Current: 1, Total: 1,
			Results: []model.Observation{{ID: 3, Status: model.StatusInProgress, Priority: model.PriorityToO}},
		}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/observations?status=2,3&users=7", nil)
	rec := f.do(t, "GET /api/observations", f.handler.ListObservations, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []model.ObservationStatus{model.StatusPending, model.StatusInProgress}, got.Status)
	assert.Equal(t, []int64{7}, got.Users)
	assert.Contains(t, rec.Body.String(), `"status_label":"In progress"`)
	assert.Contains(t, rec.Body.String(), `"priority_label":"TOO"`)
}

func TestCreateTarget(t *testing.T) {
	t.Run("validated locally", func(t *testing.T) {
		f := newPortalFixture(domainauth.RoleUser)
		req := httptest.NewRequest(http.MethodPost, "/api/targets", strings.NewReader(`{"name":"M31","ra":400,"dec":0}`))
		rec := f.do(t, "POST /api/targets", f.handler.CreateTarget, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "ra must be")
		assert.False(t, f.api.called("CreateTarget"))
	})

	t.Run("created", func(t *testing.T) {
		f := newPortalFixture(domainauth.RoleUser)
		req := httptest.NewRequest(http.MethodPost, "/api/targets", strings.NewReader(`{"name":"M31","ra":10.68,"dec":41.27}`))
		rec := f.do(t, "POST /api/targets", f.handler.CreateTarget, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":9`)
	})

	t.Run("upstream field errors are passed through", func(t *testing.T) {
		f := newPortalFixture(domainauth.RoleUser)
		f.api.createErr = apperrors.Wrap(&stubFieldError{fields: map[string][]string{
			"name": {"target with this name already exists."},
		}}, apperrors.ErrCodeValidation, "tom api rejected request")
		req := httptest.NewRequest(http.MethodPost, "/api/targets", strings.NewReader(`{"name":"M31","ra":10.68,"dec":41.27}`))
		rec := f.do(t, "POST /api/targets", f.handler.CreateTarget, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "validation", body.Error)
		assert.Equal(t, []string{"target with this name already exists."}, body.Fields["name"])
	})
}

type stubFieldError struct{ fields map[string][]string }

func (e *stubFieldError) Error() string                      { return "field errors" }
func (e *stubFieldError) FieldMessages() map[string][]string { return e.fields }

func TestDeleteTargets(t *testing.T) {
	f := newPortalFixture(domainauth.RoleUser)

	rec := f.do(t, "DELETE /api/targets", f.handler.DeleteTargets,
		httptest.NewRequest(http.MethodDelete, "/api/targets", strings.NewReader(`{"ids":[4,5]}`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{4, 5}, f.api.deleted)

	rec = f.do(t, "DELETE /api/targets", f.handler.DeleteTargets,
		httptest.NewRequest(http.MethodDelete, "/api/targets", strings.NewReader(`{"ids":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpstreamRejectionRequiresReauth(t *testing.T) {
	f := newPortalFixture(domainauth.RoleUser)
	f.api.targets = func(model.TargetFilter) (model.Page[model.Target], error) {
		return model.Page[model.Target]{}, domainauth.NewAuthError(domainauth.KindUnauthorized, http.StatusUnauthorized, errors.New("token not valid"))
	}

	rec := f.do(t, "GET /api/targets", f.handler.ListTargets, httptest.NewRequest(http.MethodGet, "/api/targets", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "reauth_required")
	assert.Equal(t, []string{"sess-1"}, f.auth.LoggedOut())
	cookie := findCookie(rec, SessionCookieName)
	require.NotNil(t, cookie)
	assert.Negative(t, cookie.MaxAge)
}

func TestUpstreamStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: apperrors.NotFound("no such target"), want: http.StatusNotFound},
		{name: "forbidden", err: apperrors.Forbidden("not yours"), want: http.StatusForbidden},
		{name: "unavailable", err: apperrors.Wrap(errors.New("dial"), apperrors.ErrCodeUnavailable, "tom api"), want: http.StatusBadGateway},
		{name: "timeout", err: apperrors.Wrap(context.DeadlineExceeded, apperrors.ErrCodeTimeout, "tom api"), want: http.StatusGatewayTimeout},
		{name: "untyped", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPortalFixture(domainauth.RoleUser)
			f.api.targets = func(model.TargetFilter) (model.Page[model.Target], error) {
				return model.Page[model.Target]{}, tt.err
			}
			rec := f.do(t, "GET /api/targets", f.handler.ListTargets, httptest.NewRequest(http.MethodGet, "/api/targets", nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "boom", "internal details stay in the logs")
		})
	}
}

func TestSetUserRole(t *testing.T) {
	f := newPortalFixture(domainauth.RoleAdmin)

	rec := f.do(t, "PUT /api/users/{id}/role", f.handler.SetUserRole,
		httptest.NewRequest(http.MethodPut, "/api/users/8/role", strings.NewReader(`{"role":2}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domainauth.RoleFaculty, f.api.roleSet[8])

	rec = f.do(t, "PUT /api/users/{id}/role", f.handler.SetUserRole,
		httptest.NewRequest(http.MethodPut, "/api/users/8/role", strings.NewReader(`{"role":9}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, "PUT /api/users/{id}/role", f.handler.SetUserRole,
		httptest.NewRequest(http.MethodPut, "/api/users/42/role", strings.NewReader(`{"role":3}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code, "own role cannot be changed")
}

func TestDashboard(t *testing.T) {
	t.Run("elevated role sees pipeline logs", func(t *testing.T) {
		f := newPortalFixture(domainauth.RoleFaculty)
		f.api.stats = model.ObservationStats{TotalObservations: 12}
		for i := 0; i < dashboardETLLogLimit+5; i++ {
			f.api.etlLogs = append(f.api.etlLogs, model.ETLLog{Name: "lulin", Success: true})
		}

		rec := f.do(t, "GET /api/dashboard", f.handler.Dashboard, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body dashboardPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Announcements, 1)
		assert.Equal(t, 12, body.Stats.TotalObservations)
		assert.Len(t, body.ETLLogs, dashboardETLLogLimit)
		assert.True(t, body.Layout.CanViewETLLogs)
	})

	t.Run("regular user does not trigger the logs call", func(t *testing.T) {
		f := newPortalFixture(domainauth.RoleUser)
		rec := f.do(t, "GET /api/dashboard", f.handler.Dashboard, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, f.api.called("ETLLogs"))
		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotContains(t, body, "etl_logs")
	})

	t.Run("one failure fails the page", func(t *testing.T) {
		f := newPortalFixture(domainauth.RoleUser)
		f.api.statsErr = apperrors.Wrap(errors.New("dial"), apperrors.ErrCodeUnavailable, "tom api unreachable")
		rec := f.do(t, "GET /api/dashboard", f.handler.Dashboard, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestLayout(t *testing.T) {
	f := newPortalFixture(domainauth.RoleFaculty)
	mux := http.NewServeMux()
	mux.Handle("GET /api/layout", OptionalAuth(f.auth)(http.HandlerFunc(f.handler.Layout)))

	rec := serve(t, mux, httptest.NewRequest(http.MethodGet, "/api/layout", nil))
	assert.JSONEq(t, `{"authenticated":false,"can_manage_users":false,"can_announce":false,"can_view_etl_logs":false}`, rec.Body.String())

	rec = serve(t, mux, withSession(httptest.NewRequest(http.MethodGet, "/api/layout", nil), "sess-1"))
	var layout viewmodel.Layout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layout))
	assert.True(t, layout.CanManageUsers)
	assert.True(t, layout.CanAnnounce)
	assert.Equal(t, "faculty", layout.User.Role)
}
