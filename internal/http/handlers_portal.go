package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/domain/model"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
	"github.com/tomobs/tom-portal/internal/http/ui/viewmodel"
)

// TargetsAPI is the subset of the TOM API client used for targets.
type TargetsAPI interface {
	ListTargets(ctx context.Context, f model.TargetFilter) (model.Page[model.Target], error)
	GetTarget(ctx context.Context, id int64) (model.Target, error)
	CreateTarget(ctx context.Context, in model.TargetCreate) (model.Target, error)
	BulkCreateTargets(ctx context.Context, in []model.TargetCreate) ([]model.Target, error)
	UpdateTarget(ctx context.Context, id int64, in model.TargetUpdate) (model.Target, error)
	DeleteTarget(ctx context.Context, id int64) error
	DeleteTargets(ctx context.Context, ids []int64) error
	TargetSimbad(ctx context.Context, id int64) (model.SimbadData, error)
	TargetSED(ctx context.Context, id int64) ([]model.SEDPoint, error)
}

// ObservationsAPI is the subset of the TOM API client used for observations.
type ObservationsAPI interface {
	ListObservations(ctx context.Context, f model.ObservationFilter) (model.Page[model.Observation], error)
	GetObservation(ctx context.Context, id int64) (model.Observation, error)
	CreateObservation(ctx context.Context, in model.ObservationCreate) (model.Observation, error)
	UpdateObservation(ctx context.Context, id int64, in model.ObservationUpdate) (model.Observation, error)
	DeleteObservation(ctx context.Context, id int64) error
	DeleteObservations(ctx context.Context, ids []int64) error
	ObservationStats(ctx context.Context) (model.ObservationStats, error)
	DuplicateObservation(ctx context.Context, id int64) (model.Observation, error)
	PostObservationMessage(ctx context.Context, id int64, message string) (model.Observation, error)
	DeleteComment(ctx context.Context, id int64) error
}

// LulinAPI covers the Lulin telescope runs and scripts of observations.
type LulinAPI interface {
	ListLulinRuns(ctx context.Context, observationID int64) ([]model.LulinRun, error)
	CreateLulinRun(ctx context.Context, observationID int64, in model.LulinRunCreate) (model.LulinRun, error)
	GetLulinRun(ctx context.Context, id int64) (model.LulinRun, error)
	UpdateLulinRun(ctx context.Context, id int64, in model.LulinRunUpdate) (model.LulinRun, error)
	DeleteLulinRun(ctx context.Context, id int64) error
	LulinCode(ctx context.Context, observationID int64, regenerate bool) (string, error)
	LulinSchedule(ctx context.Context, start, end time.Time) (string, error)
}

// CatalogAPI covers tags, announcements and pipeline logs.
type CatalogAPI interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	CreateTag(ctx context.Context, in model.TagCreate) (model.Tag, error)
	ListAnnouncements(ctx context.Context) ([]model.Announcement, error)
	CreateAnnouncement(ctx context.Context, in model.AnnouncementCreate) (model.Announcement, error)
	ETLLogs(ctx context.Context) ([]model.ETLLog, error)
}

// UsersAPI covers the caller's profile and user administration.
type UsersAPI interface {
	Me(ctx context.Context) (model.User, error)
	UpdateProfile(ctx context.Context, id int64, in model.UserUpdate) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetUserRole(ctx context.Context, id int64, role domainauth.Role) (model.User, error)
	DeleteAccount(ctx context.Context, id int64) error
}

// PortalAPI is everything the portal proxies to the TOM API on a user's behalf.
type PortalAPI interface {
	TargetsAPI
	ObservationsAPI
	LulinAPI
	CatalogAPI
	UsersAPI
}

// ClientFactory returns a TOM API client acting with the given session's credentials.
type ClientFactory func(sessionID string) PortalAPI

// PortalHandlers proxies resource calls for the signed-in user.
type PortalHandlers struct {
	Clients ClientFactory
	Errors  *ErrorResponder
	Logger  *slog.Logger
}

// api returns the per-session client; RequireAuth guarantees a session.
func (h *PortalHandlers) api(w http.ResponseWriter, r *http.Request) (PortalAPI, bool) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		denyUnauthenticated(w, r)
		return nil, false
	}
	return h.Clients(session.ID), true
}

// listResponse is a page of results with its pagination view model.
type listResponse[T any] struct {
	Results    []T                  `json:"results"`
	Pagination viewmodel.Pagination `json:"pagination"`
}

func newListResponse[T any, R any](r *http.Request, page model.Page[T], opts model.ListOptions, view func(T) R) listResponse[R] {
	current := page.Current
	if current == 0 {
		current = opts.Page
	}
	total := page.Total
	if total == 0 && page.Count > 0 {
		total = (page.Count + opts.PageSize - 1) / opts.PageSize
	}

	results := make([]R, 0, len(page.Results))
	for _, item := range page.Results {
		results = append(results, view(item))
	}
	return listResponse[R]{
		Results: results,
		Pagination: viewmodel.NewPagination(viewmodel.PaginationInput{
			State:      viewmodel.PageState{Current: current, Total: total},
			PageSize:   opts.PageSize,
			TotalCount: page.Count,
			BasePath:   r.URL.Path,
			Query:      r.URL.Query(),
		}),
	}
}

func identity[T any](v T) T { return v }

// ListTargets handles GET /api/targets?page=&page_size=&search=&name=&tags=.
func (h *PortalHandlers) ListTargets(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	tags, err := parseIDList(r, "tags")
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	f := model.TargetFilter{ListOptions: ParseListOptions(r), Name: r.URL.Query().Get("name"), Tags: tags}

	page, err := api.ListTargets(r.Context(), f)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newListResponse(r, page, f.ListOptions, identity[model.Target]))
}

// GetTarget handles GET /api/targets/{id}.
func (h *PortalHandlers) GetTarget(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(r, "id")
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	t, err := api.GetTarget(r.Context(), id)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

// CreateTarget handles POST /api/targets.
func (h *PortalHandlers) CreateTarget(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in model.TargetCreate
	if !DecodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		h.Errors.Respond(w, r, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid target"))
		return
	}
	t, err := api.CreateTarget(r.Context(), in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, t)
}

// BulkCreateTargets handles POST /api/targets/bulk.
func (h *PortalHandlers) BulkCreateTargets(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in []model.TargetCreate
	if !DecodeJSON(w, r, &in) {
		return
	}
	if len(in) == 0 {
		h.Errors.Respond(w, r, apperrors.Validation("at least one target is required"))
		return
	}
	for i, t := range in {
		if err := t.Validate(); err != nil {
			h.Errors.Respond(w, r, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "invalid target at index %d", i))
			return
		}
	}
	created, err := api.BulkCreateTargets(r.Context(), in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"results": created, "count": len(created)})
}

// UpdateTarget handles PUT /api/targets/{id}.
func (h *PortalHandlers) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(r, "id")
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	var in model.TargetUpdate
	if !DecodeJSON(w, r, &in) {
		return
	}
	t, err := api.UpdateTarget(r.Context(), id, in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

// DeleteTarget handles DELETE /api/targets/{id}.
func (h *PortalHandlers) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(r, "id")
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	if err := api.DeleteTarget(r.Context(), id); err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathResource returns the per-session client and the {id} path value;
// on failure the response is already written.
func (h *PortalHandlers) pathResource(w http.ResponseWriter, r *http.Request) (PortalAPI, int64, bool) {
	api, ok := h.api(w, r)
	if !ok {
		return nil, 0, false
	}
	id, err := parsePathID(r, "id")
	if err != nil {
		h.Errors.Respond(w, r, err)
		return nil, 0, false
	}
	return api, id, true
}

// TargetSimbad handles GET /api/targets/{id}/simbad.
func (h *PortalHandlers) TargetSimbad(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	d, err := api.TargetSimbad(r.Context(), id)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

// TargetSED handles GET /api/targets/{id}/sed.
func (h *PortalHandlers) TargetSED(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	points, err := api.TargetSED(r.Context(), id)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	if points == nil {
		points = []model.SEDPoint{}
	}
	WriteJSON(w, http.StatusOK, points)
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// bulkDeleteIDs decodes {"ids": [...]}; on failure the response is already written.
func (h *PortalHandlers) bulkDeleteIDs(w http.ResponseWriter, r *http.Request) ([]int64, bool) {
	var req bulkDeleteRequest
	if !DecodeJSON(w, r, &req) {
		return nil, false
	}
	if len(req.IDs) == 0 {
		h.Errors.Respond(w, r, apperrors.ValidationField("ids", "at least one id is required"))
		return nil, false
	}
	return req.IDs, true
}

// DeleteTargets handles DELETE /api/targets {"ids": [...]}.
func (h *PortalHandlers) DeleteTargets(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	ids, ok := h.bulkDeleteIDs(w, r)
	if !ok {
		return
	}
	if err := api.DeleteTargets(r.Context(), ids); err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortalHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
