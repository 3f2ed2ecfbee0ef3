package httpx

import (
	"net/http"
	"time"

	"github.com/tomobs/tom-portal/internal/domain/model"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
)

const scheduleDateLayout = "2006-01-02"

// lulinRunView adds display labels to a run.
type lulinRunView struct {
	model.LulinRun
	FilterLabel     string `json:"filter_label,omitempty"`
	InstrumentLabel string `json:"instrument_label,omitempty"`
	PriorityLabel   string `json:"priority_label"`
}

func newLulinRunView(run model.LulinRun) lulinRunView {
	v := lulinRunView{LulinRun: run, PriorityLabel: run.Priority.Label()}
	if run.Filter != nil {
		v.FilterLabel = run.Filter.Label()
	}
	if run.Instrument != nil {
		v.InstrumentLabel = run.Instrument.Label()
	}
	return v
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

// ListLulinRuns handles GET /api/observations/{id}/lulin.
func (h *PortalHandlers) ListLulinRuns(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	runs, err := api.ListLulinRuns(r.Context(), id)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	views := make([]lulinRunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newLulinRunView(run))
	}
	WriteJSON(w, http.StatusOK, views)
}

// CreateLulinRun handles POST /api/observations/{id}/lulin.
func (h *PortalHandlers) CreateLulinRun(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	var in model.LulinRunCreate
	if !DecodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		h.Errors.Respond(w, r, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid lulin run"))
		return
	}
	run, err := api.CreateLulinRun(r.Context(), id, in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, newLulinRunView(run))
}

// GetLulinRun handles GET /api/lulin-runs/{id}.
func (h *PortalHandlers) GetLulinRun(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	run, err := api.GetLulinRun(r.Context(), id)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newLulinRunView(run))
}

// UpdateLulinRun handles PUT /api/lulin-runs/{id}.
func (h *PortalHandlers) UpdateLulinRun(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	var in model.LulinRunUpdate
	if !DecodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		h.Errors.Respond(w, r, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid lulin run"))
		return
	}
	run, err := api.UpdateLulinRun(r.Context(), id, in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newLulinRunView(run))
}

// DeleteLulinRun handles DELETE /api/lulin-runs/{id}.
func (h *PortalHandlers) DeleteLulinRun(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	if err := api.DeleteLulinRun(r.Context(), id); err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LulinCode handles GET /api/observations/{id}/lulin/code?refresh=true.
// The script is returned as text/plain.
func (h *PortalHandlers) LulinCode(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	regenerate := r.URL.Query().Get("refresh") == "true"
	code, err := api.LulinCode(r.Context(), id, regenerate)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	writeText(w, http.StatusOK, code)
}

type lulinCodeRequest struct {
	Code string `json:"code"`
}

// SaveLulinCode handles PUT /api/observations/{id}/lulin/code {"code": "..."}.
// The script is stored on the observation itself.
func (h *PortalHandlers) SaveLulinCode(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	var req lulinCodeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	o, err := api.UpdateObservation(r.Context(), id, model.ObservationUpdate{Code: &req.Code})
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newObservationView(o))
}

// parseScheduleWindow reads start_date and an optional end_date (YYYY-MM-DD).
// A missing end_date covers model.LulinCodeWindow from the start.
func parseScheduleWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	start, err := time.Parse(scheduleDateLayout, q.Get("start_date"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ValidationField("start_date", "start_date must be a YYYY-MM-DD date")
	}
	end := start.Add(model.LulinCodeWindow)
	if raw := q.Get("end_date"); raw != "" {
		if end, err = time.Parse(scheduleDateLayout, raw); err != nil {
			return time.Time{}, time.Time{}, apperrors.ValidationField("end_date", "end_date must be a YYYY-MM-DD date")
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.ValidationField("end_date", "end_date must not be before start_date")
	}
	return start, end, nil
}

// LulinSchedule handles GET /api/lulin/schedule?start_date=&end_date= (admin and faculty only).
func (h *PortalHandlers) LulinSchedule(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	start, end, err := parseScheduleWindow(r)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	code, err := api.LulinSchedule(r.Context(), start, end)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	writeText(w, http.StatusOK, code)
}
