package httpx

import (
	"net/http"
	"strings"

	"github.com/tomobs/tom-portal/internal/domain/model"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
)

// observationView adds display labels to an observation.
type observationView struct {
	model.Observation
	StatusLabel   string `json:"status_label"`
	PriorityLabel string `json:"priority_label"`
}

func newObservationView(o model.Observation) observationView {
	return observationView{
		Observation:   o,
		StatusLabel:   o.Status.Label(),
		PriorityLabel: o.Priority.Label(),
	}
}

func parseObservationFilter(r *http.Request) (model.ObservationFilter, error) {
	f := model.ObservationFilter{ListOptions: ParseListOptions(r), Name: r.URL.Query().Get("name")}
	var err error
	if f.Tags, err = parseIDList(r, "tags"); err != nil {
		return f, err
	}
	if f.Users, err = parseIDList(r, "users"); err != nil {
		return f, err
	}
	statuses, err := parseIDList(r, "status")
	if err != nil {
		return f, err
	}
	for _, s := range statuses {
		f.Status = append(f.Status, model.ObservationStatus(s))
	}
	return f, nil
}

// ListObservations handles GET /api/observations?page=&name=&tags=&users=&status=.
func (h *PortalHandlers) ListObservations(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	f, err := parseObservationFilter(r)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	page, err := api.ListObservations(r.Context(), f)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newListResponse(r, page, f.ListOptions, newObservationView))
}

// GetObservation handles GET /api/observations/{id}.
func (h *PortalHandlers) GetObservation(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(r, "id")
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	o, err := api.GetObservation(r.Context(), id)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newObservationView(o))
}

// CreateObservation handles POST /api/observations.
func (h *PortalHandlers) CreateObservation(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in model.ObservationCreate
	if !DecodeJSON(w, r, &in) {
		return
	}
	if in.Observatory == 0 {
		in.Observatory = model.ObservatoryLulin
	}
	if err := in.Validate(); err != nil {
		h.Errors.Respond(w, r, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid observation"))
		return
	}
	o, err := api.CreateObservation(r.Context(), in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, newObservationView(o))
}

// UpdateObservation handles PUT /api/observations/{id}.
func (h *PortalHandlers) UpdateObservation(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(r, "id")
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	var in model.ObservationUpdate
	if !DecodeJSON(w, r, &in) {
		return
	}
	o, err := api.UpdateObservation(r.Context(), id, in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newObservationView(o))
}

// DeleteObservation handles DELETE /api/observations/{id}.
func (h *PortalHandlers) DeleteObservation(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(r, "id")
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	if err := api.DeleteObservation(r.Context(), id); err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteObservations handles DELETE /api/observations {"ids": [...]}.
func (h *PortalHandlers) DeleteObservations(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	ids, ok := h.bulkDeleteIDs(w, r)
	if !ok {
		return
	}
	if err := api.DeleteObservations(r.Context(), ids); err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ObservationStats handles GET /api/observations/stats.
func (h *PortalHandlers) ObservationStats(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	stats, err := api.ObservationStats(r.Context())
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// DuplicateObservation handles POST /api/observations/{id}/duplicate.
func (h *PortalHandlers) DuplicateObservation(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	o, err := api.DuplicateObservation(r.Context(), id)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, newObservationView(o))
}

// PostObservationMessage handles POST /api/observations/{id}/messages {"message": "..."}.
func (h *PortalHandlers) PostObservationMessage(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	var in model.CommentCreate
	if !DecodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		h.Errors.Respond(w, r, apperrors.ValidationField("message", err.Error()))
		return
	}
	o, err := api.PostObservationMessage(r.Context(), id, strings.TrimSpace(in.Message))
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newObservationView(o))
}

// DeleteComment handles DELETE /api/comments/{id}.
func (h *PortalHandlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	api, id, ok := h.pathResource(w, r)
	if !ok {
		return
	}
	if err := api.DeleteComment(r.Context(), id); err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
