package httpx

import (
	"net/http"
	"strings"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/domain/model"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
	"github.com/tomobs/tom-portal/internal/http/ui/viewmodel"
)

// ListTags handles GET /api/tags.
func (h *PortalHandlers) ListTags(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	tags, err := api.ListTags(r.Context())
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tags)
}

// CreateTag handles POST /api/tags.
func (h *PortalHandlers) CreateTag(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in model.TagCreate
	if !DecodeJSON(w, r, &in) {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		h.Errors.Respond(w, r, apperrors.ValidationField("name", "name is required"))
		return
	}
	tag, err := api.CreateTag(r.Context(), in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, tag)
}

// ListAnnouncements handles GET /api/announcements.
func (h *PortalHandlers) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	items, err := api.ListAnnouncements(r.Context())
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// CreateAnnouncement handles POST /api/announcements (elevated roles only).
func (h *PortalHandlers) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in model.AnnouncementCreate
	if !DecodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		h.Errors.Respond(w, r, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid announcement"))
		return
	}
	a, err := api.CreateAnnouncement(r.Context(), in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, a)
}

// ETLLogs handles GET /api/etl-logs (elevated roles only).
func (h *PortalHandlers) ETLLogs(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	logs, err := api.ETLLogs(r.Context())
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, logs)
}

// ListUsers handles GET /api/users (admin and faculty only).
func (h *PortalHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	users, err := api.ListUsers(r.Context())
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

type roleUpdateRequest struct {
	Role int `json:"role"`
}

// SetUserRole handles PUT /api/users/{id}/role {"role": 1..4} (admin and faculty only).
func (h *PortalHandlers) SetUserRole(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(r, "id")
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	var req roleUpdateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	role := domainauth.Role(req.Role)
	if !role.Valid() {
		h.Errors.Respond(w, r, apperrors.ValidationField("role", "role must be between 1 and 4"))
		return
	}
	if s := GetSessionFromContext(r.Context()); s != nil && s.UserID == id {
		h.Errors.Respond(w, r, apperrors.Forbidden("you cannot change your own role"))
		return
	}

	u, err := api.SetUserRole(r.Context(), id, role)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	h.logger().InfoContext(r.Context(), "user role changed", "target_user_id", id, "role", role.String())
	WriteJSON(w, http.StatusOK, u)
}

// Profile handles GET /api/profile.
func (h *PortalHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	u, err := api.Me(r.Context())
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

// UpdateProfile handles PUT /api/profile.
func (h *PortalHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in model.UserUpdate
	if !DecodeJSON(w, r, &in) {
		return
	}
	session := GetSessionFromContext(r.Context())
	u, err := api.UpdateProfile(r.Context(), session.UserID, in)
	if err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

// DeleteAccount handles DELETE /api/profile. The account is deactivated
// upstream and the portal session ends with it.
func (h *PortalHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	session := GetSessionFromContext(r.Context())
	if err := api.DeleteAccount(r.Context(), session.UserID); err != nil {
		h.Errors.Respond(w, r, err)
		return
	}
	h.logger().InfoContext(r.Context(), "account deleted", "user_id", session.UserID)
	h.Errors.EndSession(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Layout handles GET /api/layout; it answers for signed-out callers too.
func (h *PortalHandlers) Layout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, viewmodel.NewLayout(GetSessionFromContext(r.Context())))
}
