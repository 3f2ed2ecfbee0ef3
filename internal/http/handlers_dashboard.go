package httpx

import (
	"net/http"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/domain/model"
	"github.com/tomobs/tom-portal/internal/http/ui/viewmodel"
	"golang.org/x/sync/errgroup"
)

// dashboardETLLogLimit caps the pipeline runs shown on the dashboard.
const dashboardETLLogLimit = 10

type dashboardPayload struct {
	Layout        viewmodel.Layout       `json:"layout"`
	Announcements []model.Announcement   `json:"announcements"`
	Stats         model.ObservationStats `json:"stats"`
	ETLLogs       []model.ETLLog         `json:"etl_logs,omitempty"`
}

// Dashboard handles GET /api/dashboard. Announcements, observation stats and,
// for elevated roles, recent ETL runs are fetched concurrently; the first
// failure cancels the rest.
func (h *PortalHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	session := GetSessionFromContext(r.Context())
	payload := dashboardPayload{Layout: viewmodel.NewLayout(session)}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		items, err := api.ListAnnouncements(ctx)
		payload.Announcements = items
		return err
	})
	g.Go(func() error {
		stats, err := api.ObservationStats(ctx)
		payload.Stats = stats
		return err
	})
	if role := session.Role; domainauth.IsAuthorized(&role, domainauth.ETLLogRoles()) {
		g.Go(func() error {
			logs, err := api.ETLLogs(ctx)
			if len(logs) > dashboardETLLogLimit {
				logs = logs[:dashboardETLLogLimit]
			}
			payload.ETLLogs = logs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		h.Errors.Respond(w, r, err)
		return
	}

	if payload.Announcements == nil {
		payload.Announcements = []model.Announcement{}
	}
	WriteJSON(w, http.StatusOK, payload)
}
