package tomapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomobs/tom-portal/internal/domain/model"
)

// ListObservations returns one page of observations visible to the caller.
func (c *Client) ListObservations(ctx context.Context, f model.ObservationFilter) (model.Page[model.Observation], error) {
	q := f.Values()
	if name := strings.TrimSpace(f.Name); name != "" {
		q.Set("name", name)
	}
	if len(f.Tags) > 0 {
		q.Set("tags", joinIDs(f.Tags))
	}
	if len(f.Users) > 0 {
		q.Set("users", joinIDs(f.Users))
	}
	if len(f.Status) > 0 {
		q.Set("status", joinIDs(f.Status))
	}

	var page model.Page[model.Observation]
	err := c.do(ctx, request{method: http.MethodGet, path: "api/observations/", query: q, auth: true, resource: "observations"}, &page)
	return page, err
}

// GetObservation returns one observation.
func (c *Client) GetObservation(ctx context.Context, id int64) (model.Observation, error) {
	var o model.Observation
	err := c.do(ctx, request{method: http.MethodGet, path: observationPath(id), auth: true, resource: "observation"}, &o)
	return o, err
}

// CreateObservation submits a new observation request.
func (c *Client) CreateObservation(ctx context.Context, in model.ObservationCreate) (model.Observation, error) {
	var o model.Observation
	err := c.do(ctx, request{method: http.MethodPost, path: "api/observations/", body: in, auth: true, resource: "observations"}, &o)
	return o, err
}

// UpdateObservation edits one observation.
func (c *Client) UpdateObservation(ctx context.Context, id int64, in model.ObservationUpdate) (model.Observation, error) {
	var o model.Observation
	err := c.do(ctx, request{method: http.MethodPut, path: observationPath(id), body: in, auth: true, resource: "observation"}, &o)
	return o, err
}

// DeleteObservation removes one observation.
func (c *Client) DeleteObservation(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: observationPath(id), auth: true, resource: "observation"}, nil)
}

// DeleteObservations removes several observations.
func (c *Client) DeleteObservations(ctx context.Context, ids []int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "api/observations/",
		body:     map[string][]int64{"observation_ids": ids},
		auth:     true,
		resource: "observations",
	}, nil)
}

// ObservationStats returns platform-wide observation counts.
func (c *Client) ObservationStats(ctx context.Context) (model.ObservationStats, error) {
	var s model.ObservationStats
	err := c.do(ctx, request{method: http.MethodGet, path: "api/observations/stats/", auth: true, resource: "observation_stats"}, &s)
	return s, err
}

// DuplicateObservation copies an observation and returns the copy.
func (c *Client) DuplicateObservation(ctx context.Context, id int64) (model.Observation, error) {
	var o model.Observation
	err := c.do(ctx, request{method: http.MethodPost, path: observationPath(id) + "duplicate/", auth: true, resource: "observation_duplicate"}, &o)
	return o, err
}

// PostObservationMessage adds a comment to an observation and returns the
// observation with its updated comments.
func (c *Client) PostObservationMessage(ctx context.Context, id int64, message string) (model.Observation, error) {
	var o model.Observation
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     observationPath(id) + "messages/",
		body:     message,
		auth:     true,
		resource: "observation_messages",
	}, &o)
	return o, err
}

// DeleteComment removes one comment.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "api/comments/" + strconv.FormatInt(id, 10) + "/",
		auth:     true,
		resource: "comment",
	}, nil)
}

func observationPath(id int64) string {
	return "api/observations/" + strconv.FormatInt(id, 10) + "/"
}
