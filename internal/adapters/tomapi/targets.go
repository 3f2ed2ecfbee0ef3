package tomapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomobs/tom-portal/internal/domain/model"
)

// ListTargets returns one page of targets visible to the caller.
func (c *Client) ListTargets(ctx context.Context, f model.TargetFilter) (model.Page[model.Target], error) {
	q := f.Values()
	if name := strings.TrimSpace(f.Name); name != "" {
		q.Set("name", name)
	}
	if len(f.Tags) > 0 {
		q.Set("tags", joinIDs(f.Tags))
	}

	var page model.Page[model.Target]
	err := c.do(ctx, request{method: http.MethodGet, path: "api/targets/", query: q, auth: true, resource: "targets"}, &page)
	return page, err
}

// GetTarget returns one target.
func (c *Client) GetTarget(ctx context.Context, id int64) (model.Target, error) {
	var t model.Target
	err := c.do(ctx, request{method: http.MethodGet, path: targetPath(id), auth: true, resource: "target"}, &t)
	return t, err
}

// CreateTarget creates one target.
func (c *Client) CreateTarget(ctx context.Context, in model.TargetCreate) (model.Target, error) {
	var t model.Target
	err := c.do(ctx, request{method: http.MethodPost, path: "api/targets/", body: in, auth: true, resource: "targets"}, &t)
	return t, err
}

// BulkCreateTargets creates several targets in one request.
func (c *Client) BulkCreateTargets(ctx context.Context, in []model.TargetCreate) ([]model.Target, error) {
	var out []model.Target
	err := c.do(ctx, request{method: http.MethodPost, path: "api/targets/bulk/", body: in, auth: true, resource: "targets_bulk"}, &out)
	return out, err
}

// UpdateTarget edits one target.
func (c *Client) UpdateTarget(ctx context.Context, id int64, in model.TargetUpdate) (model.Target, error) {
	var t model.Target
	err := c.do(ctx, request{method: http.MethodPut, path: targetPath(id), body: in, auth: true, resource: "target"}, &t)
	return t, err
}

// DeleteTarget soft-deletes one target.
func (c *Client) DeleteTarget(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: targetPath(id), auth: true, resource: "target"}, nil)
}

// DeleteTargets soft-deletes several targets.
func (c *Client) DeleteTargets(ctx context.Context, ids []int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "api/targets/",
		body:     map[string][]int64{"target_ids": ids},
		auth:     true,
		resource: "targets",
	}, nil)
}

// TargetSimbad looks the target up in SIMBAD by name.
func (c *Client) TargetSimbad(ctx context.Context, id int64) (model.SimbadData, error) {
	var d model.SimbadData
	err := c.do(ctx, request{method: http.MethodGet, path: targetPath(id) + "simbad/", auth: true, resource: "target_simbad"}, &d)
	return d, err
}

// TargetSED returns the target's spectral energy distribution from VizieR.
func (c *Client) TargetSED(ctx context.Context, id int64) ([]model.SEDPoint, error) {
	var points []model.SEDPoint
	err := c.do(ctx, request{method: http.MethodGet, path: targetPath(id) + "sed/", auth: true, resource: "target_sed"}, &points)
	return points, err
}

func targetPath(id int64) string {
	return "api/targets/" + strconv.FormatInt(id, 10) + "/"
}

func joinIDs[T ~int | ~int64](ids []T) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(int64(id), 10))
	}
	return strings.Join(parts, ",")
}
