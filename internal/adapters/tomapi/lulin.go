package tomapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tomobs/tom-portal/internal/domain/model"
)

// lulinDateLayout is the date format the schedule endpoint accepts.
const lulinDateLayout = "2006-01-02"

// ListLulinRuns returns the runs planned for an observation.
func (c *Client) ListLulinRuns(ctx context.Context, observationID int64) ([]model.LulinRun, error) {
	var runs []model.LulinRun
	err := c.do(ctx, request{method: http.MethodGet, path: observationPath(observationID) + "lulin/", auth: true, resource: "lulin_runs"}, &runs)
	return runs, err
}

// CreateLulinRun adds runs to an observation, one per target.
func (c *Client) CreateLulinRun(ctx context.Context, observationID int64, in model.LulinRunCreate) (model.LulinRun, error) {
	var run model.LulinRun
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     observationPath(observationID) + "lulin/",
		body:     in,
		auth:     true,
		resource: "lulin_runs",
	}, &run)
	return run, err
}

// GetLulinRun returns one run.
func (c *Client) GetLulinRun(ctx context.Context, id int64) (model.LulinRun, error) {
	var run model.LulinRun
	err := c.do(ctx, request{method: http.MethodGet, path: lulinRunPath(id), auth: true, resource: "lulin_run"}, &run)
	return run, err
}

// UpdateLulinRun edits one run.
func (c *Client) UpdateLulinRun(ctx context.Context, id int64, in model.LulinRunUpdate) (model.LulinRun, error) {
	var run model.LulinRun
	err := c.do(ctx, request{method: http.MethodPut, path: lulinRunPath(id), body: in, auth: true, resource: "lulin_run"}, &run)
	return run, err
}

// DeleteLulinRun removes one run.
func (c *Client) DeleteLulinRun(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: lulinRunPath(id), auth: true, resource: "lulin_run"}, nil)
}

// LulinCode returns the telescope script of an observation. The API generates
// it when none is stored or when regenerate is set.
func (c *Client) LulinCode(ctx context.Context, observationID int64, regenerate bool) (string, error) {
	var code string
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     observationPath(observationID) + "lulin/code/",
		query:    url.Values{"refresh": {strconv.FormatBool(regenerate)}},
		auth:     true,
		text:     true,
		resource: "lulin_code",
	}, &code)
	return code, err
}

// LulinSchedule compiles the scripts of every observation in [start, end].
// The TOM API allows this for admin and faculty only.
func (c *Client) LulinSchedule(ctx context.Context, start, end time.Time) (string, error) {
	var code string
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "api/observations/lulin/code/",
		query: url.Values{
			"start_date": {start.Format(lulinDateLayout)},
			"end_date":   {end.Format(lulinDateLayout)},
		},
		auth:     true,
		text:     true,
		resource: "lulin_schedule",
	}, &code)
	return code, err
}

func lulinRunPath(id int64) string {
	return "api/observations/lulin/" + strconv.FormatInt(id, 10) + "/"
}
