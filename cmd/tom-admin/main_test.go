package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/domain/model"
)

type fakeAdminAPI struct {
	users     []model.User
	logs      []model.ETLLog
	filter    model.TargetFilter
	roleID    int64
	role      domainauth.Role
	announced model.AnnouncementCreate
}

func (f *fakeAdminAPI) ListUsers(context.Context) ([]model.User, error) { return f.users, nil }

func (f *fakeAdminAPI) SetUserRole(_ context.Context, id int64, role domainauth.Role) (model.User, error) {
	f.roleID, f.role = id, role
	return model.User{ID: id, Username: "deneb", Role: int(role)}, nil
}

func (f *fakeAdminAPI) ETLLogs(context.Context) ([]model.ETLLog, error) { return f.logs, nil }

func (f *fakeAdminAPI) ListTargets(_ context.Context, filter model.TargetFilter) (model.Page[model.Target], error) {
	f.filter = filter
	return model.Page[model.Target]{Count: 1, Current: 1, Total: 1, Results: []model.Target{{ID: 3, Name: "M31"}}}, nil
}

func (f *fakeAdminAPI) CreateAnnouncement(_ context.Context, in model.AnnouncementCreate) (model.Announcement, error) {
	f.announced = in
	return model.Announcement{ID: 8, Title: in.Title, Context: in.Context, Type: in.Type}, nil
}

func newCommandContext(api adminAPI) (*commandContext, *bytes.Buffer) {
	var out bytes.Buffer
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		API:    api,
		Out:    &out,
	}, &out
}

func TestWriteResult_Query(t *testing.T) {
	users := []model.User{
		{ID: 1, Username: "vega", Role: 1},
		{ID: 2, Username: "altair", Role: 3},
	}

	var out bytes.Buffer
	require.NoError(t, writeResult(&out, users, "[?role == `3`].username"))

	var got []string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []string{"altair"}, got)
}

func TestWriteResult_NoQueryKeepsJSONNames(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeResult(&out, model.User{ID: 1, Username: "vega"}, "  "))
	assert.Contains(t, out.String(), `"username": "vega"`)
}

func TestWriteResult_InvalidQuery(t *testing.T) {
	var out bytes.Buffer
	err := writeResult(&out, []int{1}, "[?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid -query")
	assert.Empty(t, out.String())
}

func TestRunSetRole(t *testing.T) {
	api := &fakeAdminAPI{}
	cmdCtx, out := newCommandContext(api)

	require.NoError(t, runSetRole(cmdCtx, []string{"-id", "12", "-role", "faculty", "-query", "role"}))
	assert.Equal(t, int64(12), api.roleID)
	assert.Equal(t, domainauth.RoleFaculty, api.role)
	assert.Equal(t, "2\n", out.String())
}

func TestParseSetRoleFlags_Errors(t *testing.T) {
	tests := map[string][]string{
		"missing id":   {"-role", "admin"},
		"invalid role": {"-id", "3", "-role", "astronomer"},
		"unknown flag": {"-id", "3", "-role", "admin", "-force"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseSetRoleFlags(args, io.Discard)
			require.Error(t, err)
		})
	}
}

func TestRunTargets_Filter(t *testing.T) {
	api := &fakeAdminAPI{}
	cmdCtx, out := newCommandContext(api)

	require.NoError(t, runTargets(cmdCtx, []string{"-page", "0", "-page-size", "500", "-search", "andromeda", "-query", "results[].name"}))
	assert.Equal(t, 1, api.filter.Page)
	assert.Equal(t, model.MaxPageSize, api.filter.PageSize)
	assert.Equal(t, "andromeda", api.filter.Search)
	assert.JSONEq(t, `["M31"]`, out.String())
}

func TestRunETLLogs_Limit(t *testing.T) {
	api := &fakeAdminAPI{logs: []model.ETLLog{{Name: "a"}, {Name: "b"}, {Name: "c"}}}
	cmdCtx, out := newCommandContext(api)

	require.NoError(t, runETLLogs(cmdCtx, []string{"-limit", "2", "-query", "[].name"}))
	assert.JSONEq(t, `["a","b"]`, out.String())
}

func TestRunAnnounce(t *testing.T) {
	api := &fakeAdminAPI{}
	cmdCtx, _ := newCommandContext(api)

	require.NoError(t, runAnnounce(cmdCtx, []string{"-title", "Dome closed", "-context", "Wind above limits", "-type", "2"}))
	assert.Equal(t, model.AnnouncementCreate{Title: "Dome closed", Context: "Wind above limits", Type: 2}, api.announced)

	err := runAnnounce(cmdCtx, []string{"-title", "No body"})
	require.Error(t, err)
}

func TestPrintUsageListsCommands(t *testing.T) {
	var out bytes.Buffer
	printUsage(&out)
	for name := range commands() {
		assert.Contains(t, out.String(), name)
	}
}
