package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/domain/model"
)

// adminAPI is the part of the TOM API client the admin commands use.
type adminAPI interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	SetUserRole(ctx context.Context, id int64, role domainauth.Role) (model.User, error)
	ETLLogs(ctx context.Context) ([]model.ETLLog, error)
	ListTargets(ctx context.Context, f model.TargetFilter) (model.Page[model.Target], error)
	CreateAnnouncement(ctx context.Context, in model.AnnouncementCreate) (model.Announcement, error)
}

// newFlagSet returns a flag set that reports errors instead of exiting,
// with the shared -query flag registered.
func newFlagSet(name string, out io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	query := fs.String("query", "", "JMESPath expression applied to the JSON output")
	return fs, query
}

func runUsers(cmdCtx *commandContext, args []string) error {
	fs, query := newFlagSet("users", cmdCtx.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	users, err := cmdCtx.API.ListUsers(cmdCtx.Ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return writeResult(cmdCtx.Out, users, *query)
}

type setRoleOptions struct {
	ID   int64
	Role domainauth.Role
}

func parseSetRoleFlags(args []string, out io.Writer) (setRoleOptions, string, error) {
	fs, query := newFlagSet("set-role", out)
	id := fs.Int64("id", 0, "user ID")
	role := fs.String("role", "", "new role: admin, faculty, user or visitor")
	if err := fs.Parse(args); err != nil {
		return setRoleOptions{}, "", err
	}
	if *id <= 0 {
		return setRoleOptions{}, "", errors.New("-id is required")
	}
	parsed, err := domainauth.ParseRole(*role)
	if err != nil {
		return setRoleOptions{}, "", err
	}
	return setRoleOptions{ID: *id, Role: parsed}, *query, nil
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	opts, query, err := parseSetRoleFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}

	user, err := cmdCtx.API.SetUserRole(cmdCtx.Ctx, opts.ID, opts.Role)
	if err != nil {
		return fmt.Errorf("set role for user %d: %w", opts.ID, err)
	}
	cmdCtx.Logger.Info("user role changed", "target_user_id", opts.ID, "role", opts.Role.String())
	return writeResult(cmdCtx.Out, user, query)
}

func runETLLogs(cmdCtx *commandContext, args []string) error {
	fs, query := newFlagSet("etl-logs", cmdCtx.Out)
	limit := fs.Int("limit", 0, "show only the most recent N runs (0 shows all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logs, err := cmdCtx.API.ETLLogs(cmdCtx.Ctx)
	if err != nil {
		return fmt.Errorf("fetch etl logs: %w", err)
	}
	if *limit > 0 && len(logs) > *limit {
		logs = logs[:*limit]
	}
	return writeResult(cmdCtx.Out, logs, *query)
}

func parseTargetFlags(args []string, out io.Writer) (model.TargetFilter, string, error) {
	fs, query := newFlagSet("targets", out)
	page := fs.Int("page", 1, "page number")
	pageSize := fs.Int("page-size", model.DefaultPageSize, "targets per page")
	search := fs.String("search", "", "free-text search")
	name := fs.String("name", "", "filter by target name")
	if err := fs.Parse(args); err != nil {
		return model.TargetFilter{}, "", err
	}
	filter := model.TargetFilter{
		ListOptions: model.ListOptions{Page: *page, PageSize: *pageSize, Search: *search}.Normalize(),
		Name:        *name,
	}
	return filter, *query, nil
}

func runTargets(cmdCtx *commandContext, args []string) error {
	filter, query, err := parseTargetFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}

	page, err := cmdCtx.API.ListTargets(cmdCtx.Ctx, filter)
	if err != nil {
		return fmt.Errorf("list targets: %w", err)
	}
	return writeResult(cmdCtx.Out, page, query)
}

func parseAnnounceFlags(args []string, out io.Writer) (model.AnnouncementCreate, string, error) {
	fs, query := newFlagSet("announce", out)
	title := fs.String("title", "", "announcement title")
	body := fs.String("context", "", "announcement body")
	kind := fs.Int("type", 0, "announcement type code")
	if err := fs.Parse(args); err != nil {
		return model.AnnouncementCreate{}, "", err
	}
	in := model.AnnouncementCreate{Title: *title, Context: *body, Type: model.AnnouncementType(*kind)}
	if err := in.Validate(); err != nil {
		return model.AnnouncementCreate{}, "", err
	}
	return in, *query, nil
}

func runAnnounce(cmdCtx *commandContext, args []string) error {
	in, query, err := parseAnnounceFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}

	created, err := cmdCtx.API.CreateAnnouncement(cmdCtx.Ctx, in)
	if err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return writeResult(cmdCtx.Out, created, query)
}
