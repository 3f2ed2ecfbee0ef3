// Command tom-admin runs administrative TOM API calls from the shell,
// signed in with the configured account.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	env "github.com/caarlos0/env/v11"
	"github.com/tomobs/tom-portal/config"
	"github.com/tomobs/tom-portal/internal/adapters/memory"
	"github.com/tomobs/tom-portal/internal/adapters/tomapi"
	"github.com/tomobs/tom-portal/internal/bootstrap"
	"github.com/tomobs/tom-portal/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	API    adminAPI
	Out    io.Writer
}

// credentials are read from the environment so they stay out of shell history.
type credentials struct {
	Username string `env:"TOM_ADMIN_USERNAME"`
	Password string `env:"TOM_ADMIN_PASSWORD"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage(os.Stderr)
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger := bootstrap.InitLogger(&cfg)

	if err := run(cmd, &cfg, logger, os.Args[2:]); err != nil {
		logger.Error("command failed", "command", cmdName, "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func run(cmd command, cfg *config.AppConfig, logger *slog.Logger, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var creds credentials
	if err := env.Parse(&creds); err != nil {
		return fmt.Errorf("parse credentials: %w", err)
	}
	if creds.Username == "" || creds.Password == "" {
		return errors.New("TOM_ADMIN_USERNAME and TOM_ADMIN_PASSWORD are required")
	}

	session, err := signIn(ctx, cfg, logger, creds)
	if err != nil {
		return err
	}
	defer func() {
		if logoutErr := session.close(context.WithoutCancel(ctx)); logoutErr != nil {
			logger.Warn("logout failed", "error", logoutErr)
		}
	}()

	return cmd.run(&commandContext{Ctx: ctx, Logger: logger, API: session.api, Out: os.Stdout}, args)
}

// adminSession is a signed-in TOM API client whose session lives in memory
// for the duration of one command.
type adminSession struct {
	api       *tomapi.Client
	auth      *service.AuthService
	sessionID string
}

func signIn(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger, creds credentials) (*adminSession, error) {
	api, err := tomapi.New(tomapi.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		AuthScheme: cfg.API.AuthScheme,
		UserAgent:  "tom-admin",
		CookieJar:  true,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("tom api client: %w", err)
	}

	store := memory.NewSessionStore(nil)
	auth := service.NewAuthService(service.AuthServiceOptions{
		Issuer:   api,
		Profiles: api,
		Sessions: store,
		Logger:   logger,
	})
	refresher, err := service.NewTokenRefresher(service.TokenRefresherOptions{
		Sessions: store,
		Issuer:   api,
		Logger:   logger,
		Skew:     cfg.Auth.RefreshSkew,
	})
	if err != nil {
		return nil, err
	}

	sess, err := auth.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in as %s: %w", creds.Username, err)
	}
	logger.Debug("signed in", "username", sess.Username, "role", sess.Role.String())

	return &adminSession{
		api:       api.WithTokenSource(refresher.TokenSource(sess.ID)),
		auth:      auth,
		sessionID: sess.ID,
	}, nil
}

func (s *adminSession) close(ctx context.Context) error {
	return s.auth.Logout(ctx, s.sessionID)
}

func commands() map[string]command {
	return map[string]command{
		"users": {
			name:        "users",
			description: "List portal users",
			run:         runUsers,
		},
		"set-role": {
			name:        "set-role",
			description: "Change a user's role (-id <user id> -role admin|faculty|user|visitor)",
			run:         runSetRole,
		},
		"etl-logs": {
			name:        "etl-logs",
			description: "Show recent ETL pipeline runs",
			run:         runETLLogs,
		},
		"targets": {
			name:        "targets",
			description: "List targets (-page, -page-size, -search)",
			run:         runTargets,
		},
		"announce": {
			name:        "announce",
			description: "Publish an announcement (-title, -context, -type)",
			run:         runAnnounce,
		},
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: tom-admin <command> [flags]\n\n")
	fmt.Fprintf(w, "Credentials come from TOM_ADMIN_USERNAME and TOM_ADMIN_PASSWORD.\n")
	fmt.Fprintf(w, "Every command accepts -query <jmespath> to project its JSON output.\n\n")
	fmt.Fprintf(w, "Available commands:\n")

	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands()[name].description)
	}
}
