package main

import (
	"fmt"
	"log/slog"

	"github.com/tidegate/worldctl/internal/config"
	"github.com/tidegate/worldctl/internal/gql"
	"github.com/tidegate/worldctl/internal/session"
	"github.com/tidegate/worldctl/internal/tokenstore"
)

// app wires the session subsystem together once per command invocation:
// config, logger, transport, token store, retry engine, session manager.
// The manager is the single session instance for the process and is
// passed to whatever needs it — no package-level session state.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *gql.Client
	store   *tokenstore.Store
	retrier *gql.Retrier
	session *session.Manager
}

// newApp resolves configuration, builds the component stack, and resumes
// any persisted session token.
func newApp() (*app, error) {
	cfg, err := config.Resolve(config.ReadEnvOverrides(), config.CLIOverrides{
		ConfigPath: flagConfigPath,
		Endpoint:   flagEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := buildLogger(cfg)

	refreshAfter, err := cfg.RefreshAfterDuration()
	if err != nil {
		return nil, err
	}

	client := gql.NewClient(cfg.Endpoint, cfg.ServiceBundle, defaultHTTPClient(), logger)
	store := tokenstore.New(cfg.TokenPath, logger)
	retrier := gql.NewRetrier(cfg.RetryPolicy(), logger)
	mgr := session.NewManager(client, store, retrier, refreshAfter, logger)

	if err := mgr.Resume(); err != nil {
		return nil, fmt.Errorf("resuming session: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		store:   store,
		retrier: retrier,
		session: mgr,
	}, nil
}
