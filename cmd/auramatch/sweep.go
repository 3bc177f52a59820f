// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/auramatch/auramatch/internal/auth"
	"github.com/auramatch/auramatch/internal/auth/postgres"
	"github.com/auramatch/auramatch/internal/config"
	"github.com/auramatch/auramatch/internal/store"
)

// SweepDeps contains injectable dependencies for the sweep command.
type SweepDeps struct {
	// ConfigLoader builds the configuration.
	// Default: loadConfig
	ConfigLoader func(cmd *cobra.Command) (*config.Config, error)

	// PoolFactory connects to the database.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, databaseURL string) (DatabasePool, error)
}

// NewSweepCmd creates the sweep subcommand.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions once and exit",
		Long: `Delete every session whose expiry has passed. Expired sessions are
never honored, so sweeping only reclaims storage; it suits a cron job when
the server runs with --sweep-interval=0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweepWithDeps(cmd.Context(), cmd, nil)
		},
	}
}

func runSweepWithDeps(ctx context.Context, cmd *cobra.Command, deps *SweepDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps == nil {
		deps = &SweepDeps{}
	}
	if deps.ConfigLoader == nil {
		deps.ConfigLoader = loadConfig
	}
	if deps.PoolFactory == nil {
		deps.PoolFactory = func(ctx context.Context, databaseURL string) (DatabasePool, error) {
			return store.Connect(ctx, databaseURL, store.ConnectOptions{})
		}
	}

	cfg, err := deps.ConfigLoader(cmd)
	if err != nil {
		return oops.With("operation", "load config").Wrap(err)
	}
	logger := setupLogging(cfg.LogFormat, cfg.LogLevel)

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	// The interval is unused by a one-shot sweep but must be positive.
	sweeper, err := auth.NewSweeper(postgres.NewSessionRepository(pool), config.DefaultSweepInterval, logger, nil)
	if err != nil {
		return oops.With("operation", "create sweeper").Wrap(err)
	}

	deleted, err := sweeper.SweepOnce(ctx)
	if err != nil {
		return err //nolint:wrapcheck // sweeper errors already carry codes
	}
	cmd.Printf("Deleted %d expired sessions\n", deleted)
	return nil
}
