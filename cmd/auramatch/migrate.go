// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/auramatch/auramatch/internal/config"
	"github.com/auramatch/auramatch/internal/store"
)

// Migrator wraps the methods used from store.Migrator by the migrate commands.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// MigrateDeps contains injectable dependencies for the migrate commands.
type MigrateDeps struct {
	// ConfigLoader builds the configuration.
	// Default: loadConfig
	ConfigLoader func(cmd *cobra.Command) (*config.Config, error)

	// MigratorFactory creates a migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)
}

func (deps *MigrateDeps) setDefaults() {
	if deps.ConfigLoader == nil {
		deps.ConfigLoader = loadConfig
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
}

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmdWithDeps(nil)
}

func newMigrateCmdWithDeps(deps *MigrateDeps) *cobra.Command {
	if deps == nil {
		deps = &MigrateDeps{}
	}
	deps.setDefaults()

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back and inspect the PostgreSQL schema migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migrateUp)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migrateUp)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migrateDown)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migrateStatus)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations (clears dirty state)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, deps, func(cmd *cobra.Command, m Migrator) error {
				if err := m.Force(version); err != nil {
					return err //nolint:wrapcheck // store errors already carry codes
				}
				cmd.Printf("Forced schema version to %d\n", version)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator loads config, opens a migrator, runs fn and closes the migrator.
func withMigrator(cmd *cobra.Command, deps *MigrateDeps, fn func(*cobra.Command, Migrator) error) (err error) {
	cfg, err := deps.ConfigLoader(cmd)
	if err != nil {
		return oops.With("operation", "load config").Wrap(err)
	}

	m, err := deps.MigratorFactory(cfg.DatabaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(cmd, m)
}

func migrateUp(cmd *cobra.Command, m Migrator) error {
	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return err //nolint:wrapcheck // store errors already carry codes
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func migrateDown(cmd *cobra.Command, m Migrator) error {
	cmd.Println("Rolling back migrations...")
	if err := m.Down(); err != nil {
		return err //nolint:wrapcheck // store errors already carry codes
	}
	cmd.Println("Rollback completed successfully")
	return nil
}

func migrateStatus(cmd *cobra.Command, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err //nolint:wrapcheck // store errors already carry codes
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err //nolint:wrapcheck // store errors already carry codes
	}

	cmd.Print(formatMigrationStatus(version, dirty, pending))
	return nil
}

// formatMigrationStatus renders the version line followed by one line per
// pending migration.
func formatMigrationStatus(version uint, dirty bool, pending []uint) string {
	var b strings.Builder

	current := "none"
	if version > 0 {
		current = migrationLabel(version)
	}
	fmt.Fprintf(&b, "Current version: %s", current)
	if dirty {
		b.WriteString(" (dirty)")
	}
	b.WriteString("\n")

	if len(pending) == 0 {
		b.WriteString("No pending migrations\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Pending migrations (%d):\n", len(pending))
	for _, v := range pending {
		fmt.Fprintf(&b, "  %s\n", migrationLabel(v))
	}
	return b.String()
}

func migrationLabel(version uint) string {
	name, err := store.MigrationName(version)
	if err != nil || name == "" {
		return fmt.Sprintf("%06d", version)
	}
	return name
}

// parseForceVersion parses the VERSION argument of migrate force.
func parseForceVersion(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, oops.Code("INVALID_VERSION").Errorf("version is required")
	}
	var version int
	if _, err := fmt.Sscanf(trimmed, "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	if version < 0 {
		return 0, oops.Code("INVALID_VERSION").With("version", version).Errorf("version cannot be negative")
	}
	return version, nil
}
