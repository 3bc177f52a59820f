// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/auramatch/auramatch/internal/auth/postgres"
	"github.com/auramatch/auramatch/internal/config"
	"github.com/auramatch/auramatch/internal/observability"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// ConfigLoader builds the configuration.
	// Default: loadConfig
	ConfigLoader func(cmd *cobra.Command) (*config.Config, error)

	// PoolFactory connects to the database.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, databaseURL string) (DatabasePool, error)

	// MigratorFactory creates a migrator for auto-migration.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (AutoMigrator, error)

	// HTTPServerFactory creates the API server.
	// Default: httpapi.NewServer
	HTTPServerFactory func(addr string, handler http.Handler) HTTPServer

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer
}

// DatabasePool is the pool surface used by serve and sweep.
// *pgxpool.Pool and pgxmock.PgxPoolIface satisfy it.
type DatabasePool interface {
	postgres.Pool
	Ping(ctx context.Context) error
	Close()
}

// AutoMigrator wraps the methods used from store.Migrator at startup.
type AutoMigrator interface {
	Up() error
	Close() error
}

// HTTPServer wraps the methods used from httpapi.Server.
type HTTPServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
	Registry() *prometheus.Registry
}
