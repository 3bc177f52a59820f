// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/auramatch/auramatch/internal/auth"
	"github.com/auramatch/auramatch/internal/auth/postgres"
	"github.com/auramatch/auramatch/internal/config"
	"github.com/auramatch/auramatch/internal/httpapi"
	"github.com/auramatch/auramatch/internal/logging"
	"github.com/auramatch/auramatch/internal/observability"
	"github.com/auramatch/auramatch/internal/store"
	"github.com/auramatch/auramatch/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. It connects to PostgreSQL, optionally
applies pending migrations, serves the /api routes and, when a metrics
address is configured, the metrics and health endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}
}

func (deps *ServeDeps) setDefaults() {
	if deps.ConfigLoader == nil {
		deps.ConfigLoader = loadConfig
	}
	if deps.PoolFactory == nil {
		deps.PoolFactory = func(ctx context.Context, databaseURL string) (DatabasePool, error) {
			return store.Connect(ctx, databaseURL, store.ConnectOptions{})
		}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(databaseURL string) (AutoMigrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if deps.HTTPServerFactory == nil {
		deps.HTTPServerFactory = func(addr string, handler http.Handler) HTTPServer {
			return httpapi.NewServer(addr, handler)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
}

// runServeWithDeps starts the server with injectable dependencies and blocks
// until a signal arrives, ctx is cancelled or a server fails.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps == nil {
		deps = &ServeDeps{}
	}
	deps.setDefaults()

	cfg, err := deps.ConfigLoader(cmd)
	if err != nil {
		return oops.With("operation", "load config").Wrap(err)
	}

	logger := setupLogging(cfg.LogFormat, cfg.LogLevel)
	logger.Info("starting auramatch",
		"version", version,
		"http_addr", cfg.HTTPAddr,
		"metrics_addr", cfg.MetricsAddr,
	)

	if cfg.AutoMigrate {
		if err := runAutoMigration(cfg.DatabaseURL, deps.MigratorFactory); err != nil {
			return err
		}
	}

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	var (
		obsServer   ObservabilityServer
		registry    *prometheus.Registry
		httpMetrics *observability.Metrics
	)
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, pool.Ping)
		registry = obsServer.Registry()
		httpMetrics = obsServer.Metrics()
	} else {
		registry = prometheus.NewRegistry()
		httpMetrics = observability.NewMetrics(registry)
	}
	authMetrics := auth.NewMetrics(registry)

	sessions := postgres.NewSessionRepository(pool)
	svc, err := auth.NewService(auth.ServiceDeps{
		Users:      postgres.NewUserRepository(pool),
		Profiles:   postgres.NewProfileRepository(pool),
		Sessions:   sessions,
		Transactor: postgres.NewTransactor(pool),
		Hasher:     auth.NewArgon2idHasher(),
	}, auth.WithLogger(logger), auth.WithMetrics(authMetrics))
	if err != nil {
		return oops.With("operation", "create auth service").Wrap(err)
	}

	router := httpapi.NewRouter(httpapi.NewHandler(svc, logger), logger, httpMetrics, routerOptions(cfg, logger)...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if obsServer != nil {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.MetricsAddr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	httpServer := deps.HTTPServerFactory(cfg.HTTPAddr, router)
	httpErrChan, err := httpServer.Start()
	if err != nil {
		stopServer(cfg.ShutdownTimeout, obsServer, "observability")
		return oops.Code("HTTP_START_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, httpErrChan, "http")

	var wg sync.WaitGroup
	if cfg.SweepInterval > 0 {
		sweeper, err := auth.NewSweeper(sessions, cfg.SweepInterval, logger, authMetrics)
		if err != nil {
			return oops.With("operation", "create sweeper").Wrap(err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweeper.Run(ctx)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("AuraMatch server started")
	logger.Info("auramatch ready", "http_addr", httpServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	stopServer(cfg.ShutdownTimeout, httpServer, "http")
	stopServer(cfg.ShutdownTimeout, obsServer, "observability")

	cancel()
	wg.Wait()

	logger.Info("shutdown complete")
	return nil
}

// setupLogging installs the process-wide logger.
func setupLogging(format, level string) *slog.Logger {
	return logging.SetDefault(serviceName, version, format, level)
}

// runAutoMigration applies pending migrations before the server starts.
func runAutoMigration(databaseURL string, factory func(string) (AutoMigrator, error)) error {
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	slog.Info("applying database migrations")
	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	slog.Info("database migrations applied")
	return nil
}

type stopper interface {
	Stop(ctx context.Context) error
}

// stopServer stops s within timeout, logging failures. A nil s is skipped.
func stopServer(timeout time.Duration, s stopper, name string) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		errutil.LogError(ctx, slog.Default(), "error stopping server", err, "server", name)
	}
}

// routerOptions maps the frontend settings onto the router. A missing static
// directory only disables the frontend.
func routerOptions(cfg *config.Config, logger *slog.Logger) []httpapi.RouterOption {
	var opts []httpapi.RouterOption
	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err != nil || !info.IsDir() {
			logger.Warn("static directory not found, frontend disabled", "static_dir", cfg.StaticDir)
		} else {
			opts = append(opts, httpapi.WithStaticDir(cfg.StaticDir))
		}
	}
	if len(cfg.CORSOrigins) > 0 {
		opts = append(opts, httpapi.WithCORSOrigins(cfg.CORSOrigins))
		logger.Info("CORS enabled", "origins", cfg.CORSOrigins)
	}
	return opts
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
