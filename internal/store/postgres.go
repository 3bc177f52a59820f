// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

// Package store provides the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions tunes the startup connection attempt.
type ConnectOptions struct {
	// Attempts is the maximum number of ping attempts. Zero means 5.
	Attempts uint64
	// InitialBackoff is the first delay between attempts. Zero means 250ms.
	InitialBackoff time.Duration
}

// Connect creates a pgx pool for dsn and waits until the database answers a
// ping, backing off exponentially between attempts. The returned pool is safe
// for concurrent use and shared by every repository.
func Connect(ctx context.Context, dsn string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if opts.Attempts == 0 {
		opts.Attempts = 5
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 250 * time.Millisecond
	}

	backoff := retry.WithMaxRetries(opts.Attempts-1, retry.NewExponential(opts.InitialBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			slog.WarnContext(ctx, "database not ready", "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", opts.Attempts).
			Wrap(err)
	}

	return pool, nil
}
