// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

// Package postgres implements the auth repositories on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of *pgxpool.Pool used by the repositories.
// pgxmock.PgxPoolIface satisfies it in unit tests.
type Pool interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier abstracts query execution for both the pool and pgx.Tx so that
// repository methods work within or outside of transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txKey is the context key for the active transaction.
type txKey struct{}

// conn returns the transaction carried by ctx, or pool when there is none.
func conn(ctx context.Context, pool Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// uniqueViolation reports whether err is a unique constraint violation and,
// if so, the violated constraint.
func uniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
