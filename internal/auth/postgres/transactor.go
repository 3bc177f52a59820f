// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/auramatch/auramatch/internal/auth"
)

// Transactor implements auth.Transactor using a pgx connection pool.
// It stores the active pgx.Tx in context so that repository methods called
// from fn participate in the same transaction.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a Transactor backed by the given connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// InTransaction begins a transaction, stores it in context, and calls fn.
// If fn returns nil, the transaction is committed. Otherwise it is rolled back.
// A transaction already present in ctx is reused and left for its owner to finish.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ auth.Transactor = (*Transactor)(nil)
