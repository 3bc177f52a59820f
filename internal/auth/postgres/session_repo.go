// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/auramatch/auramatch/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO sessions (token_hash, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		session.TokenHash,
		session.UserID.String(),
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return oops.Code("SESSION_TOKEN_COLLISION").
				With("constraint", constraint).
				With("user_id", session.UserID.String()).
				Wrap(err)
		}
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}
	return nil
}

// DeleteByTokenHash removes a session by its token hash.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM sessions WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	// Note: No ErrNotFound if no rows deleted - revocation is idempotent
	return nil
}

// ResolveIdentity returns the public fields of the user owning an unexpired session.
func (r *SessionRepository) ResolveIdentity(ctx context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT u.id, u.email, u.display_name, u.created_at
		FROM sessions s
		INNER JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1 AND s.expires_at > $2
	`, tokenHash, now)

	user, err := scanPublicUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "resolve session identity").
			Wrap(err)
	}
	return user, nil
}

// DeleteExpired removes all sessions expired at now and returns the count.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM sessions WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
