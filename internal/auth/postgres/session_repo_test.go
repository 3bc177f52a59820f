// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auramatch/auramatch/internal/auth"
	"github.com/auramatch/auramatch/pkg/errutil"
)

func TestSessionRepository_Create(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := &auth.Session{
		TokenHash: "abc123",
		UserID:    ulid.Make(),
		ExpiresAt: now.Add(auth.SessionTTL),
		CreatedAt: now,
	}

	tests := []struct {
		name     string
		execErr  error
		wantCode string
	}{
		{name: "inserts session"},
		{
			name:     "token collision",
			execErr:  &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "sessions_pkey"},
			wantCode: "SESSION_TOKEN_COLLISION",
		},
		{
			name:     "failure",
			execErr:  errors.New("connection refused"),
			wantCode: "SESSION_CREATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			exec := mock.ExpectExec(`INSERT INTO sessions`).
				WithArgs(session.TokenHash, session.UserID.String(), session.ExpiresAt, session.CreatedAt)
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
			} else {
				exec.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err = NewSessionRepository(mock).Create(context.Background(), session)
			if tt.wantCode == "" {
				require.NoError(t, err)
			} else {
				errutil.AssertErrorCode(t, err, tt.wantCode)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSessionRepository_DeleteByTokenHash(t *testing.T) {
	t.Run("missing session is not an error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM sessions WHERE token_hash = \$1`).
			WithArgs("gone").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		require.NoError(t, NewSessionRepository(mock).DeleteByTokenHash(context.Background(), "gone"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM sessions WHERE token_hash`).
			WithArgs("abc").
			WillReturnError(errors.New("connection refused"))

		err = NewSessionRepository(mock).DeleteByTokenHash(context.Background(), "abc")
		errutil.AssertErrorCode(t, err, "SESSION_DELETE_FAILED")
	})
}

func TestSessionRepository_ResolveIdentity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := ulid.Make()

	t.Run("live session", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM sessions s\s+INNER JOIN users u`).
			WithArgs("abc", now).
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "display_name", "created_at"}).
				AddRow(userID.String(), "a@x.com", "A", now.Add(-time.Hour)))

		user, err := NewSessionRepository(mock).ResolveIdentity(context.Background(), "abc", now)
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "a@x.com", user.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown or expired", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`s.expires_at > \$2`).
			WithArgs("abc", now).
			WillReturnError(pgx.ErrNoRows)

		_, err = NewSessionRepository(mock).ResolveIdentity(context.Background(), "abc", now)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM sessions s`).
			WithArgs("abc", now).
			WillReturnError(errors.New("connection reset"))

		_, err = NewSessionRepository(mock).ResolveIdentity(context.Background(), "abc", now)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "SESSION_RESOLVE_FAILED")
	})
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := NewSessionRepository(mock).DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
