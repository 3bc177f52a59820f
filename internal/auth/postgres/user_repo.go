// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/auramatch/auramatch/internal/auth"
)

// usersEmailConstraint is the unique constraint on users.email.
const usersEmailConstraint = "users_email_key"

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user. created_at is assigned by the database.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO users (id, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.DisplayName,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == usersEmailConstraint {
			return oops.Code("USER_EMAIL_TAKEN").
				With("constraint", constraint).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user's public fields by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, email, display_name, created_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanPublicUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user, including its password hash, by exact email match.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	var (
		idStr        string
		user         auth.User
		passwordHash string
	)
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(&idStr, &user.Email, &user.DisplayName, &passwordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	id, err := parseUserID(idStr)
	if err != nil {
		return nil, err
	}
	user.ID = id
	user.PasswordHash = passwordHash
	return &user, nil
}

// scanPublicUser scans (id, email, display_name, created_at) into a User.
// Callers are responsible for handling pgx.ErrNoRows and for assigning the
// error code.
func scanPublicUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr       string
		email       string
		displayName string
		createdAt   time.Time
	)
	if err := row.Scan(&idStr, &email, &displayName, &createdAt); err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.With("operation", "scan user").Wrap(err)
	}

	id, err := parseUserID(idStr)
	if err != nil {
		return nil, err
	}
	return &auth.User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   createdAt,
	}, nil
}

func parseUserID(s string) (ulid.ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", s).
			Wrap(err)
	}
	return id, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
