// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/auramatch/auramatch/internal/auth"
)

// ProfileRepository implements auth.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	pool Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Create stores a new profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *auth.Profile) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO profiles (id, user_id, bio, interests, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
	`,
		profile.ID.String(),
		profile.UserID.String(),
		profile.Bio,
		profile.Interests,
		profile.AvatarURL,
	)
	if err != nil {
		return oops.Code("PROFILE_CREATE_FAILED").
			With("operation", "insert profile").
			With("user_id", profile.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByUserID retrieves the profile owned by userID.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID ulid.ULID) (*auth.Profile, error) {
	var (
		idStr   string
		profile auth.Profile
	)
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, bio, interests, avatar_url
		FROM profiles
		WHERE user_id = $1
	`, userID.String()).Scan(&idStr, &profile.Bio, &profile.Interests, &profile.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROFILE_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROFILE_GET_FAILED").
			With("operation", "get profile by user").
			With("user_id", userID.String()).
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PROFILE_INVALID_ID").
			With("operation", "parse profile id").
			With("id", idStr).
			Wrap(err)
	}
	profile.ID = id
	profile.UserID = userID
	return &profile, nil
}

// Compile-time interface check.
var _ auth.ProfileRepository = (*ProfileRepository)(nil)
