// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// User represents an account identity.
type User struct {
	ID           ulid.ULID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns a copy of the user without credential material.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	public := *u
	public.PasswordHash = ""
	return &public
}

// Profile is the 1:1 satellite record created alongside every User.
type Profile struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Bio       string
	Interests string
	AvatarURL string
}

// NewProfile returns an empty profile bound to userID.
func NewProfile(userID ulid.ULID) *Profile {
	return &Profile{
		ID:     ulid.Make(),
		UserID: userID,
	}
}

// RegisterInput carries the fields submitted at registration.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Validate checks the registration preconditions enforced before any hashing
// or storage work.
func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return oops.Code("AUTH_VALIDATION_FAILED").
			With("field", "email").
			Wrapf(ErrValidationFailure, "email cannot be empty")
	}
	return ValidatePassword(in.Password)
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_VALIDATION_FAILED").
			With("field", "password").
			With("min", MinPasswordLength).
			Wrapf(ErrValidationFailure, "password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// UserRepository manages user persistence.
// Implementations participate in the transaction carried by ctx, if any.
type UserRepository interface {
	// Create stores a new user. The database assigns CreatedAt.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user's public fields by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user including its password hash (exact match).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// ProfileRepository manages profile persistence.
type ProfileRepository interface {
	// Create stores a new profile.
	Create(ctx context.Context, profile *Profile) error

	// GetByUserID retrieves the profile owned by userID.
	GetByUserID(ctx context.Context, userID ulid.ULID) (*Profile, error)
}

// Transactor runs fn inside a single database transaction. The transaction
// commits only if fn returns nil and is rolled back otherwise.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
