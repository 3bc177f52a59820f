// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32             // 32 bytes = 64 hex chars
	SessionTTL        = 24 * time.Hour // fixed lifetime from issue
)

// Session is an authentication grant. Token is the bearer credential handed to
// the client; only TokenHash is ever persisted.
type Session struct {
	Token     string
	TokenHash string
	UserID    ulid.ULID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpiredAt reports whether the session is no longer valid at t.
// A session is valid only while t is strictly before ExpiresAt.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// The plaintext token is sent to the client; the hash is stored in the database.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the SHA256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionRepository manages session persistence and is the sole authority on
// session validity.
type SessionRepository interface {
	// Create stores a new session. A token hash collision fails; it never
	// overwrites an existing row.
	Create(ctx context.Context, session *Session) error

	// DeleteByTokenHash removes a session. Deleting a missing session is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// ResolveIdentity returns the public fields of the user owning the session
	// if the session exists and expires after now. Returns ErrNotFound otherwise.
	ResolveIdentity(ctx context.Context, tokenHash string, now time.Time) (*User, error)

	// DeleteExpired removes sessions whose expiry is at or before now and
	// returns the number of deleted rows.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
