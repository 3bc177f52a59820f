// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auramatch/auramatch/internal/auth"
)

func TestGenerateSessionToken(t *testing.T) {
	t.Run("generates secure token", func(t *testing.T) {
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, 64) // 32 bytes hex-encoded
		assert.Len(t, hash, 64)  // SHA256 hex-encoded
		assert.NotEqual(t, token, hash)
		assert.Equal(t, auth.HashSessionToken(token), hash)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 100 {
			token, _, err := auth.GenerateSessionToken()
			require.NoError(t, err)
			assert.False(t, seen[token], "token repeated")
			seen[token] = true
		}
	})
}

func TestHashSessionToken(t *testing.T) {
	assert.Equal(t, auth.HashSessionToken("testtoken123"), auth.HashSessionToken("testtoken123"))
	assert.NotEqual(t, auth.HashSessionToken("token1"), auth.HashSessionToken("token2"))
	// sha256("") is a well-known constant
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", auth.HashSessionToken(""))
}

func TestSession_IsExpiredAt(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &auth.Session{CreatedAt: issued, ExpiresAt: issued.Add(auth.SessionTTL)}

	tests := []struct {
		name    string
		at      time.Time
		expired bool
	}{
		{"at issue", issued, false},
		{"one nanosecond before expiry", s.ExpiresAt.Add(-time.Nanosecond), false},
		{"exactly at expiry", s.ExpiresAt, true},
		{"after expiry", s.ExpiresAt.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, s.IsExpiredAt(tt.at))
		})
	}
}
