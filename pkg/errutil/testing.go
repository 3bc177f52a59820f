// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package errutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err carries the oops code, e.g.
// "AUTH_STORAGE_FAILURE" or "SESSION_RESOLVE_FAILED". The code reported by
// oops is the innermost one in the chain.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, oopsErr.Code(), "error: %v", err)
}

// AssertErrorContext asserts that err has the context key with value, e.g.
// ("operation", "get user by email") or ("key", "database_url").
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertErrorKind asserts the pairing used across the auth service: err
// matches the taxonomy sentinel and carries the code handlers map to a status.
func AssertErrorKind(t *testing.T, err error, sentinel error, code string) {
	t.Helper()
	require.ErrorIs(t, err, sentinel)
	AssertErrorCode(t, err, code)
}

// AssertNoSecrets asserts that neither the message nor the oops context of
// err mentions any of secrets (passwords, hashes, raw session tokens).
func AssertNoSecrets(t *testing.T, err error, secrets ...string) {
	t.Helper()
	require.Error(t, err)

	rendered := []string{err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		for k, v := range oopsErr.Context() {
			rendered = append(rendered, fmt.Sprintf("%s=%v", k, v))
		}
	}
	text := strings.Join(rendered, "\n")

	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		assert.NotContains(t, text, secret, "error exposes a secret")
	}
}
