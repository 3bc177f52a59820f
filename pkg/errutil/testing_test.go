// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package errutil_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"

	"github.com/auramatch/auramatch/pkg/errutil"
)

var errStorage = errors.New("storage failure")

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
}

func TestAssertErrorCode_InnermostCodeWins(t *testing.T) {
	inner := oops.Code("SESSION_RESOLVE_FAILED").Errorf("connection reset")
	err := oops.Code("AUTH_STORAGE_FAILURE").Wrap(inner)
	errutil.AssertErrorCode(t, err, "SESSION_RESOLVE_FAILED")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("operation", "persist session").Errorf("test error")
	errutil.AssertErrorContext(t, err, "operation", "persist session")
}

func TestAssertErrorKind(t *testing.T) {
	err := oops.Code("AUTH_STORAGE_FAILURE").
		With("operation", "get user by email").
		Wrap(fmt.Errorf("%w: %w", errStorage, errors.New("connection refused")))
	errutil.AssertErrorKind(t, err, errStorage, "AUTH_STORAGE_FAILURE")
}

func TestAssertNoSecrets(t *testing.T) {
	err := oops.Code("AUTH_INVALID_CREDENTIALS").
		With("email", "a@x.com").
		Errorf("invalid email or password")
	errutil.AssertNoSecrets(t, err, "s3cretpassword", "$argon2id$stored", "")
}
