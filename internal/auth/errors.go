// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Failure taxonomy surfaced to callers of Service.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrValidationFailure  = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrStorageFailure     = errors.New("storage failure")
	ErrHashingFailure     = errors.New("password hashing failed")
)

// invalidCredentials builds the single error used for every credential mismatch.
func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}

// storageFailure classifies err as ErrStorageFailure while keeping the driver
// error reachable through errors.Is/As.
func storageFailure(operation string, err error) error {
	return oops.Code("AUTH_STORAGE_FAILURE").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrStorageFailure, err))
}
