// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

// Package auth provides authentication and session management for AuraMatch.
//
// # Domain Types
//
// User, Profile, and Session are plain records. Sessions are issued only by
// Service.IssueSession so that every token is random, hashed before storage,
// and bound to the fixed SessionTTL.
//
// # Services
//
// Service coordinates the flows exposed to the HTTP layer:
//   - Register - validates input, creates user and profile in one transaction, issues a session
//   - Login - verifies credentials without revealing whether the email exists
//   - Logout - revokes a session token (no-op when absent)
//   - CurrentUser - resolves a session token into the owning user
//
// Every failure returned by Service matches exactly one of ErrInvalidCredentials,
// ErrValidationFailure, ErrDuplicateEmail, ErrStorageFailure or ErrHashingFailure
// under errors.Is. Driver detail stays in the wrapped chain for server-side logs.
package auth
