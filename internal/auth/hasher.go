// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes

	maxArgon2Memory = 1 << 20 // 1 GB, upper bound accepted from stored hashes
)

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted, self-describing hash of the password.
	Hash(password string) (string, error)

	// Verify returns nil when password matches hash. Any mismatch, including a
	// malformed hash, yields ErrInvalidCredentials.
	Verify(password, hash string) error
}

// Argon2idHasher implements PasswordHasher using argon2id PHC strings.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password.
// Callers enforce the minimum password length before calling Hash.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code("AUTH_HASHING_FAILED").
			With("reason", "empty password").
			Wrap(ErrHashingFailure)
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_HASHING_FAILED").
			With("operation", "generate salt").
			Wrap(fmt.Errorf("%w: %w", ErrHashingFailure, err))
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks if the password matches the encoded hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) error {
	params, err := decodeArgon2idHash(encodedHash)
	if err != nil {
		return oops.Code("AUTH_INVALID_CREDENTIALS").
			With("reason", err.Error()).
			Wrap(ErrInvalidCredentials)
	}

	computed := argon2.IDKey([]byte(password), params.salt, params.time, params.memory, params.threads, uint32(len(params.key)))

	if subtle.ConstantTimeCompare(computed, params.key) != 1 {
		return invalidCredentials()
	}
	return nil
}

type argon2idParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// decodeArgon2idHash parses a PHC string produced by Hash.
func decodeArgon2idHash(encoded string) (*argon2idParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(err, "parse version")
	}
	if version != argon2.Version {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(err, "parse parameters")
	}

	// Validate threads fits in uint8 to prevent silent truncation
	if threads == 0 || threads > 255 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}
	if time == 0 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("time cost cannot be zero")
	}
	if memory > maxArgon2Memory {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("memory cost %d exceeds limit", memory)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(err, "decode salt")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(err, "decode key")
	}

	// Validate key length to prevent integer overflow in uint32 conversion
	if len(key) == 0 || len(key) > 1<<30 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}

	return &argon2idParams{
		memory:  memory,
		time:    time,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}
