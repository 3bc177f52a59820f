// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/auramatch/auramatch/internal/auth"
)

// cleanupT is the subset of testing.TB needed by the constructors.
type cleanupT interface {
	mock.TestingT
	Cleanup(func())
}

func userOrNil(v any) *auth.User {
	if v == nil {
		return nil
	}
	return v.(*auth.User) //nolint:forcetypeassert // mock return contract
}

// MockUserRepository is a mock of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository whose expectations are
// asserted when the test ends.
func NewMockUserRepository(t cleanupT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if rf, ok := args.Get(0).(func(context.Context, ulid.ULID) (*auth.User, error)); ok {
		return rf(ctx, id)
	}
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args.Get(0)), args.Error(1)
}

// MockProfileRepository is a mock of auth.ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

// NewMockProfileRepository creates a MockProfileRepository.
func NewMockProfileRepository(t cleanupT) *MockProfileRepository {
	m := &MockProfileRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *auth.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByUserID(ctx context.Context, userID ulid.ULID) (*auth.Profile, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*auth.Profile), args.Error(1) //nolint:forcetypeassert // mock return contract
	}
	return nil, args.Error(1)
}

// MockSessionRepository is a mock of auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a MockSessionRepository.
func NewMockSessionRepository(t cleanupT) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockSessionRepository) ResolveIdentity(ctx context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	args := m.Called(ctx, tokenHash, now)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1) //nolint:forcetypeassert // mock return contract
}

// MockPasswordHasher is a mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher.
func NewMockPasswordHasher(t cleanupT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) error {
	args := m.Called(password, hash)
	return args.Error(0)
}

// PassthroughTransactor runs fn directly on the caller's context. Tests use it
// in place of a database transaction and inspect Calls to confirm the unit of
// work was wrapped.
type PassthroughTransactor struct {
	Calls int
}

// InTransaction implements auth.Transactor.
func (p *PassthroughTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.Calls++
	return fn(ctx)
}

var (
	_ auth.UserRepository    = (*MockUserRepository)(nil)
	_ auth.ProfileRepository = (*MockProfileRepository)(nil)
	_ auth.SessionRepository = (*MockSessionRepository)(nil)
	_ auth.PasswordHasher    = (*MockPasswordHasher)(nil)
	_ auth.Transactor        = (*PassthroughTransactor)(nil)
)
