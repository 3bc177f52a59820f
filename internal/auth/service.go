// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/auramatch/auramatch/pkg/errutil"
)

// dummyPasswordHash is verified when an email is unknown so that login timing
// does not reveal which emails are registered. It never matches any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// ServiceDeps are the collaborators required by Service.
type ServiceDeps struct {
	Users      UserRepository
	Profiles   ProfileRepository
	Sessions   SessionRepository
	Transactor Transactor
	Hasher     PasswordHasher
}

// ServiceOption configures optional Service behavior.
type ServiceOption func(*Service)

// WithLogger sets the logger used for server-side error detail.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// Service provides registration, login, logout and identity resolution.
type Service struct {
	users    UserRepository
	profiles ProfileRepository
	sessions SessionRepository
	tx       Transactor
	hasher   PasswordHasher
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

// NewService creates a new Service. All dependencies are required.
func NewService(deps ServiceDeps, opts ...ServiceOption) (*Service, error) {
	switch {
	case deps.Users == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("users repository is required")
	case deps.Profiles == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("profiles repository is required")
	case deps.Sessions == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("sessions repository is required")
	case deps.Transactor == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("transactor is required")
	case deps.Hasher == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}

	s := &Service{
		users:    deps.Users,
		profiles: deps.Profiles,
		sessions: deps.Sessions,
		tx:       deps.Transactor,
		hasher:   deps.Hasher,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger cannot be nil")
	}
	if s.now == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("clock cannot be nil")
	}
	return s, nil
}

// Register creates a user and its profile atomically, then issues a session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user *User, session *Session, err error) {
	defer func() { s.metrics.RecordOperation(OpRegister, err) }()

	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		errutil.LogError(ctx, s.logger, "password hashing failed", err)
		return nil, nil, oops.With("operation", "hash password").Wrap(err)
	}

	candidate := &User{
		ID:           ulid.Make(),
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, candidate); err != nil {
			return err
		}
		return s.profiles.Create(ctx, NewProfile(candidate.ID))
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			s.logger.InfoContext(ctx, "registration rejected", "reason", "duplicate email")
			return nil, nil, oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
		}
		errutil.LogError(ctx, s.logger, "registration transaction failed", err)
		return nil, nil, storageFailure("create user and profile", err)
	}

	// Re-read for server-assigned fields (created_at).
	user, err = s.users.GetByID(ctx, candidate.ID)
	if err != nil {
		errutil.LogError(ctx, s.logger, "reading registered user failed", err)
		return nil, nil, storageFailure("get registered user", err)
	}

	session, err = s.IssueSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return user.Public(), session, nil
}

// Login authenticates a user by email and password and issues a session.
// Unknown emails, wrong passwords and corrupt stored hashes all fail with
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (user *User, session *Session, err error) {
	defer func() { s.metrics.RecordOperation(OpLogin, err) }()

	found, lookupErr := s.users.GetByEmail(ctx, email)

	// Always verify, against a dummy hash if needed, to keep timing uniform.
	targetHash := dummyPasswordHash
	switch {
	case lookupErr == nil:
		targetHash = found.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		found = nil
	default:
		errutil.LogError(ctx, s.logger, "login lookup failed", lookupErr)
		return nil, nil, storageFailure("get user by email", lookupErr)
	}

	verifyErr := s.hasher.Verify(password, targetHash)
	if found == nil || verifyErr != nil {
		if found != nil {
			s.logger.DebugContext(ctx, "login rejected",
				"user_id", found.ID.String(),
				"error", verifyErr,
			)
		}
		return nil, nil, invalidCredentials()
	}

	session, err = s.IssueSession(ctx, found.ID)
	if err != nil {
		return nil, nil, err
	}
	return found.Public(), session, nil
}

// IssueSession creates and persists a new session for userID.
func (s *Service) IssueSession(ctx context.Context, userID ulid.ULID) (*Session, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		errutil.LogError(ctx, s.logger, "session token generation failed", err)
		return nil, oops.Code("AUTH_SESSION_ISSUE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	now := s.now()
	session := &Session{
		Token:     token,
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		errutil.LogError(ctx, s.logger, "persisting session failed", err)
		return nil, storageFailure("persist session", err)
	}

	s.metrics.recordSessionIssued()
	return session, nil
}

// Logout revokes the session identified by token. An empty token means the
// caller is already logged out and is not an error. Revoking a token that no
// longer exists also succeeds.
func (s *Service) Logout(ctx context.Context, token string) (err error) {
	defer func() { s.metrics.RecordOperation(OpLogout, err) }()

	if token == "" {
		return nil
	}

	if err := s.sessions.DeleteByTokenHash(ctx, HashSessionToken(token)); err != nil {
		errutil.LogError(ctx, s.logger, "session revocation failed", err)
		return storageFailure("delete session", err)
	}
	return nil
}

// CurrentUser resolves token into the authenticated user. It returns (nil, nil)
// when the token is absent, unknown or expired; only storage errors are
// reported as errors.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		s.metrics.recordAnonymous()
		return nil, nil
	}

	user, err := s.sessions.ResolveIdentity(ctx, HashSessionToken(token), s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.recordAnonymous()
			return nil, nil
		}
		errutil.LogError(ctx, s.logger, "identity resolution failed", err)
		err = storageFailure("resolve identity", err)
		s.metrics.RecordOperation(OpCurrentUser, err)
		return nil, err
	}

	s.metrics.RecordOperation(OpCurrentUser, nil)
	return user.Public(), nil
}
