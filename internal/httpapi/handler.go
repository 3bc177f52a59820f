// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

// Package httpapi exposes the auth service as a JSON HTTP API. The session
// token travels in an HTTP-only cookie; handlers only decode, delegate and
// map errors to status codes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/auramatch/auramatch/internal/auth"
	"github.com/auramatch/auramatch/pkg/errutil"
)

// AuthService is the subset of auth.Service used by the handlers.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.User, *auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.User, *auth.Session, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*auth.User, error)
}

// Handler serves the /api routes.
type Handler struct {
	svc    AuthService
	logger *slog.Logger
}

// NewHandler creates a Handler. A nil logger uses slog.Default().
func NewHandler(svc AuthService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User *auth.User `json:"user"`
}

// Register handles POST /api/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, session, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.writeServiceError(w, r, "register", err)
		return
	}

	http.SetCookie(w, auth.NewSessionCookie(session.Token))
	writeJSON(w, h.logger, http.StatusCreated, userResponse{User: user})
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "login", err)
		return
	}

	http.SetCookie(w, auth.NewSessionCookie(session.Token))
	writeJSON(w, h.logger, http.StatusOK, userResponse{User: user})
}

// Logout handles POST /api/logout. The cookie is cleared even if the session
// no longer exists.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Logout(r.Context(), auth.SessionTokenFromRequest(r))
	http.SetCookie(w, auth.ClearSessionCookie())
	if err != nil {
		h.writeServiceError(w, r, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.CurrentUser(r.Context(), auth.SessionTokenFromRequest(r))
	if err != nil {
		h.writeServiceError(w, r, "me", err)
		return
	}
	if user == nil {
		writeError(w, h.logger, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, userResponse{User: user})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}

// writeServiceError maps err onto a status and coarse message. Server faults
// are logged with full detail; the client never sees it.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, route string, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		errutil.LogError(r.Context(), h.logger, "request failed", err, "route", route)
	}
	writeError(w, h.logger, status, msg)
}
