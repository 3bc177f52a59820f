// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/auramatch/auramatch/internal/auth"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// decodeJSON reads the request body into dst, writing a 400 and returning
// false if it is not a single valid JSON object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, nil, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if dec.More() {
		writeError(w, nil, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("failed to write response", "status", status, "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, errorResponse{Error: msg})
}

// classify maps the auth failure taxonomy onto HTTP.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrValidationFailure):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, auth.ErrInvalidCredentials.Error()
	case errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusConflict, auth.ErrDuplicateEmail.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func validationMessage(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return auth.ErrValidationFailure.Error()
	}
	switch oopsErr.Context()["field"] {
	case "email":
		return "email is required"
	case "password":
		return fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength)
	default:
		return auth.ErrValidationFailure.Error()
	}
}
