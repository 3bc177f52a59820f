// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels for auth metrics.
const (
	OpRegister    = "register"
	OpLogin       = "login"
	OpLogout      = "logout"
	OpCurrentUser = "current_user"
)

// Outcome labels for auth metrics.
const (
	OutcomeSuccess            = "success"
	OutcomeAnonymous          = "anonymous"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeValidationFailed   = "validation_failed"
	OutcomeDuplicateEmail     = "duplicate_email"
	OutcomeStorageFailure     = "storage_failure"
	OutcomeHashingFailure     = "hashing_failure"
	OutcomeError              = "error"
)

// Metrics records auth activity. A nil *Metrics records nothing.
type Metrics struct {
	Operations     *prometheus.CounterVec
	SessionsIssued prometheus.Counter
	SessionsSwept  prometheus.Counter
	SweepFailures  prometheus.Counter
}

// NewMetrics creates auth metrics and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auramatch_auth_operations_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		SessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auramatch_auth_sessions_issued_total",
			Help: "Total number of sessions issued",
		}),
		SessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auramatch_auth_sessions_swept_total",
			Help: "Total number of expired sessions deleted by the sweeper",
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auramatch_auth_sweep_failures_total",
			Help: "Total number of failed expired-session sweeps",
		}),
	}

	reg.MustRegister(m.Operations, m.SessionsIssued, m.SessionsSwept, m.SweepFailures)
	return m
}

// RecordOperation counts one operation with the outcome derived from err.
func (m *Metrics) RecordOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, Outcome(err)).Inc()
}

func (m *Metrics) recordAnonymous() {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(OpCurrentUser, OutcomeAnonymous).Inc()
}

func (m *Metrics) recordSessionIssued() {
	if m == nil {
		return
	}
	m.SessionsIssued.Inc()
}

func (m *Metrics) recordSweep(deleted int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SweepFailures.Inc()
		return
	}
	m.SessionsSwept.Add(float64(deleted))
}

// Outcome maps err onto the failure taxonomy label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrInvalidCredentials):
		return OutcomeInvalidCredentials
	case errors.Is(err, ErrValidationFailure):
		return OutcomeValidationFailed
	case errors.Is(err, ErrDuplicateEmail):
		return OutcomeDuplicateEmail
	case errors.Is(err, ErrStorageFailure):
		return OutcomeStorageFailure
	case errors.Is(err, ErrHashingFailure):
		return OutcomeHashingFailure
	default:
		return OutcomeError
	}
}
