// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/auramatch/auramatch/internal/auth"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, auth.OutcomeSuccess},
		{auth.ErrInvalidCredentials, auth.OutcomeInvalidCredentials},
		{fmt.Errorf("wrapped: %w", auth.ErrValidationFailure), auth.OutcomeValidationFailed},
		{auth.ErrDuplicateEmail, auth.OutcomeDuplicateEmail},
		{auth.ErrStorageFailure, auth.OutcomeStorageFailure},
		{auth.ErrHashingFailure, auth.OutcomeHashingFailure},
		{errors.New("other"), auth.OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.Outcome(tt.err))
		})
	}
}

func TestMetrics_RecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := auth.NewMetrics(reg)

	m.RecordOperation(auth.OpLogin, nil)
	m.RecordOperation(auth.OpLogin, auth.ErrInvalidCredentials)
	m.RecordOperation(auth.OpLogin, auth.ErrInvalidCredentials)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues(auth.OpLogin, auth.OutcomeSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Operations.WithLabelValues(auth.OpLogin, auth.OutcomeInvalidCredentials)), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *auth.Metrics
	assert.NotPanics(t, func() { m.RecordOperation(auth.OpLogout, nil) })
}
