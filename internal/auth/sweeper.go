// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/auramatch/auramatch/pkg/errutil"
)

// Sweeper periodically deletes expired sessions. Expiry is already enforced
// when sessions are read; sweeping only keeps the table small.
type Sweeper struct {
	sessions SessionRepository
	interval time.Duration
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

// NewSweeper creates a Sweeper that runs every interval.
func NewSweeper(sessions SessionRepository, interval time.Duration, logger *slog.Logger, metrics *Metrics) (*Sweeper, error) {
	if sessions == nil {
		return nil, oops.Code("SWEEPER_INVALID").Errorf("sessions repository is required")
	}
	if interval <= 0 {
		return nil, oops.Code("SWEEPER_INVALID").With("interval", interval).Errorf("interval must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}, nil
}

// SweepOnce deletes sessions expired at the current time.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	deleted, err := s.sessions.DeleteExpired(ctx, s.now())
	s.metrics.recordSweep(deleted, err)
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").Wrap(err)
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "expired sessions swept", "deleted", deleted)
	}
	return deleted, nil
}

// Run sweeps every interval until ctx is cancelled. Failed sweeps are logged
// and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				errutil.LogError(ctx, s.logger, "session sweep failed", err)
			}
		}
	}
}
