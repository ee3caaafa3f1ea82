// Package cron runs the out-of-band stale-HOLD expiry sweep (spec P7):
// internal/discover already expires stale HOLDs inline before every
// availability read, but a booking that is created and then never looked
// up again would otherwise sit in HOLD state forever. This package
// schedules an independent periodic sweep so P7 holds even for screens
// nobody is currently discovering.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
)

// Sweeper expires stale HOLD bookings on a cron schedule.
type Sweeper interface {
	ExpireStaleHolds(ctx context.Context, maxAge time.Duration) (int, error)
}

// Scheduler polls a gronx expression and runs the sweep whenever it is due.
type Scheduler struct {
	expr      string
	maxAge    time.Duration
	sweeper   Sweeper
	logger    *slog.Logger
	pollEvery time.Duration
}

func NewScheduler(expr string, maxAge time.Duration, sweeper Sweeper, logger *slog.Logger) *Scheduler {
	if expr == "" {
		expr = "*/5 * * * *"
	}
	return &Scheduler{expr: expr, maxAge: maxAge, sweeper: sweeper, logger: logger, pollEvery: 30 * time.Second}
}

// Run blocks until ctx is cancelled, firing the sweep each time expr is due.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	last := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := gronx.IsDue(s.expr, now)
			if err != nil {
				s.logger.Warn("cron: invalid expression", "expr", s.expr, "error", err)
				continue
			}
			if !due || now.Truncate(time.Minute).Equal(last) {
				continue
			}
			last = now.Truncate(time.Minute)
			s.sweepOnce(ctx)
		}
	}
}

func (s *Scheduler) sweepOnce(ctx context.Context) {
	n, err := s.sweeper.ExpireStaleHolds(ctx, s.maxAge)
	if err != nil {
		s.logger.Warn("cron: stale hold sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("cron: expired stale holds", "count", n)
	}
}
