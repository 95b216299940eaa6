package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Scheduler triggers a full refresh on a fixed interval.
type Scheduler struct {
	pipeline *Pipeline
	roles    []string
	interval time.Duration
}

func NewScheduler(p *Pipeline, roles []string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{pipeline: p, roles: roles, interval: interval}
}

// Run blocks until ctx is canceled, refreshing all roles once at start and
// then on every tick.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started",
		slog.Duration("interval", s.interval),
		slog.Int("roles", len(s.roles)))

	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	if err := s.pipeline.RefreshAll(ctx, s.roles); err != nil {
		if errors.Is(err, ErrBusy) {
			slog.Warn("scheduled refresh skipped, previous run still active")
			return
		}
		slog.Error("scheduled refresh failed", slog.Any("error", err))
	}
}
