package worker

import (
	"context"
	"log/slog"
	"time"

	"funnelhq.app/portal/common/logger"
)

// InvitationSweeper expires overdue pending invitations on a fixed interval.
// Lazy expiry on Validate/Accept covers reads; the sweep keeps listings accurate.
type InvitationSweeper struct {
	expirer  InvitationExpirer
	interval time.Duration

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewInvitationSweeper(expirer InvitationExpirer, interval time.Duration) *InvitationSweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &InvitationSweeper{
		expirer:   expirer,
		interval:  interval,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (s *InvitationSweeper) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "portal.worker.sweeper",
	})

	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "invitation sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			slog.InfoContext(ctx, "invitation sweeper stopping")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *InvitationSweeper) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

// SweepOnce runs a single expiry pass and returns how many invitations expired.
func (s *InvitationSweeper) SweepOnce(ctx context.Context) int {
	n, err := s.expirer.ExpireStale(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "invitation sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired stale invitations", "count", n)
	}
	return n
}
