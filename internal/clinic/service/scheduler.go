package service

import (
	"context"
	"time"

	"github.com/medflow/clinic-backend/pkg/logger"
)

// BatchExpirer is satisfied by *InventoryService
type BatchExpirer interface {
	ExpireBatches(ctx context.Context, now time.Time) (int, error)
}

// ExpiryScheduler runs the expiry sweep periodically
type ExpiryScheduler struct {
	expirer  BatchExpirer
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	now      func() time.Time
}

// NewExpiryScheduler creates a new expiry scheduler
func NewExpiryScheduler(expirer BatchExpirer, interval time.Duration, log *logger.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{
		expirer:  expirer,
		interval: interval,
		logger:   log.WithComponent("expiry-scheduler"),
		now:      time.Now,
	}
}

// Start runs one sweep immediately and then one per interval until Stop
// or ctx is done
func (s *ExpiryScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().Dur("interval", s.interval).Msg("expiry scheduler started")

		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("expiry scheduler stopped")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *ExpiryScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *ExpiryScheduler) sweep(ctx context.Context) {
	start := time.Now()
	n, err := s.expirer.ExpireBatches(ctx, s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	s.logger.Info().
		Int("expired", n).
		Dur("duration", time.Since(start)).
		Msg("expiry sweep completed")
}
