package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (c *countingExpirer) ExpireBatches(_ context.Context, _ time.Time) (int, error) {
	c.calls.Add(1)
	return 0, c.err
}

func TestExpiryScheduler_SweepsUntilStopped(t *testing.T) {
	expirer := &countingExpirer{}
	scheduler := service.NewExpiryScheduler(expirer, 10*time.Millisecond, logger.Nop())

	scheduler.Start(context.Background())
	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	scheduler.Stop()

	stopped := expirer.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, expirer.calls.Load())
}

func TestExpiryScheduler_KeepsGoingAfterFailure(t *testing.T) {
	expirer := &countingExpirer{err: errors.New("db down")}
	scheduler := service.NewExpiryScheduler(expirer, 10*time.Millisecond, logger.Nop())

	scheduler.Start(context.Background())
	defer scheduler.Stop()
	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
