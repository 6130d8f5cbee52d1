package presence

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestOnlineWithinWindow(t *testing.T) {
	now := time.Now()
	recent := now.Add(-time.Minute)

	assert.True(t, Online(&recent, now, DefaultOnlineWindow))
}

func TestOfflineBeyondWindow(t *testing.T) {
	now := time.Now()
	stale := now.Add(-3 * time.Minute)

	assert.False(t, Online(&stale, now, DefaultOnlineWindow))
}

func TestOfflineAfterCleanDeparture(t *testing.T) {
	assert.False(t, Online(nil, time.Now(), DefaultOnlineWindow))
}

func TestOnlineAtExactBoundary(t *testing.T) {
	now := time.Now()
	edge := now.Add(-DefaultOnlineWindow)

	assert.True(t, Online(&edge, now, DefaultOnlineWindow))
}

func TestOnlineDefaultsWindow(t *testing.T) {
	now := time.Now()
	recent := now.Add(-time.Minute)

	assert.True(t, Online(&recent, now, 0))
}

func TestTrackerBeatsImmediatelyAndOnInterval(t *testing.T) {
	var beats atomic.Int32
	tracker := NewTracker(10*time.Millisecond,
		func(ctx context.Context) error { beats.Add(1); return nil },
		func(ctx context.Context) error { return nil },
		zap.NewNop().Sugar(),
	)

	tracker.Start(context.Background())
	defer tracker.Stop()

	assert.Eventually(t, func() bool { return beats.Load() >= 3 },
		time.Second, 5*time.Millisecond)
}

func TestTrackerStopFiresDeparture(t *testing.T) {
	var departs atomic.Int32
	tracker := NewTracker(time.Hour,
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { departs.Add(1); return nil },
		zap.NewNop().Sugar(),
	)

	tracker.Start(context.Background())
	tracker.Stop()
	tracker.Stop()

	assert.Equal(t, int32(1), departs.Load(), "departure fires once, even on repeated Stop")
}
