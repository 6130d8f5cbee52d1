package presence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker writes the heartbeat once immediately on start and then on a
// fixed interval until stopped. On stop it makes one best-effort departure
// write; browser-style teardown races mean that write is not guaranteed,
// so readers must never treat presence as strongly consistent.
type Tracker struct {
	interval time.Duration
	beat     func(ctx context.Context) error
	depart   func(ctx context.Context) error
	log      *zap.SugaredLogger

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

func NewTracker(interval time.Duration, beat, depart func(ctx context.Context) error, log *zap.SugaredLogger) *Tracker {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Tracker{
		interval: interval,
		beat:     beat,
		depart:   depart,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Start runs the heartbeat loop until Stop is called or ctx is cancelled.
func (t *Tracker) Start(ctx context.Context) {
	go func() {
		if err := t.beat(ctx); err != nil {
			t.log.Warnw("heartbeat failed", "err", err)
		}

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := t.beat(ctx); err != nil {
					t.log.Warnw("heartbeat failed", "err", err)
				}
			case <-t.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the heartbeat loop and fires the departure write. Safe to
// call more than once and on every exit path.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	close(t.stop)
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.depart(ctx); err != nil {
		t.log.Warnw("departure write failed", "err", err)
	}
}
