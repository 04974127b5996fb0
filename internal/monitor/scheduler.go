package monitor

import (
	"context"
	"sync"
	"time"
)

// scheduler runs one periodic task. Starting while a previous run is
// active cancels it first, so at most one loop is ever alive. Ticks
// never overlap: each tick's work completes before the next sleep
// begins, so a slow refresh delays the schedule rather than stacking.
type scheduler struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// start launches the periodic loop. It sleeps first; the caller is
// expected to have done an initial tick itself.
func (s *scheduler) start(parent context.Context, interval time.Duration, tick func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)

		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			// The sleep may have raced with cancellation.
			if ctx.Err() != nil {
				return
			}

			tick(ctx)
			timer.Reset(interval)
		}
	}()
}

// stop cancels the loop and waits for it to exit. A tick in flight
// completes; stopping twice is a no-op.
func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}
