package monitor

import (
	"sync"

	"github.com/j-veylop/claudewatch/internal/models"
)

// Subscription is a live feed of snapshots. It delivers the snapshot
// current at subscribe time first, then every publication after it, in
// publish order with no gaps. Each subscription buffers independently,
// so a slow consumer never blocks the monitor or other subscribers.
type Subscription struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []models.ServiceState
	closed bool

	updates chan models.ServiceState
	quit    chan struct{}
	once    sync.Once

	monitor *Monitor
}

// Subscribe registers a new subscription.
func (m *Monitor) Subscribe() *Subscription {
	sub := &Subscription{
		updates: make(chan models.ServiceState),
		quit:    make(chan struct{}),
		monitor: m,
	}
	sub.cond = sync.NewCond(&sub.mu)

	// Seeding the replay and registering happen under the mutation
	// lock. Publishes hold the same lock, so none can land between the
	// seed and the registration, and the replayed snapshot plus
	// subsequent publications form a gap-free ordered sequence.
	m.mu.Lock()
	sub.queue = append(sub.queue, m.state)
	m.subMu.Lock()
	m.subs[sub] = struct{}{}
	m.subMu.Unlock()
	m.mu.Unlock()

	go sub.pump()
	return sub
}

// Updates returns the snapshot channel. It is closed after Cancel.
func (s *Subscription) Updates() <-chan models.ServiceState {
	return s.updates
}

// Cancel detaches the subscription. Idempotent; other subscribers and
// the monitor are unaffected.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.monitor.subMu.Lock()
		delete(s.monitor.subs, s)
		s.monitor.subMu.Unlock()

		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.cond.Signal()
		s.mu.Unlock()

		close(s.quit)
	})
}

// push enqueues a snapshot. Never blocks.
func (s *Subscription) push(st models.ServiceState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, st)
	s.cond.Signal()
}

// pump drains the queue into the updates channel.
func (s *Subscription) pump() {
	defer close(s.updates)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		st := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.updates <- st:
		case <-s.quit:
			return
		}
	}
}
