// Package monitor owns the current usage state: it refreshes it on a
// fixed interval, evaluates thresholds on every successful fetch, and
// publishes every snapshot to subscribers.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/j-veylop/claudewatch/internal/api"
	"github.com/j-veylop/claudewatch/internal/logger"
	"github.com/j-veylop/claudewatch/internal/models"
	"github.com/j-veylop/claudewatch/internal/store"
)

// ErrNoCredential is set on the snapshot when no secret can be
// resolved for the preferred source.
var ErrNoCredential = errors.New("no credential available")

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 60 * time.Second

// CredentialResolver is the credential surface the monitor needs.
type CredentialResolver interface {
	Resolve(ctx context.Context, src models.TokenSource) (secret string, ok bool)
	Available(ctx context.Context, src models.TokenSource) bool
	SaveManual(secret string) error
	ClearManual() error
}

// UsageClient performs one remote usage fetch.
type UsageClient interface {
	FetchUsage(ctx context.Context, token string) (*api.UsageResponse, error)
}

// Evaluator runs the threshold state machine over one fetch's limits.
type Evaluator interface {
	Evaluate(limits []models.UsageLimit)
}

// Blobs is the persistence subset the monitor needs for the source
// preference.
type Blobs interface {
	Load(key string) (value []byte, found bool, err error)
	Save(key string, value []byte) error
}

// Monitor is the single owner of the current usage snapshot. All
// mutations execute one at a time behind one mutex; readers observe
// only complete snapshots.
type Monitor struct {
	mu    sync.Mutex
	state models.ServiceState

	resolver CredentialResolver
	client   UsageClient
	notifier Evaluator
	blobs    Blobs

	interval time.Duration
	now      func() time.Time

	subMu sync.Mutex
	subs  map[*Subscription]struct{}

	sched scheduler
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides the refresh period.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// New creates a monitor. The persisted source preference is loaded
// here; everything else waits for Start or an explicit Refresh.
func New(resolver CredentialResolver, client UsageClient, notifier Evaluator, blobs Blobs, opts ...Option) *Monitor {
	m := &Monitor{
		resolver: resolver,
		client:   client,
		notifier: notifier,
		blobs:    blobs,
		interval: DefaultInterval,
		now:      time.Now,
		subs:     make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.state = models.ServiceState{PreferredSource: models.SourcePrimary}
	if data, found, err := blobs.Load(store.KeyPreferredSource); err != nil {
		logger.Error("failed to load source preference", "error", err)
	} else if found {
		if src := models.TokenSource(data); src.Valid() {
			m.state.PreferredSource = src
		}
	}

	return m
}

// Start performs one refresh and then begins periodic refreshing.
// Restarting cancels the previous periodic task first.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if !m.resolver.Available(ctx, m.state.PreferredSource) {
		logger.Info("no credential available at startup",
			"source", m.state.PreferredSource)
	}
	m.refreshLocked(ctx)
	m.mu.Unlock()

	m.sched.start(ctx, m.interval, func(tickCtx context.Context) {
		m.Refresh(tickCtx)
	})
}

// Stop cancels the periodic refresh. A refresh already in flight is
// allowed to complete. Safe to call repeatedly.
func (m *Monitor) Stop() {
	m.sched.stop()
}

// Refresh performs one refresh cycle and publishes the result.
func (m *Monitor) Refresh(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLocked(ctx)
}

// refreshLocked is the refresh pipeline. Callers hold m.mu.
func (m *Monitor) refreshLocked(ctx context.Context) {
	st := m.state
	st.Err = nil

	secret, ok := m.resolver.Resolve(ctx, st.PreferredSource)
	if !ok {
		st.Err = ErrNoCredential
		st.ActiveSource = nil
		st.HasValidCredential = false
		m.setAndPublish(st)
		return
	}

	src := st.PreferredSource
	st.ActiveSource = &src
	st.HasValidCredential = true

	resp, err := m.client.FetchUsage(ctx, secret)
	if err != nil {
		// Previous limits stay; the UI shows last known good data
		// next to the error.
		st.Err = err
		m.setAndPublish(st)
		return
	}

	limits := resp.Limits()
	now := m.now()
	st.UsageLimits = limits
	st.LastUpdated = &now

	m.notifier.Evaluate(limits)
	m.setAndPublish(st)
}

// SetPreferredSource updates and persists the preference, then
// refreshes.
func (m *Monitor) SetPreferredSource(ctx context.Context, src models.TokenSource) error {
	if !src.Valid() {
		return errors.New("unknown token source")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.PreferredSource = src
	if err := m.blobs.Save(store.KeyPreferredSource, []byte(src)); err != nil {
		logger.Error("failed to persist source preference", "error", err)
	}
	m.refreshLocked(ctx)
	return nil
}

// ValidateCredential checks whether an ad-hoc secret can fetch usage.
// It has no effect on stored state.
func (m *Monitor) ValidateCredential(ctx context.Context, secret string) bool {
	_, err := m.client.FetchUsage(ctx, secret)
	return err == nil
}

// SaveCredential stores a manual token and refreshes.
func (m *Monitor) SaveCredential(ctx context.Context, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.resolver.SaveManual(secret); err != nil {
		return err
	}
	m.refreshLocked(ctx)
	return nil
}

// ClearCredential removes the manual token, drops cached limits, and
// publishes immediately without a fetch.
func (m *Monitor) ClearCredential(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.resolver.ClearManual(); err != nil {
		return err
	}

	st := m.state
	st.UsageLimits = nil
	st.LastUpdated = nil
	if m.resolver.Available(ctx, st.PreferredSource) {
		src := st.PreferredSource
		st.ActiveSource = &src
		st.HasValidCredential = true
	} else {
		st.ActiveSource = nil
		st.HasValidCredential = false
	}
	m.setAndPublish(st)
	return nil
}

// IsCredentialAvailable reports whether the source can currently
// produce a secret.
func (m *Monitor) IsCredentialAvailable(ctx context.Context, src models.TokenSource) bool {
	return m.resolver.Available(ctx, src)
}

// State returns the current snapshot.
func (m *Monitor) State() models.ServiceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// setAndPublish installs the new snapshot and fans it out. Callers
// hold m.mu, so publishes happen in mutation order.
func (m *Monitor) setAndPublish(st models.ServiceState) {
	m.state = st

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for sub := range m.subs {
		sub.push(st)
	}
}
