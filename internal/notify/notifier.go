// Package notify raises one-shot desktop notifications when usage
// crosses severity thresholds, at most once per bucket per quota
// period.
package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/claudewatch/internal/logger"
	"github.com/j-veylop/claudewatch/internal/models"
	"github.com/j-veylop/claudewatch/internal/store"
)

// Blobs is the persistence subset the notifier needs.
type Blobs interface {
	Load(key string) (value []byte, found bool, err error)
	Save(key string, value []byte) error
}

// Deliverer sends one notification. Failures are swallowed by the
// notifier; a failed delivery still counts as notified.
type Deliverer interface {
	Send(bucketID string, severity models.Threshold, message string) error
}

// monitoredBuckets are the only buckets that ever alert. Everything
// else is displayed but evaluated as a no-op.
var monitoredBuckets = map[string]struct{}{
	"five_hour": {},
	"seven_day": {},
}

// record tracks which severities have already fired for a bucket in
// the current quota period.
type record struct {
	ResetsAt     *time.Time         `json:"resetsAt,omitempty"`
	Acknowledged []models.Threshold `json:"acknowledgedThresholds"`
}

func (r *record) acknowledged(t models.Threshold) bool {
	for _, a := range r.Acknowledged {
		if a == t {
			return true
		}
	}
	return false
}

// lowestAcknowledged returns the smallest acknowledged threshold.
func (r *record) lowestAcknowledged() (models.Threshold, bool) {
	if len(r.Acknowledged) == 0 {
		return 0, false
	}
	lowest := r.Acknowledged[0]
	for _, a := range r.Acknowledged[1:] {
		if a < lowest {
			lowest = a
		}
	}
	return lowest, true
}

// Notifier is the per-bucket threshold state machine. Evaluate is
// called on every successful fetch; buckets are independent.
type Notifier struct {
	mu        sync.Mutex
	deliverer Deliverer
	blobs     Blobs
	records   map[string]*record
	now       func() time.Time
}

// New creates a notifier, loading persisted acknowledgement records.
// Records that fail to parse are discarded.
func New(deliverer Deliverer, blobs Blobs) *Notifier {
	n := &Notifier{
		deliverer: deliverer,
		blobs:     blobs,
		records:   make(map[string]*record),
		now:       time.Now,
	}

	data, found, err := blobs.Load(store.KeyNotificationRecords)
	if err != nil {
		logger.Error("failed to load notification records", "error", err)
		return n
	}
	if found {
		if err := json.Unmarshal(data, &n.records); err != nil {
			logger.Warn("discarding malformed notification records", "error", err)
			n.records = make(map[string]*record)
		}
	}
	return n
}

// Evaluate runs the threshold state machine over one fetch's limits,
// delivering notifications for newly crossed severities.
func (n *Notifier) Evaluate(limits []models.UsageLimit) {
	n.mu.Lock()
	defer n.mu.Unlock()

	changed := false
	for i := range limits {
		if _, ok := monitoredBuckets[limits[i].ID]; !ok {
			continue
		}
		if n.evaluateBucket(&limits[i]) {
			changed = true
		}
	}

	if changed {
		n.persist()
	}
}

// evaluateBucket applies the transition algorithm for one bucket and
// reports whether its record changed.
func (n *Notifier) evaluateBucket(limit *models.UsageLimit) bool {
	rec, changed := n.currentRecord(limit)

	for _, threshold := range models.Thresholds {
		if limit.Utilization < float64(threshold) {
			continue
		}
		if rec.acknowledged(threshold) {
			continue
		}

		msg := fmt.Sprintf("%s is at %.0f%% of its limit", limit.Title, limit.Utilization*100)
		if err := n.deliverer.Send(limit.ID, threshold, msg); err != nil {
			// Best effort. A failed delivery still counts as
			// notified so we do not storm the user later.
			logger.Error("notification delivery failed",
				"bucket", limit.ID, "severity", threshold.Name(), "error", err)
		}
		rec.Acknowledged = append(rec.Acknowledged, threshold)
		changed = true
	}

	return changed
}

// currentRecord returns the bucket's record, replacing it with a fresh
// one when a period boundary is detected.
func (n *Notifier) currentRecord(limit *models.UsageLimit) (rec *record, reset bool) {
	existing, ok := n.records[limit.ID]
	if !ok || n.periodReset(existing, limit) {
		fresh := &record{ResetsAt: limit.ResetsAt}
		n.records[limit.ID] = fresh
		return fresh, true
	}
	return existing, false
}

// periodReset reports whether a new quota period has begun for the
// bucket since the record was written.
func (n *Notifier) periodReset(rec *record, limit *models.UsageLimit) bool {
	if !timesEqual(rec.ResetsAt, limit.ResetsAt) {
		return true
	}
	if rec.ResetsAt != nil && rec.ResetsAt.Before(n.now()) {
		return true
	}
	// Utilization dropping below the lowest fired threshold means the
	// quota was reset or topped up, not crossed back down.
	if lowest, ok := rec.lowestAcknowledged(); ok && limit.Utilization < float64(lowest) {
		return true
	}
	return false
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// persist writes the full record map. Failures are logged and
// swallowed; the in-memory records stay authoritative for this
// process's lifetime.
func (n *Notifier) persist() {
	data, err := json.Marshal(n.records)
	if err != nil {
		logger.Error("failed to encode notification records", "error", err)
		return
	}
	if err := n.blobs.Save(store.KeyNotificationRecords, data); err != nil {
		logger.Error("failed to persist notification records", "error", err)
	}
}
