// Package models defines data structures and domain types.
package models

import "time"

// TokenSource identifies which credential path supplied the active secret.
type TokenSource string

const (
	// SourcePrimary is the read-only credential written by Claude Code itself.
	SourcePrimary TokenSource = "primary"
	// SourceManual is a token the user entered by hand.
	SourceManual TokenSource = "manual"
)

// Valid reports whether s is a known token source.
func (s TokenSource) Valid() bool {
	return s == SourcePrimary || s == SourceManual
}

// Threshold is a utilization level that triggers at most one
// notification per bucket per quota period.
type Threshold float64

const (
	// ThresholdWarning fires when a bucket reaches 75% utilization.
	ThresholdWarning Threshold = 0.75
	// ThresholdCritical fires when a bucket reaches 90% utilization.
	ThresholdCritical Threshold = 0.90
)

// Thresholds lists all severity levels in ascending order.
var Thresholds = []Threshold{ThresholdWarning, ThresholdCritical}

// Name returns the severity label for the threshold.
func (t Threshold) Name() string {
	switch t {
	case ThresholdWarning:
		return "warning"
	case ThresholdCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// UsageLimit is one quota bucket as shown to subscribers.
// Utilization is normalized to [0.0, 1.0].
type UsageLimit struct {
	ID          string
	Title       string
	Utilization float64
	ResetsAt    *time.Time
}

// ServiceState is the snapshot published to subscribers. A new value is
// constructed on every mutation; it is never mutated in place.
type ServiceState struct {
	UsageLimits        []UsageLimit
	LastUpdated        *time.Time
	Err                error
	ActiveSource       *TokenSource
	HasValidCredential bool
	PreferredSource    TokenSource
}

// Limit returns the usage limit with the given bucket id, or nil.
func (s ServiceState) Limit(id string) *UsageLimit {
	for i := range s.UsageLimits {
		if s.UsageLimits[i].ID == id {
			return &s.UsageLimits[i]
		}
	}
	return nil
}
