package ui

import (
	"time"

	"github.com/j-veylop/claudewatch/internal/models"
)

// StateMsg carries a new monitor snapshot to the dashboard.
type StateMsg struct {
	State models.ServiceState
}

// TickMsg is sent once per second to redraw countdowns and the
// staleness marker.
type TickMsg struct {
	Time time.Time
}

// RefreshDoneMsg signals that a manually requested refresh finished.
// The resulting snapshot arrives separately through the subscription.
type RefreshDoneMsg struct{}

// TokenSavedMsg contains the result of validating and saving a
// manually entered token.
type TokenSavedMsg struct {
	Err error
}

// SourceToggledMsg contains the result of switching the preferred
// credential source.
type SourceToggledMsg struct {
	Source models.TokenSource
	Err    error
}

// CredentialClearedMsg contains the result of removing the manual
// credential.
type CredentialClearedMsg struct {
	Err error
}
