package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claudewatch/internal/models"
	"github.com/j-veylop/claudewatch/internal/monitor"
)

const (
	// tickInterval drives the countdown and staleness redraws.
	tickInterval = time.Second

	// actionTimeout bounds the network calls behind key presses.
	actionTimeout = 15 * time.Second
)

// ErrTokenRejected is reported when a manually entered token fails
// validation against the usage API.
var ErrTokenRejected = errors.New("token was rejected by the usage API")

// waitForStateCmd blocks on the subscription and delivers the next
// snapshot. It re-arms itself from the Update loop.
func waitForStateCmd(updates <-chan models.ServiceState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return nil
		}
		return StateMsg{State: st}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func refreshCmd(mon *monitor.Monitor) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		mon.Refresh(ctx)
		return RefreshDoneMsg{}
	}
}

// saveTokenCmd validates the entered token against the live API before
// persisting it. A token that fails validation is never written.
func saveTokenCmd(mon *monitor.Monitor, token string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		if !mon.ValidateCredential(ctx, token) {
			return TokenSavedMsg{Err: ErrTokenRejected}
		}
		return TokenSavedMsg{Err: mon.SaveCredential(ctx, token)}
	}
}

func toggleSourceCmd(mon *monitor.Monitor, current models.TokenSource) tea.Cmd {
	next := models.SourcePrimary
	if current == models.SourcePrimary {
		next = models.SourceManual
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return SourceToggledMsg{Source: next, Err: mon.SetPreferredSource(ctx, next)}
	}
}

func clearCredentialCmd(mon *monitor.Monitor) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return CredentialClearedMsg{Err: mon.ClearCredential(ctx)}
	}
}
