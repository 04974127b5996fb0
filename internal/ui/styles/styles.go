// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the claudewatch theme.
var (
	Primary = lipgloss.Color("208") // Claude orange
	Subtle  = lipgloss.Color("240") // Gray

	// Status colors
	Success  = lipgloss.Color("42")  // Green
	Error    = lipgloss.Color("196") // Red
	Warning  = lipgloss.Color("220") // Yellow
	Critical = lipgloss.Color("203") // Soft red

	// Background colors
	BgLight = lipgloss.Color("237")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for the main heading.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// LabelStyle is used for bucket labels next to bars.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// StatusLineStyle renders the credential/source line.
var StatusLineStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// ErrorBannerStyle renders the fetch-error banner above stale data.
var ErrorBannerStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Error).
	Foreground(Error).
	Padding(0, 1).
	MarginBottom(1)

// StaleStyle marks a snapshot older than the staleness window.
var StaleStyle = lipgloss.NewStyle().
	Foreground(Warning)

// HelpStyle renders the key hints in the footer.
var HelpStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// PromptStyle frames the manual token entry form.
var PromptStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(0, 1)

// UtilizationStyle returns the style for a utilization percentage.
func UtilizationStyle(percent float64) lipgloss.Style {
	switch {
	case percent >= 90:
		return lipgloss.NewStyle().Foreground(Error).Bold(true)
	case percent >= 75:
		return lipgloss.NewStyle().Foreground(Warning)
	default:
		return lipgloss.NewStyle().Foreground(Success)
	}
}
