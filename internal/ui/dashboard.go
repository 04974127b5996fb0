// Package ui implements the Bubble Tea dashboard for usage monitoring.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/claudewatch/internal/models"
	"github.com/j-veylop/claudewatch/internal/monitor"
	"github.com/j-veylop/claudewatch/internal/ui/components"
	"github.com/j-veylop/claudewatch/internal/ui/styles"
)

// historySize bounds the sparkline ring buffer. At one sample per
// refresh this covers roughly the last two hours at the default
// interval.
const historySize = 120

// KeyMap defines the dashboard keybindings.
type KeyMap struct {
	Refresh key.Binding
	Source  key.Binding
	Token   key.Binding
	Clear   key.Binding
	Quit    key.Binding
	Enter   key.Binding
	Escape  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Source:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "switch source")),
		Token:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "enter token")),
		Clear:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear token")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// Model is the dashboard model. It renders the snapshots published by
// the monitor and translates key presses into monitor operations.
type Model struct {
	monitor *monitor.Monitor
	sub     *monitor.Subscription

	state    models.ServiceState
	gotState bool

	staleAfter time.Duration

	keymap  KeyMap
	spinner components.LoadingSpinner
	bar     components.UsageBar
	input   textinput.Model

	// history records session utilization percentages for the sparkline.
	history []float64

	entering bool
	saving   bool
	flash    string
	flashErr bool

	width  int
	height int
}

// NewModel creates the dashboard model. staleAfter controls when a
// snapshot is marked as stale on screen.
func NewModel(mon *monitor.Monitor, staleAfter time.Duration) *Model {
	ti := textinput.New()
	ti.Placeholder = "sk-ant-oat01-..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 512
	ti.Width = 60

	return &Model{
		monitor:    mon,
		staleAfter: staleAfter,
		keymap:     DefaultKeyMap(),
		spinner:    components.NewSpinner("Fetching usage..."),
		bar:        components.NewUsageBar(40),
		input:      ti,
		width:      80,
		height:     24,
	}
}

// Init subscribes to the monitor and starts the redraw tick.
func (m *Model) Init() tea.Cmd {
	m.sub = m.monitor.Subscribe()
	return tea.Batch(
		waitForStateCmd(m.sub.Updates()),
		m.spinner.Tick(),
		tickCmd(),
	)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case StateMsg:
		m.applyState(msg.State)
		return m, waitForStateCmd(m.sub.Updates())

	case TickMsg:
		return m, tickCmd()

	case RefreshDoneMsg:
		return m, nil

	case TokenSavedMsg:
		m.saving = false
		if msg.Err != nil {
			m.flash = fmt.Sprintf("Token not saved: %v", msg.Err)
			m.flashErr = true
			m.entering = true
			return m, textinput.Blink
		}
		m.flash = "Manual token saved"
		m.flashErr = false
		m.input.Reset()
		return m, nil

	case SourceToggledMsg:
		if msg.Err != nil {
			m.flash = fmt.Sprintf("Source switch failed: %v", msg.Err)
			m.flashErr = true
		} else {
			m.flash = fmt.Sprintf("Preferring %s credentials", msg.Source)
			m.flashErr = false
		}
		return m, nil

	case CredentialClearedMsg:
		if msg.Err != nil {
			m.flash = fmt.Sprintf("Clear failed: %v", msg.Err)
			m.flashErr = true
		} else {
			m.flash = "Manual token removed"
			m.flashErr = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.entering {
		return m.handleEntryKey(msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.sub.Cancel()
		m.monitor.Stop()
		return tea.Quit

	case key.Matches(msg, m.keymap.Refresh):
		m.flash = ""
		return refreshCmd(m.monitor)

	case key.Matches(msg, m.keymap.Source):
		return toggleSourceCmd(m.monitor, m.state.PreferredSource)

	case key.Matches(msg, m.keymap.Token):
		m.entering = true
		m.flash = ""
		m.input.Reset()
		m.input.Focus()
		return textinput.Blink

	case key.Matches(msg, m.keymap.Clear):
		return clearCredentialCmd(m.monitor)
	}

	return nil
}

func (m *Model) handleEntryKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Escape):
		m.entering = false
		m.input.Blur()
		m.input.Reset()
		return nil

	case key.Matches(msg, m.keymap.Enter):
		token := strings.TrimSpace(m.input.Value())
		if token == "" {
			return nil
		}
		m.entering = false
		m.saving = true
		m.input.Blur()
		m.flash = ""
		return saveTokenCmd(m.monitor, token)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) applyState(st models.ServiceState) {
	m.state = st
	m.gotState = true

	if st.Err == nil {
		if limit := st.Limit("five_hour"); limit != nil {
			m.history = append(m.history, limit.Utilization*100)
			if len(m.history) > historySize {
				m.history = m.history[len(m.history)-historySize:]
			}
		}
	}
}

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("claudewatch"))
	b.WriteString("\n")

	if !m.gotState {
		b.WriteString("\n" + m.spinner.View() + "\n")
		return b.String()
	}

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n\n")

	if m.state.Err != nil {
		b.WriteString(styles.ErrorBannerStyle.Render(fmt.Sprintf("Fetch failed: %v", m.state.Err)))
		b.WriteString("\n")
	}

	if !m.state.HasValidCredential {
		b.WriteString(m.renderNoCredential())
	} else {
		b.WriteString(m.renderLimits())
	}

	if m.entering {
		b.WriteString("\n" + m.renderTokenPrompt())
	} else if m.saving {
		b.WriteString("\n" + m.spinner.View() + "\n")
	}

	if m.flash != "" {
		style := styles.StatusLineStyle
		if m.flashErr {
			style = lipgloss.NewStyle().Foreground(styles.Error)
		}
		b.WriteString("\n" + style.Render(m.flash) + "\n")
	}

	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

func (m *Model) renderStatusLine() string {
	source := "no credential"
	if m.state.ActiveSource != nil {
		source = fmt.Sprintf("%s credentials", *m.state.ActiveSource)
	}

	parts := []string{source, fmt.Sprintf("prefers %s", m.state.PreferredSource)}

	if m.state.LastUpdated != nil {
		age := time.Since(*m.state.LastUpdated)
		if age > m.staleAfter {
			parts = append(parts, styles.StaleStyle.Render(
				fmt.Sprintf("stale, last update %s ago", formatDuration(age))))
		} else {
			parts = append(parts, fmt.Sprintf("updated %s ago", formatDuration(age)))
		}
	}

	return styles.StatusLineStyle.Render(strings.Join(parts, " · "))
}

func (m *Model) renderNoCredential() string {
	var b strings.Builder
	b.WriteString("No usable credential found.\n\n")
	b.WriteString(styles.HelpStyle.Render("Sign in with Claude Code, or press t to enter a token manually."))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderLimits() string {
	if len(m.state.UsageLimits) == 0 {
		return styles.HelpStyle.Render("No usage data yet.") + "\n"
	}

	var b strings.Builder
	for _, limit := range m.state.UsageLimits {
		suffix := ""
		if limit.ResetsAt != nil {
			if remaining := time.Until(*limit.ResetsAt); remaining > 0 {
				suffix = "resets in " + formatDuration(remaining)
			}
		}
		b.WriteString(m.bar.View(limit.Utilization*100, limit.Title, suffix, m.width))
		b.WriteString("\n")
	}

	if len(m.history) >= 2 {
		b.WriteString("\n")
		b.WriteString(components.RenderSparkline(m.history, min(m.width-10, 70), 5, "Session utilization"))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderTokenPrompt() string {
	content := "Paste an OAuth token\n" + m.input.View() + "\n" +
		styles.HelpStyle.Render("enter save · esc cancel")
	return styles.PromptStyle.Render(content) + "\n"
}

func (m *Model) renderHelp() string {
	bindings := []key.Binding{
		m.keymap.Refresh,
		m.keymap.Source,
		m.keymap.Token,
		m.keymap.Clear,
		m.keymap.Quit,
	}

	var parts []string
	for _, b := range bindings {
		parts = append(parts, fmt.Sprintf("%s %s", b.Help().Key, b.Help().Desc))
	}
	return styles.HelpStyle.Render(strings.Join(parts, "  "))
}

// formatDuration renders a duration as a compact "2h 10m" style string.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)

	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return "under 1m"
	}
}
