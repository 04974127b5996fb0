// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/claudewatch/internal/logger"
	"github.com/j-veylop/claudewatch/internal/ui/styles"
)

// UsageBar renders a utilization bar with label and percentage.
type UsageBar struct {
	progress progress.Model
}

// NewUsageBar creates a usage bar with a green-to-red gradient.
func NewUsageBar(width int) UsageBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return UsageBar{progress: p}
}

// View renders the bar for a 0-100 percentage with label and suffix
// (typically the reset countdown) fitted into width columns.
func (b UsageBar) View(percent float64, label, suffix string, width int) string {
	const labelWidth = 22
	const percentWidth = 6

	barWidth := width - labelWidth - percentWidth - len(suffix) - 4
	if barWidth < 10 {
		barWidth = 10
	}
	b.progress.Width = barWidth

	labelStr := styles.LabelStyle.Width(labelWidth).Render(label)
	bar := b.progress.ViewAs(percent / 100)
	percentStr := styles.UtilizationStyle(percent).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	parts := []string{labelStr, bar, " ", percentStr}
	if suffix != "" {
		parts = append(parts, " ", styles.HelpStyle.Render(suffix))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

// RenderGradientBar renders a plain gradient bar for a 0-100 percent.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
