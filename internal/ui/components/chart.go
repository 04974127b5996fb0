package components

import (
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/claudewatch/internal/ui/styles"
)

// RenderSparkline plots recent utilization percentages as a small
// ASCII line chart.
func RenderSparkline(data []float64, width, height int, caption string) string {
	if len(data) < 2 {
		return styles.HelpStyle.Render("Collecting data...")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.LowerBound(0),
	)
}
