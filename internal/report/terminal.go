package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	chartTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ECC71")).MarginBottom(1)
	chartLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1D3"))
	chartValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	chartColors     = []lipgloss.Color{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b"}
)

// RenderBarChart draws horizontal bars scaled so the largest fills width cells.
func RenderBarChart(title string, bars []Bar, width int) string {
	if width < 10 {
		width = 10
	}

	var b strings.Builder
	b.WriteString(chartTitleStyle.Render(title))
	b.WriteString("\n")

	if len(bars) == 0 {
		b.WriteString(chartValueStyle.Render("No expenses to chart."))
		b.WriteString("\n")
		return b.String()
	}

	labelWidth := 0
	var largest int64
	for _, bar := range bars {
		labelWidth = max(labelWidth, lipgloss.Width(bar.Label))
		largest = max(largest, int64(bar.Value))
	}

	for i, bar := range bars {
		cells := 0
		if largest > 0 && bar.Value > 0 {
			cells = max(1, int(int64(bar.Value)*int64(width)/largest))
		}
		style := lipgloss.NewStyle().Foreground(chartColors[i%len(chartColors)])
		fmt.Fprintf(&b, "%s %s %s\n",
			chartLabelStyle.Render(fmt.Sprintf("%-*s", labelWidth, bar.Label)),
			style.Render(strings.Repeat("█", cells)),
			chartValueStyle.Render(bar.Value.String()),
		)
	}
	return b.String()
}
