package report

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to chart.
var ErrNoData = errors.New("no expenses to chart")

// Chart sizes match a 10x6 inch figure.
const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
)

// ChartOptions labels a bar chart.
type ChartOptions struct {
	Title  string
	XLabel string
	YLabel string
}

// CategoryChartOptions are the labels for the spending-by-category chart.
var CategoryChartOptions = ChartOptions{
	Title:  "Spending by Category",
	XLabel: "Category",
	YLabel: "Total Spent ($)",
}

// MonthlyChartOptions are the labels for the monthly totals chart.
var MonthlyChartOptions = ChartOptions{
	Title:  "Monthly Spending",
	XLabel: "Month",
	YLabel: "Total Spent ($)",
}

// SaveBarChart renders bars to an image file. The format follows the file
// extension (.png, .svg, .pdf).
func SaveBarChart(path string, bars []Bar, opts ChartOptions) error {
	if len(bars) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Y.Min = 0
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -0.5
	p.Add(plotter.NewGrid())

	labels := make([]string, len(bars))
	for i, bar := range bars {
		labels[i] = bar.Label

		// One series per bar gives every bar its own color.
		values := make(plotter.Values, len(bars))
		values[i] = bar.Value.Float()
		chart, err := plotter.NewBarChart(values, vg.Points(40))
		if err != nil {
			return fmt.Errorf("failed to build bar chart: %w", err)
		}
		chart.LineStyle.Width = vg.Length(0)
		chart.Color = plotutil.Color(i)
		p.Add(chart)
	}
	p.NominalX(labels...)

	return savePlot(p, chartWidth, chartHeight, path)
}

func savePlot(p *plot.Plot, width, height vg.Length, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}
