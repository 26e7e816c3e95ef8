package report

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Pie charts match an 8x6 inch figure.
const (
	pieWidth  = 8 * vg.Inch
	pieHeight = 6 * vg.Inch
)

// BreakdownChartTitle titles the category share pie chart.
const BreakdownChartTitle = "Expense Breakdown by Category"

// Slice is one wedge of a pie chart.
type Slice struct {
	Label string
	Share float64 // 0..1
	Start float64 // radians, counter-clockwise from 3 o'clock
	Sweep float64
}

// PieSlices converts bars to wedges. The first wedge starts at 12 o'clock and
// wedges run counter-clockwise. Bars without value are left out.
func PieSlices(bars []Bar) []Slice {
	var total float64
	for _, bar := range bars {
		total += bar.Value.Float()
	}
	if total <= 0 {
		return nil
	}

	slices := make([]Slice, 0, len(bars))
	angle := math.Pi / 2
	for _, bar := range bars {
		if bar.Value <= 0 {
			continue
		}
		share := bar.Value.Float() / total
		sweep := share * 2 * math.Pi
		slices = append(slices, Slice{Label: bar.Label, Share: share, Start: angle, Sweep: sweep})
		angle += sweep
	}
	return slices
}

// pieChart draws wedges centered on the canvas with "Label 12.3%" labels.
type pieChart struct {
	slices []Slice
}

// Plot implements plot.Plotter.
func (pc pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	center := c.Center()
	width := c.Max.X - c.Min.X
	height := c.Max.Y - c.Min.Y
	radius := vg.Length(0.35) * min(width, height)

	label := plt.Legend.TextStyle
	label.XAlign = -0.5
	label.YAlign = -0.5

	for i, s := range pc.slices {
		var wedge vg.Path
		wedge.Move(center)
		wedge.Line(vg.Point{
			X: center.X + radius*vg.Length(math.Cos(s.Start)),
			Y: center.Y + radius*vg.Length(math.Sin(s.Start)),
		})
		wedge.Arc(center, radius, s.Start, s.Sweep)
		wedge.Close()

		c.SetColor(plotutil.Color(i))
		c.Fill(wedge)

		mid := s.Start + s.Sweep/2
		at := vg.Point{
			X: center.X + 1.25*radius*vg.Length(math.Cos(mid)),
			Y: center.Y + 1.25*radius*vg.Length(math.Sin(mid)),
		}
		c.FillText(label, at, fmt.Sprintf("%s %.1f%%", s.Label, s.Share*100))
	}
}

// SavePieChart renders each bar's share of the total as a pie chart. The
// format follows the file extension.
func SavePieChart(path string, bars []Bar, title string) error {
	slices := PieSlices(bars)
	if len(slices) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(pieChart{slices: slices})

	return savePlot(p, pieWidth, pieHeight, path)
}
