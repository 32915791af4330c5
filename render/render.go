// Package render draws a generated toolpath for visual inspection, either
// as a static PNG or an interactive rotatable HTML page.
package render

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jminardi/mecode"
)

// SavePNG plots the XY projection of the position history and writes it to
// the given path. The axis ranges are padded to equal spans so the toolpath
// keeps its aspect ratio.
func SavePNG(history []mecode.Position, path string) error {
	if len(history) < 2 {
		return fmt.Errorf("render: need at least two positions, have %d", len(history))
	}

	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	pts := make(plotter.XYs, len(history))
	for i, p := range history {
		xs[i] = p.X
		ys[i] = p.Y
		pts[i].X = p.X
		pts[i].Y = p.Y
	}

	pl := plot.New()
	pl.Title.Text = "Toolpath"
	pl.X.Label.Text = "X (mm)"
	pl.Y.Label.Text = "Y (mm)"
	pl.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("render: build line: %w", err)
	}
	line.Width = vg.Points(1.5)
	pl.Add(line)

	// Equal spans on both axes keep circles circular.
	xMin, xMax := floats.Min(xs), floats.Max(xs)
	yMin, yMax := floats.Min(ys), floats.Max(ys)
	halfSpan := maxf(xMax-xMin, yMax-yMin) / 2
	if halfSpan == 0 {
		halfSpan = 1
	}
	halfSpan *= 1.05
	xMid := (xMin + xMax) / 2
	yMid := (yMin + yMax) / 2
	pl.X.Min, pl.X.Max = xMid-halfSpan, xMid+halfSpan
	pl.Y.Min, pl.Y.Max = yMid-halfSpan, yMid+halfSpan

	if err := pl.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save plot: %w", err)
	}
	return nil
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
