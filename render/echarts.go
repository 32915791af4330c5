package render

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jminardi/mecode"
)

// SaveHTML writes an interactive 3D line chart of the position history to
// the given path, viewable in any browser.
func SaveHTML(history []mecode.Position, path string) error {
	if len(history) < 2 {
		return fmt.Errorf("render: need at least two positions, have %d", len(history))
	}

	data := make([]opts.Chart3DData, 0, len(history))
	for _, p := range history {
		data = append(data, opts.Chart3DData{
			Value: []interface{}{p.X, p.Y, p.Z},
		})
	}

	line3d := charts.NewLine3D()
	line3d.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Toolpath"}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X (mm)"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y (mm)"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z (mm)"}),
	)
	line3d.AddSeries("toolpath", data)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	defer f.Close()
	if err := line3d.Render(f); err != nil {
		return fmt.Errorf("render: write chart: %w", err)
	}
	return nil
}
