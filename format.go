package mecode

import (
	"sort"
	"strconv"
	"strings"
)

// Axis names a single axis target for a motion command, e.g. {"E", 1.2} to
// push 1.2mm of filament during a move. The canonical names "X", "Y" and "Z"
// are replaced by the session's configured axis tokens when rendered.
type Axis struct {
	Name  string
	Value float64
}

// X returns an x-axis word.
func X(v float64) Axis { return Axis{Name: "X", Value: v} }

// Y returns a y-axis word.
func Y(v float64) Axis { return Axis{Name: "Y", Value: v} }

// Z returns a z-axis word.
func Z(v float64) Axis { return Axis{Name: "Z", Value: v} }

// E returns an extruder-axis word.
func E(v float64) Axis { return Axis{Name: "E", Value: v} }

// Direction is the rotation sense of an arc or a traced shape.
type Direction int

const (
	// CW is clockwise rotation, rendered as G2 for arcs.
	CW Direction = iota
	// CCW is counterclockwise rotation, rendered as G3 for arcs.
	CCW
)

// Reverse returns the opposite rotation sense.
func (d Direction) Reverse() Direction {
	if d == CW {
		return CCW
	}
	return CW
}

func (d Direction) String() string {
	if d == CW {
		return "CW"
	}
	return "CCW"
}

// Corner selects the starting corner of a rectangle or meander, assuming an
// origin in the lower left.
type Corner int

const (
	LowerLeft Corner = iota
	UpperLeft
	UpperRight
	LowerRight
)

// Orientation selects the major axis of a meander or wave pattern.
type Orientation int

const (
	// AlongX lays the parallel passes along the x axis.
	AlongX Orientation = iota
	// AlongY lays the parallel passes along the y axis.
	AlongY
)

// formatFloat renders a coordinate with the session's output precision.
func (g *G) formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', g.opts.OutputDigits, 64)
}

// axisToken maps the canonical axis names to the configured output tokens.
func (g *G) axisToken(name string) string {
	switch name {
	case "X":
		return g.opts.XAxis
	case "Y":
		return g.opts.YAxis
	case "Z":
		return g.opts.ZAxis
	}
	return name
}

// formatArgs renders coordinate words in emission order: X, Y, then Z,
// then any remaining axes sorted by name.
func (g *G) formatArgs(x, y *float64, extra []Axis) string {
	args := make([]string, 0, 2+len(extra))
	if x != nil {
		args = append(args, g.opts.XAxis+g.formatFloat(*x))
	}
	if y != nil {
		args = append(args, g.opts.YAxis+g.formatFloat(*y))
	}

	var rest []Axis
	for _, a := range extra {
		if a.Name == "Z" {
			args = append(args, g.opts.ZAxis+g.formatFloat(a.Value))
			continue
		}
		rest = append(rest, a)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Name < rest[j].Name })
	for _, a := range rest {
		args = append(args, g.axisToken(a.Name)+g.formatFloat(a.Value))
	}
	return strings.Join(args, " ")
}

// formatNumber renders feed rates and dwell times without padding zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
