package mecode

import (
	"fmt"
	"math"
)

// pathContext is the slice of the session surface the composed shapes are
// traced through. Both G and MatrixG satisfy it, so a shape traced on a
// transformed session goes through the transformed Move.
type pathContext interface {
	Move(x, y float64, extra ...Axis) error
	Relative() error
	Absolute() error
	IsRelative() bool
	Feed(rate float64) error
	Speed() float64
	CurrentPosition() Position
	Write(line string) error
}

// MeanderOptions tunes the meander infill pattern. The zero value starts in
// the lower left with passes along x and no tail.
type MeanderOptions struct {
	Start       Corner
	Orientation Orientation
	// Tail keeps the final pass along the minor axis.
	Tail bool
	// MinorFeed is an alternate feed rate for the minor-axis jogs. Zero
	// keeps the current feed rate throughout.
	MinorFeed float64
}

// SpiralStart selects where an Archimedean spiral begins.
type SpiralStart int

const (
	// CenterStart spirals outward from the center.
	CenterStart SpiralStart = iota
	// EdgeStart spirals inward from the outer edge.
	EdgeStart
)

// SpiralOptions tunes the spiral pattern.
type SpiralOptions struct {
	Start     SpiralStart
	Direction Direction
	// StepAngle is the angular resolution in radians; smaller is smoother.
	// Defaults to 0.1.
	StepAngle float64
	// StartDiameter is the inner diameter. Zero starts at the center point.
	StartDiameter float64
	// Center is the absolute center of the spiral. Nil uses the current
	// position.
	Center *Position
}

// Rect traces a rectangle of the given width and height from the given
// corner, in the given direction.
func (g *G) Rect(x, y float64, direction Direction, start Corner) error {
	return traceRect(g, x, y, direction, start)
}

// Meander fills an x-by-y rectangle with a square wave pattern with the
// given spacing between passes. If the minor dimension is not a multiple of
// the spacing, the spacing is adjusted to make the dimensions work out and a
// warning comment is emitted.
func (g *G) Meander(x, y, spacing float64, opt MeanderOptions) error {
	return traceMeander(g, x, y, spacing, opt)
}

// TriangularWave traces a zigzag of the given number of cycles, moving x
// and y per half cycle.
func (g *G) TriangularWave(x, y float64, cycles int, start Corner, orientation Orientation) error {
	return traceWave(g, x, y, cycles, start, orientation)
}

// Spiral traces an Archimedean spiral of the given outer diameter and pass
// spacing at the given feed rate.
func (g *G) Spiral(endDiameter, spacing, feedrate float64, opt SpiralOptions) error {
	return traceSpiral(g, endDiameter, spacing, feedrate, opt)
}

func traceRect(p pathContext, x, y float64, direction Direction, start Corner) error {
	type leg struct{ dx, dy float64 }
	var legs [4]leg

	if direction == CW {
		switch start {
		case LowerLeft:
			legs = [4]leg{{0, y}, {x, 0}, {0, -y}, {-x, 0}}
		case UpperLeft:
			legs = [4]leg{{x, 0}, {0, -y}, {-x, 0}, {0, y}}
		case UpperRight:
			legs = [4]leg{{0, -y}, {-x, 0}, {0, y}, {x, 0}}
		case LowerRight:
			legs = [4]leg{{-x, 0}, {0, y}, {x, 0}, {0, -y}}
		}
	} else {
		switch start {
		case LowerLeft:
			legs = [4]leg{{x, 0}, {0, y}, {-x, 0}, {0, -y}}
		case UpperLeft:
			legs = [4]leg{{0, -y}, {x, 0}, {0, y}, {-x, 0}}
		case UpperRight:
			legs = [4]leg{{-x, 0}, {0, -y}, {x, 0}, {0, y}}
		case LowerRight:
			legs = [4]leg{{0, y}, {-x, 0}, {0, -y}, {x, 0}}
		}
	}

	for _, l := range legs {
		if err := p.Move(l.dx, l.dy); err != nil {
			return err
		}
	}
	return nil
}

// meanderPasses returns the number of major-axis passes needed to cover the
// minor dimension with the given spacing.
func meanderPasses(minor, spacing float64) int {
	if minor > 0 {
		return int(math.Ceil(minor / spacing))
	}
	return int(math.Abs(math.Floor(minor / spacing)))
}

func traceMeander(p pathContext, x, y, spacing float64, opt MeanderOptions) error {
	if spacing <= 0 {
		return fmt.Errorf("meander spacing %v must be positive", spacing)
	}

	switch opt.Start {
	case UpperLeft:
		y = -y
	case UpperRight:
		x, y = -x, -y
	case LowerRight:
		x = -x
	}

	// The major axis carries the parallel passes, the minor axis the jogs.
	major, minor := x, y
	if opt.Orientation == AlongY {
		major, minor = y, x
	}

	passes := meanderPasses(minor, spacing)
	if passes == 0 {
		return fmt.Errorf("meander dimension %v too small for spacing %v", minor, spacing)
	}
	actual := minor / float64(passes)
	if math.Abs(actual) != spacing {
		msg := fmt.Sprintf(";WARNING! meander spacing updated from %s to %s",
			formatNumber(spacing), formatNumber(actual))
		if err := p.Write(msg); err != nil {
			return err
		}
	}
	spacing = actual

	wasAbsolute := !p.IsRelative()
	if wasAbsolute {
		if err := p.Relative(); err != nil {
			return err
		}
	}

	majorFeed := p.Speed()
	minorFeed := opt.MinorFeed
	if minorFeed == 0 {
		minorFeed = majorFeed
	}

	moveMajor := func(v float64) error { return p.Move(v, 0) }
	moveMinor := func(v float64) error { return p.Move(0, v) }
	if opt.Orientation == AlongY {
		moveMajor = func(v float64) error { return p.Move(0, v) }
		moveMinor = func(v float64) error { return p.Move(v, 0) }
	}

	sign := 1.0
	for i := 0; i < passes; i++ {
		if err := moveMajor(sign * major); err != nil {
			return err
		}
		if minorFeed != majorFeed {
			if err := p.Feed(minorFeed); err != nil {
				return err
			}
		}
		if err := moveMinor(spacing); err != nil {
			return err
		}
		if minorFeed != majorFeed {
			if err := p.Feed(majorFeed); err != nil {
				return err
			}
		}
		sign = -sign
	}
	if !opt.Tail {
		if err := moveMajor(sign * major); err != nil {
			return err
		}
	}

	if wasAbsolute {
		return p.Absolute()
	}
	return nil
}

func traceWave(p pathContext, x, y float64, cycles int, start Corner, orientation Orientation) error {
	switch start {
	case UpperLeft:
		x = -x
	case LowerLeft:
		x, y = -x, -y
	case LowerRight:
		y = -y
	}

	major, minor := x, y
	if orientation == AlongY {
		major, minor = y, x
	}

	wasAbsolute := !p.IsRelative()
	if wasAbsolute {
		if err := p.Relative(); err != nil {
			return err
		}
	}

	sign := 1.0
	for i := 0; i < 2*cycles; i++ {
		var err error
		if orientation == AlongY {
			err = p.Move(sign*minor, major)
		} else {
			err = p.Move(major, sign*minor)
		}
		if err != nil {
			return err
		}
		sign = -sign
	}

	if wasAbsolute {
		return p.Absolute()
	}
	return nil
}

func traceSpiral(p pathContext, endDiameter, spacing, feedrate float64, opt SpiralOptions) error {
	if spacing <= 0 {
		return fmt.Errorf("spiral spacing %v must be positive", spacing)
	}
	if endDiameter <= opt.StartDiameter {
		return fmt.Errorf("spiral end diameter %v must exceed start diameter %v",
			endDiameter, opt.StartDiameter)
	}

	step := opt.StepAngle
	if step == 0 {
		step = 0.1
	}

	var cx, cy float64
	if opt.Center != nil {
		cx, cy = opt.Center.X, opt.Center.Y
	} else {
		cur := p.CurrentPosition()
		cx, cy = cur.X, cur.Y
	}

	// Archimedean spiral r = b*t with b chosen so each full turn advances
	// by one spacing.
	b := spacing / (2 * math.Pi)
	startAngle := (opt.StartDiameter / 2 / spacing) * 2 * math.Pi
	endAngle := (endDiameter / 2 / spacing) * 2 * math.Pi

	angles := make([]float64, 0, int((endAngle-startAngle)/step)+2)
	for t := startAngle; t < endAngle; t += step {
		angles = append(angles, t)
	}
	// Land exactly on the outer diameter.
	angles = append(angles, endAngle)
	if opt.Start == EdgeStart {
		for i, j := 0, len(angles)-1; i < j; i, j = i+1, j-1 {
			angles[i], angles[j] = angles[j], angles[i]
		}
	}

	// A CW spiral from the center sweeps the same path as a CCW spiral
	// from the edge; both mirror x.
	mirror := (opt.Direction == CW) == (opt.Start == CenterStart)
	at := func(t float64) (float64, float64) {
		x := t * b * math.Cos(t)
		if mirror {
			x = -x
		}
		return x + cx, t*b*math.Sin(t) + cy
	}

	wasRelative := p.IsRelative()
	if wasRelative {
		if err := p.Absolute(); err != nil {
			return err
		}
	}

	x0, y0 := at(angles[0])
	if err := p.Move(x0, y0); err != nil {
		return err
	}
	if err := p.Feed(feedrate); err != nil {
		return err
	}
	for _, t := range angles[1:] {
		x, y := at(t)
		if err := p.Move(x, y); err != nil {
			return err
		}
	}

	if wasRelative {
		return p.Relative()
	}
	return nil
}
