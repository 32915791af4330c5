package mecode

import (
	"errors"

	"github.com/jminardi/mecode/transform"
)

// MatrixG passes coordinates through a 2D affine transform stack before
// forwarding them to the underlying G session. A 2D stack was chosen over a
// 3D one because the G-code arc command cannot be arbitrarily rotated in
// three dimensions.
//
// This lets you write code like:
//
//	box := func(g mecode.Pather, w, h float64) {
//		g.Move(0, h)
//		g.Move(w, 0)
//		g.Move(0, -h)
//		g.Move(-w, 0)
//	}
//
//	mg.Push()
//	box(mg, 10, 5)
//	mg.Rotate(math.Pi / 8)
//	box(mg, 10, 5)
//	mg.Pop()
//
// to get two boxes rotated relative to each other. The transforms are
// arranged in a stack, similar to OpenGL.
type MatrixG struct {
	*G
	stack      *transform.Stack
	savepoints []Position
}

var _ Pather = (*MatrixG)(nil)

// NewMatrix creates a transformed session over a fresh G built from opts.
func NewMatrix(opts Options) (*MatrixG, error) {
	g, err := New(opts)
	if err != nil {
		return nil, err
	}
	return &MatrixG{G: g, stack: transform.NewStack()}, nil
}

// Matrix manipulation ------------------------------------------------------

// Push duplicates the active transform; a matching Pop restores it.
func (mg *MatrixG) Push() {
	mg.stack.Push()
}

// Pop discards the active transform. Popping without an enclosing Push
// returns transform.ErrStackUnderflow.
func (mg *MatrixG) Pop() error {
	return mg.stack.Pop()
}

// Rotate composes a rotation about the origin into the active transform,
// in radians counterclockwise.
func (mg *MatrixG) Rotate(angle float64) {
	mg.stack.Rotate(angle)
}

// Translate composes a translation into the active transform.
func (mg *MatrixG) Translate(dx, dy float64) {
	mg.stack.Translate(dx, dy)
}

// Scale composes a scale into the active transform. Zero factors return
// transform.ErrInvalidScale.
func (mg *MatrixG) Scale(sx, sy float64) error {
	return mg.stack.Scale(sx, sy)
}

// Reflect composes a reflection about the line at the given angle from the
// local x axis, e.g. Reflect(0) turns up into down.
func (mg *MatrixG) Reflect(angle float64) {
	mg.stack.Reflect(angle)
}

// Transform returns a copy of the active transform.
func (mg *MatrixG) Transform() transform.Transform {
	return mg.stack.Top()
}

// Depth returns the transform stack depth.
func (mg *MatrixG) Depth() int {
	return mg.stack.Depth()
}

// Coordinate-bearing commands ----------------------------------------------

// mapXY returns the image of (x, y) under the active transform. Relative
// moves are vectors and skip the translation component; absolute targets
// are points.
func (mg *MatrixG) mapXY(x, y float64) (float64, float64) {
	top := mg.stack.Top()
	if mg.IsRelative() {
		return top.ApplyVector(x, y)
	}
	p := top.Apply(transform.Point{X: x, Y: y})
	return p.X, p.Y
}

func (mg *MatrixG) Move(x, y float64, extra ...Axis) error {
	tx, ty := mg.mapXY(x, y)
	return mg.G.Move(tx, ty, extra...)
}

func (mg *MatrixG) Rapid(x, y float64, extra ...Axis) error {
	tx, ty := mg.mapXY(x, y)
	return mg.G.Rapid(tx, ty, extra...)
}

func (mg *MatrixG) AbsMove(x, y float64, extra ...Axis) error {
	return absSandwich(mg.G, func() error { return mg.Move(x, y, extra...) })
}

func (mg *MatrixG) AbsRapid(x, y float64, extra ...Axis) error {
	return absSandwich(mg.G, func() error { return mg.Rapid(x, y, extra...) })
}

// Arc forwards a transformed arc. Arcs stay circular only under similarity
// transforms, so any active shear or non-uniform scale fails with
// transform.ErrUnsupportedTransform. The radius and helix displacement
// scale by the uniform factor, and a reflection reverses the direction.
func (mg *MatrixG) Arc(a Arc) error {
	top := mg.stack.Top()
	if !top.IsSimilarity() {
		return transform.ErrUnsupportedTransform
	}

	t := a
	t.X, t.Y = mg.mapXY(a.X, a.Y)
	if t.Radius != 0 {
		t.Radius *= top.ScaleFactor()
	}
	if t.HelixLen != 0 {
		t.HelixLen *= top.ScaleFactor()
	}
	if top.Det() < 0 {
		t.Direction = a.Direction.Reverse()
	}
	return mg.G.Arc(t)
}

func (mg *MatrixG) AbsArc(a Arc) error {
	return absSandwich(mg.G, func() error { return mg.Arc(a) })
}

func (mg *MatrixG) Rect(x, y float64, direction Direction, start Corner) error {
	return traceRect(mg, x, y, direction, start)
}

func (mg *MatrixG) Meander(x, y, spacing float64, opt MeanderOptions) error {
	return traceMeander(mg, x, y, spacing, opt)
}

func (mg *MatrixG) TriangularWave(x, y float64, cycles int, start Corner, orientation Orientation) error {
	return traceWave(mg, x, y, cycles, start, orientation)
}

func (mg *MatrixG) Spiral(endDiameter, spacing, feedrate float64, opt SpiralOptions) error {
	return traceSpiral(mg, endDiameter, spacing, feedrate, opt)
}

// Position savepoints ------------------------------------------------------

// CurrentPosition reports the tool head position in the local coordinates
// of the active transform.
func (mg *MatrixG) CurrentPosition() Position {
	w := mg.G.CurrentPosition()
	inv, err := mg.stack.Top().Invert()
	if err != nil {
		// Zero scale factors are rejected at Scale time, so the active
		// transform is always invertible.
		return w
	}
	p := inv.Apply(transform.Point{X: w.X, Y: w.Y})
	return Position{X: p.X, Y: p.Y, Z: w.Z}
}

// SavePosition records the current local position for a later
// RestorePosition.
func (mg *MatrixG) SavePosition() {
	mg.savepoints = append(mg.savepoints, mg.CurrentPosition())
}

// RestorePosition moves back to the most recently saved position.
func (mg *MatrixG) RestorePosition() error {
	n := len(mg.savepoints)
	if n == 0 {
		return errors.New("mecode: no saved position")
	}
	p := mg.savepoints[n-1]
	mg.savepoints = mg.savepoints[:n-1]
	return mg.AbsMove(p.X, p.Y, Z(p.Z))
}
