// Package transform provides 2D affine transforms and an OpenGL-style
// transform stack for mapping toolpath coordinates before they are
// rendered into G-code.
package transform

import (
	"errors"
	"math"
)

var (
	// ErrInvalidScale is returned when a zero scale factor is requested.
	// A zero factor collapses an axis and makes the transform non-invertible.
	ErrInvalidScale = errors.New("transform: zero scale factor")

	// ErrStackUnderflow is returned by Pop when only the base identity
	// transform remains on the stack.
	ErrStackUnderflow = errors.New("transform: stack underflow")

	// ErrUnsupportedTransform is returned when an arc is requested while the
	// active transform contains shear or non-uniform scale. G-code arcs are
	// circles; only similarity transforms preserve them.
	ErrUnsupportedTransform = errors.New("transform: arc requires rotation and uniform scale only")

	// ErrSingular is returned by Invert for transforms with zero determinant.
	ErrSingular = errors.New("transform: singular matrix")
)

// Point is an immutable (x, y) coordinate pair.
type Point struct {
	X, Y float64
}

// Transform is a 2D affine transform: a 2x2 linear map plus a translation,
// laid out as the 2x3 matrix
//
//	[ A  B  TX ]
//	[ C  D  TY ]
//
// The zero value is NOT the identity; use Identity.
type Transform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Rotation returns a counterclockwise rotation about the origin by the given
// angle in radians.
func Rotation(angle float64) Transform {
	sin, cos := math.Sincos(angle)
	return Transform{
		A: cos, B: -sin,
		C: sin, D: cos,
	}
}

// Translation returns a transform that moves points by (dx, dy).
func Translation(dx, dy float64) Transform {
	return Transform{A: 1, D: 1, TX: dx, TY: dy}
}

// Scaling returns a non-uniform scale about the origin. Zero factors are the
// caller's problem here; Stack.Scale rejects them.
func Scaling(sx, sy float64) Transform {
	return Transform{A: sx, D: sy}
}

// Reflection returns a reflection about the line through the origin at the
// given angle from the x axis.
//
//	[ cos 2t   sin 2t ]
//	[ sin 2t  -cos 2t ]
func Reflection(angle float64) Transform {
	sin, cos := math.Sincos(2 * angle)
	return Transform{
		A: cos, B: sin,
		C: sin, D: -cos,
	}
}

// Mul returns the composition t ∘ u: the transform that applies u first and
// then t.
func (t Transform) Mul(u Transform) Transform {
	return Transform{
		A:  t.A*u.A + t.B*u.C,
		B:  t.A*u.B + t.B*u.D,
		TX: t.A*u.TX + t.B*u.TY + t.TX,
		C:  t.C*u.A + t.D*u.C,
		D:  t.C*u.B + t.D*u.D,
		TY: t.C*u.TX + t.D*u.TY + t.TY,
	}
}

// Apply returns the image of p under t.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// ApplyVector maps the vector (dx, dy) through the linear part of t,
// ignoring translation. Relative moves are vectors, not points.
func (t Transform) ApplyVector(dx, dy float64) (float64, float64) {
	return t.A*dx + t.B*dy, t.C*dx + t.D*dy
}

// Det returns the determinant of the linear part. Negative determinants
// indicate a reflection, which reverses arc directions.
func (t Transform) Det() float64 {
	return t.A*t.D - t.B*t.C
}

// Invert returns the inverse transform, or ErrSingular when the determinant
// is zero.
func (t Transform) Invert() (Transform, error) {
	det := t.Det()
	if det == 0 {
		return Transform{}, ErrSingular
	}
	inv := Transform{
		A: t.D / det, B: -t.B / det,
		C: -t.C / det, D: t.A / det,
	}
	inv.TX = -(inv.A*t.TX + inv.B*t.TY)
	inv.TY = -(inv.C*t.TX + inv.D*t.TY)
	return inv, nil
}

// similarityTol bounds the relative error allowed when deciding whether a
// composed transform still preserves circles.
const similarityTol = 1e-9

// IsSimilarity reports whether t is composed only of rotation, uniform scale,
// reflection and translation. Such transforms map circles to circles, so
// arcs stay valid under them.
func (t Transform) IsSimilarity() bool {
	// Columns of the linear part must be orthogonal and of equal length.
	dot := t.A*t.B + t.C*t.D
	lenSq1 := t.A*t.A + t.C*t.C
	lenSq2 := t.B*t.B + t.D*t.D
	scale := math.Max(lenSq1, lenSq2)
	if scale == 0 {
		return false
	}
	return math.Abs(dot) <= similarityTol*scale &&
		math.Abs(lenSq1-lenSq2) <= similarityTol*scale
}

// ScaleFactor returns the uniform scale factor of a similarity transform,
// sqrt(|det|). Meaningless for transforms with shear or non-uniform scale.
func (t Transform) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(t.Det()))
}
