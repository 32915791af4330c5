package transform

import "math"

// Stack is an ordered sequence of affine transforms. The top of the stack is
// the active transform applied to every coordinate-bearing command. The
// stack is created holding a single identity transform and never becomes
// empty: Pop refuses to remove the base entry.
//
// A Stack is owned by a single session and is not safe for concurrent use.
type Stack struct {
	ts []Transform
}

// NewStack returns a stack holding one identity transform.
func NewStack() *Stack {
	return &Stack{ts: []Transform{Identity()}}
}

// Depth returns the number of transforms on the stack, always >= 1.
func (s *Stack) Depth() int {
	return len(s.ts)
}

// Top returns a copy of the active transform.
func (s *Stack) Top() Transform {
	return s.ts[len(s.ts)-1]
}

// Push duplicates the active transform. Matching calls to Pop restore the
// state in effect before the Push.
func (s *Stack) Push() {
	s.ts = append(s.ts, s.Top())
}

// Pop removes the active transform, reactivating the one below it. Popping
// with no enclosing Push returns ErrStackUnderflow and leaves the stack
// unchanged.
func (s *Stack) Pop() error {
	if len(s.ts) == 1 {
		return ErrStackUnderflow
	}
	s.ts = s.ts[:len(s.ts)-1]
	return nil
}

// compose replaces the active transform with op applied after it.
func (s *Stack) compose(op Transform) {
	s.ts[len(s.ts)-1] = op.Mul(s.Top())
}

// Rotate composes a rotation about the origin into the active transform.
// The angle is in radians, counterclockwise.
func (s *Stack) Rotate(angle float64) {
	s.compose(Rotation(angle))
}

// Translate composes a translation by (dx, dy) into the active transform.
func (s *Stack) Translate(dx, dy float64) {
	s.compose(Translation(dx, dy))
}

// Scale composes a non-uniform scale into the active transform. A zero
// factor on either axis returns ErrInvalidScale and leaves the transform
// unchanged, keeping the active transform invertible.
func (s *Stack) Scale(sx, sy float64) error {
	if sx == 0 || sy == 0 {
		return ErrInvalidScale
	}
	s.compose(Scaling(sx, sy))
	return nil
}

// Reflect composes a reflection about the line at the given angle from the
// current local x axis.
func (s *Stack) Reflect(angle float64) {
	// Adjust for the angle the local x axis already makes with the world
	// x axis, matching the behaviour of reflecting in local coordinates.
	x, y := s.Top().ApplyVector(1, 0)
	s.compose(Reflection(angle + math.Atan2(y, x)))
}

// Apply returns the image of p under the active transform.
func (s *Stack) Apply(p Point) Point {
	return s.Top().Apply(p)
}
