// Package mecode generates G-code toolpath instruction streams. It is not a
// slicer: it provides a convenient, human-readable layer just above G-code
// for tracing toolpaths by hand, with optional relay of every line over a
// serial link to the machine as it is generated.
//
// Basic use:
//
//	g, err := mecode.New(mecode.Options{})
//	g.Move(10, 10)                         // move 10mm in x and 10mm in y
//	g.Arc(mecode.Arc{X: 10, Y: 5, Radius: 20, Direction: mecode.CCW})
//	g.Meander(5, 10, 1, mecode.MeanderOptions{})
//	g.AbsMove(1, 1)                        // move the tool head to (1, 1)
//	g.Home()                               // back to the origin
//	g.Teardown()
//
// Teardown must be called once after all commands when writing to a file or
// a device; it releases the underlying resources on every path.
package mecode

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/jminardi/mecode/printer"
)

// ErrClosed is returned when a command is issued after Teardown.
var ErrClosed = errors.New("mecode: session closed")

// Position is a recorded tool head location. Axes beyond the third are
// tracked in the session's axis map but not in the history.
type Position struct {
	X, Y, Z float64
}

// Arc describes a single arc motion. The target is interpreted in the
// session's current mode (relative by default). A zero Radius selects half
// the chord length; an explicit radius must be positive and at least half
// the chord. HelixAxis optionally names a linear axis to move through while
// the arc completes.
type Arc struct {
	X, Y      float64
	Direction Direction
	Radius    float64
	HelixAxis string
	HelixLen  float64
}

// Pather is the coordinate-bearing command surface shared by G and MatrixG.
// Every method accepting (x, y) pairs is listed here, so the transform
// decorator provably intercepts all of them.
type Pather interface {
	Move(x, y float64, extra ...Axis) error
	AbsMove(x, y float64, extra ...Axis) error
	Rapid(x, y float64, extra ...Axis) error
	AbsRapid(x, y float64, extra ...Axis) error
	Arc(a Arc) error
	AbsArc(a Arc) error
	Rect(x, y float64, direction Direction, start Corner) error
	Meander(x, y, spacing float64, opt MeanderOptions) error
	TriangularWave(x, y float64, cycles int, start Corner, orientation Orientation) error
	Spiral(endDiameter, spacing, feedrate float64, opt SpiralOptions) error
}

var _ Pather = (*G)(nil)

// G is a G-code generating session. It renders each command into a textual
// instruction line and writes it to the configured sinks: an echo writer, an
// output file, and a serial device. A G is owned by a single goroutine; all
// calls are blocking and synchronous.
type G struct {
	opts Options

	outFd *os.File
	dev   *printer.Printer

	relative bool
	closed   bool
	speed    float64

	pos   map[string]float64
	extra map[string]float64

	history      []Position
	speedHistory []SpeedChange
}

// SpeedChange records a feed rate change at an index into the position
// history, for rendering.
type SpeedChange struct {
	Index int
	Speed float64
}

// New creates a session, opens the configured sinks and emits the header and
// the initial G91 relative-mode line. On error no resources are left open.
func New(opts Options) (*G, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	g := &G{
		opts:     norm,
		relative: true,
		pos:      map[string]float64{"X": 0, "Y": 0, "Z": 0},
		extra:    map[string]float64{},
		history:  []Position{{0, 0, 0}},
	}

	if norm.Outfile != "" {
		fd, err := os.Create(norm.Outfile)
		if err != nil {
			return nil, fmt.Errorf("open outfile: %w", err)
		}
		g.outFd = fd
	}

	switch {
	case norm.Printer != nil:
		g.dev = norm.Printer
	case norm.Port != "":
		dev, err := printer.Open(norm.Port, norm.Mode)
		if err != nil {
			if g.outFd != nil {
				g.outFd.Close()
			}
			return nil, fmt.Errorf("open serial device: %w", err)
		}
		g.dev = dev
	}

	if err := g.setup(); err != nil {
		g.Teardown()
		return nil, err
	}
	return g, nil
}

// setup writes the header file and the initial movement mode.
func (g *G) setup() error {
	if g.opts.Header != "" {
		if err := g.copyFileLines(g.opts.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if g.relative {
		return g.Write("G91 ;relative")
	}
	return g.Write("G90 ;absolute")
}

// Teardown writes the footer, closes the output file and disconnects the
// serial device, waiting for buffered lines to be acknowledged. It is safe
// to call more than once; only the first call does work.
func (g *G) Teardown() error {
	if g.closed {
		return nil
	}
	g.closed = true

	var firstErr error
	if g.outFd != nil {
		if g.opts.Footer != "" {
			if err := g.copyFileLines(g.opts.Footer); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("write footer: %w", err)
			}
		}
		if err := g.outFd.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close outfile: %w", err)
		}
		g.outFd = nil
	}
	if g.dev != nil {
		if err := g.dev.Disconnect(true); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("disconnect device: %w", err)
		}
		g.dev = nil
	}
	return firstErr
}

// Write emits a raw instruction line to every configured sink. All command
// methods funnel through here.
func (g *G) Write(line string) error {
	if g.closed {
		return ErrClosed
	}
	if g.opts.Writer != nil {
		if _, err := io.WriteString(g.opts.Writer, line+g.opts.LineEnding); err != nil {
			return fmt.Errorf("echo line: %w", err)
		}
	}
	if g.outFd != nil {
		if _, err := g.outFd.WriteString(line + g.opts.LineEnding); err != nil {
			return fmt.Errorf("write outfile: %w", err)
		}
	}
	if g.dev != nil {
		if err := g.dev.SendLine(line); err != nil {
			return fmt.Errorf("send line to device: %w", err)
		}
	}
	return nil
}

// copyFileLines appends the lines of the named file to the output file only;
// headers and footers are file artifacts, not motion commands.
func (g *G) copyFileLines(path string) error {
	if g.outFd == nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if _, err := g.outFd.WriteString(strings.TrimRight(line, "\r") + g.opts.LineEnding); err != nil {
			return err
		}
	}
	return nil
}

// GCode aliases ------------------------------------------------------------

// SetHome sets the current position to the given coordinates without moving
// (G92). The spatial interpretation of subsequent absolute moves changes
// accordingly.
func (g *G) SetHome(axes ...Axis) error {
	args := g.formatArgs(nil, nil, axes)
	space := ""
	if args != "" {
		space = " "
	}
	if err := g.Write("G92" + space + args + " ;set home"); err != nil {
		return err
	}
	g.applyPosition(false, axes)
	return nil
}

// ResetHome resets the position back to machine coordinates without moving
// (G92.1). An absolute move is needed afterwards to re-sync the tracked
// position.
func (g *G) ResetHome() error {
	return g.Write("G92.1 ;reset position to machine coordinates without moving")
}

// Relative enters relative movement mode. Most methods handle the mode
// automatically; manual calls are rarely needed.
func (g *G) Relative() error {
	if g.relative {
		return nil
	}
	if err := g.Write("G91 ;relative"); err != nil {
		return err
	}
	g.relative = true
	return nil
}

// Absolute enters absolute movement mode.
func (g *G) Absolute() error {
	if !g.relative {
		return nil
	}
	if err := g.Write("G90 ;absolute"); err != nil {
		return err
	}
	g.relative = false
	return nil
}

// IsRelative reports whether the session is in relative movement mode.
func (g *G) IsRelative() bool {
	return g.relative
}

// Feed sets the feed rate (tool head speed), typically in mm/minute.
func (g *G) Feed(rate float64) error {
	if err := g.Write("G1 F" + formatNumber(rate)); err != nil {
		return err
	}
	g.speed = rate
	return nil
}

// Speed returns the last feed rate set with Feed.
func (g *G) Speed() float64 {
	return g.speed
}

// Dwell pauses execution for the given time in milliseconds (G4).
func (g *G) Dwell(ms float64) error {
	return g.Write("G4 P" + formatNumber(ms))
}

// Motion -------------------------------------------------------------------

// Home moves the tool head to the origin (0, 0).
func (g *G) Home() error {
	return g.AbsMove(0, 0)
}

// Move moves the tool head by (x, y) in relative mode, or to (x, y) in
// absolute mode. Additional axes ride along, e.g. mecode.Z(1) or a named
// extruder axis.
func (g *G) Move(x, y float64, extra ...Axis) error {
	return g.linearMove(false, x, y, extra)
}

// Rapid executes an uncoordinated (G0) move.
func (g *G) Rapid(x, y float64, extra ...Axis) error {
	return g.linearMove(true, x, y, extra)
}

// AbsMove moves the tool head to the absolute position (x, y), restoring
// relative mode afterwards if it was active.
func (g *G) AbsMove(x, y float64, extra ...Axis) error {
	return absSandwich(g, func() error { return g.Move(x, y, extra...) })
}

// AbsRapid executes an uncoordinated move to the absolute position (x, y).
func (g *G) AbsRapid(x, y float64, extra ...Axis) error {
	return absSandwich(g, func() error { return g.Rapid(x, y, extra...) })
}

// Retract pulls back the given length of filament, regardless of whether
// extrusion calculation is enabled.
func (g *G) Retract(length float64) error {
	extrude := g.opts.Extrude
	g.opts.Extrude = false
	defer func() { g.opts.Extrude = extrude }()
	return g.MoveAxes(E(-length))
}

// MoveAxes moves only the named axes, e.g. a z-hop or an extruder purge.
func (g *G) MoveAxes(axes ...Axis) error {
	if g.closed {
		return ErrClosed
	}
	if err := g.Write("G1 " + g.formatArgs(nil, nil, axes)); err != nil {
		return err
	}
	g.applyPosition(g.relative, axes)
	return nil
}

// linearMove renders a G0/G1 line, appending a computed extrusion word when
// flow calculation is enabled.
func (g *G) linearMove(rapid bool, x, y float64, extra []Axis) error {
	if g.closed {
		return ErrClosed
	}
	if g.opts.Extrude && !hasAxis(extra, "E") {
		extra = append(extra, E(g.moveExtrusion(x, y)))
	}
	cmd := "G1 "
	if rapid {
		cmd = "G0 "
	}
	if err := g.Write(cmd + g.formatArgs(&x, &y, extra)); err != nil {
		return err
	}
	g.applyPosition(g.relative, append([]Axis{X(x), Y(y)}, extra...))
	return nil
}

// absSandwich runs fn in absolute mode and restores relative mode after.
// The mode switches go through the Pather so decorators see them too.
func absSandwich(g *G, fn func() error) error {
	if !g.relative {
		return fn()
	}
	if err := g.Absolute(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return g.Relative()
}

// Arc arcs to the given point with the given radius and direction (G2/G3).
// An affine-transformed session may reject arcs; see MatrixG.
func (g *G) Arc(a Arc) error {
	if g.closed {
		return ErrClosed
	}

	var dist float64
	if g.relative {
		dist = math.Hypot(a.X, a.Y)
	} else {
		dist = math.Hypot(g.pos["X"]-a.X, g.pos["Y"]-a.Y)
	}

	radius := a.Radius
	switch {
	case radius == 0:
		radius = dist / 2
	case radius < 0:
		return fmt.Errorf("arc radius %v must be positive", radius)
	case radius < dist/2:
		return fmt.Errorf("arc radius %v too small for distance %v", radius, dist)
	}

	cmd := "G2"
	if a.Direction == CCW {
		cmd = "G3"
	}

	var extra []Axis
	if g.opts.Extrude {
		extra = append(extra, E(g.arcExtrusion(dist, radius)))
	}

	if a.HelixAxis != "" {
		axis := strings.ToUpper(a.HelixAxis)
		if err := g.Write(fmt.Sprintf("G16 X Y %s ;coordinate axis assignment", axis)); err != nil {
			return err
		}
	}
	if err := g.Write("G17 ;XY plane"); err != nil {
		return err
	}

	line := fmt.Sprintf("%s %s R%s", cmd, g.formatArgs(&a.X, &a.Y, extra), g.formatFloat(radius))
	if a.HelixAxis != "" {
		line += fmt.Sprintf(" G1 %s%s", strings.ToUpper(a.HelixAxis), formatNumber(a.HelixLen))
	}
	if err := g.Write(line); err != nil {
		return err
	}

	update := append([]Axis{X(a.X), Y(a.Y)}, extra...)
	if a.HelixAxis != "" {
		update = append(update, Axis{Name: strings.ToUpper(a.HelixAxis), Value: a.HelixLen})
	}
	g.applyPosition(g.relative, update)
	return nil
}

// AbsArc arcs to an absolute target point.
func (g *G) AbsArc(a Arc) error {
	return absSandwich(g, func() error { return g.Arc(a) })
}

// Position tracking --------------------------------------------------------

// CurrentPosition returns the tracked tool head position in world
// coordinates.
func (g *G) CurrentPosition() Position {
	return Position{X: g.pos["X"], Y: g.pos["Y"], Z: g.pos["Z"]}
}

// AxisPosition returns the tracked position of an arbitrary axis by its
// canonical name.
func (g *G) AxisPosition(name string) float64 {
	if v, ok := g.pos[name]; ok {
		return v
	}
	return g.extra[name]
}

// History returns the recorded positions of every motion command, for
// rendering the toolpath.
func (g *G) History() []Position {
	return g.history
}

// SpeedHistory returns the feed rate changes aligned with History indices.
func (g *G) SpeedHistory() []SpeedChange {
	return g.speedHistory
}

// applyPosition folds axis words into the tracked position and appends to
// the history. Z rides in the extra list; X and Y arrive as canonical words.
func (g *G) applyPosition(relative bool, axes []Axis) {
	for _, a := range axes {
		name := a.Name
		switch name {
		case "X", "Y", "Z":
			if relative {
				g.pos[name] += a.Value
			} else {
				g.pos[name] = a.Value
			}
		default:
			if relative {
				g.extra[name] += a.Value
			} else {
				g.extra[name] = a.Value
			}
		}
	}

	g.history = append(g.history, g.CurrentPosition())
	if n := len(g.speedHistory); n == 0 || g.speedHistory[n-1].Speed != g.speed {
		g.speedHistory = append(g.speedHistory, SpeedChange{Index: len(g.history) - 1, Speed: g.speed})
	}
}

func hasAxis(axes []Axis, name string) bool {
	for _, a := range axes {
		if a.Name == name {
			return true
		}
	}
	return false
}
