package mecode

import (
	"fmt"
	"io"
	"os"

	"github.com/jminardi/mecode/printer"
)

// Options describes a G-code session. The zero value is usable: lines are
// echoed to standard output with six decimal digits and the default X/Y/Z
// axis names, and nothing is written to a file or device.
type Options struct {
	// Outfile is a path the compiled G-code is written to. Empty disables
	// file output.
	Outfile string

	// Writer receives every emitted line. When nil and Quiet is false,
	// lines are echoed to os.Stdout.
	Writer io.Writer

	// Quiet suppresses the default stdout echo.
	Quiet bool

	// Header and Footer are optional paths to files whose lines are copied
	// verbatim to the start and end of the output file.
	Header string
	Footer string

	// OutputDigits is the number of decimal digits in emitted coordinates.
	// Defaults to 6.
	OutputDigits int

	// XAxis, YAxis and ZAxis rename the axis tokens in the emitted G-code,
	// e.g. ZAxis: "A" for a machine whose vertical axis is called A.
	XAxis, YAxis, ZAxis string

	// LineEnding terminates every written line. Defaults to "\n".
	LineEnding string

	// Port names a serial device to relay lines to as they are generated,
	// e.g. "/dev/ttyUSB0". Empty disables direct write.
	Port string

	// Mode configures the serial connection when Port is set.
	Mode printer.Mode

	// Printer supplies an already connected device link, taking precedence
	// over Port. Used by tests to inject an in-memory port.
	Printer *printer.Printer

	// Extrude enables FDM flow calculation: moves and arcs compute the
	// filament length to push and append it as the E axis.
	Extrude bool

	// FilamentDiameter is the FDM filament diameter in mm. Defaults to 1.75.
	FilamentDiameter float64

	// LayerHeight is the printed layer height in mm. Defaults to 0.19.
	LayerHeight float64

	// ExtrusionWidth is the width of the squashed filament cross section in
	// mm. Defaults to 0.35.
	ExtrusionWidth float64

	// ExtrusionMultiplier scales every computed extrusion length.
	// Defaults to 1.
	ExtrusionMultiplier float64
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o

	if opts.OutputDigits == 0 {
		opts.OutputDigits = 6
	}
	if opts.OutputDigits < 0 {
		return opts, fmt.Errorf("invalid output digits %d: must be positive", opts.OutputDigits)
	}

	if opts.XAxis == "" {
		opts.XAxis = "X"
	}
	if opts.YAxis == "" {
		opts.YAxis = "Y"
	}
	if opts.ZAxis == "" {
		opts.ZAxis = "Z"
	}

	if opts.LineEnding == "" {
		opts.LineEnding = "\n"
	}

	if opts.Writer == nil && !opts.Quiet {
		opts.Writer = os.Stdout
	}

	if opts.Extrude {
		if opts.FilamentDiameter == 0 {
			opts.FilamentDiameter = 1.75
		}
		if opts.LayerHeight == 0 {
			opts.LayerHeight = 0.19
		}
		if opts.ExtrusionWidth == 0 {
			opts.ExtrusionWidth = 0.35
		}
		if opts.ExtrusionMultiplier == 0 {
			opts.ExtrusionMultiplier = 1
		}
		if opts.FilamentDiameter < 0 || opts.LayerHeight < 0 || opts.ExtrusionWidth < 0 {
			return opts, fmt.Errorf("extrusion parameters must be positive")
		}
		if opts.ExtrusionWidth <= opts.LayerHeight {
			return opts, fmt.Errorf("extrusion width %v must exceed layer height %v",
				opts.ExtrusionWidth, opts.LayerHeight)
		}
	}

	return opts, nil
}
