// Package printer relays G-code lines over a serial link to a Marlin-style
// machine controller. Lines are framed with a line number and checksum, and
// each send optionally blocks until the device acknowledges the line, so
// generation never runs ahead of the machine's buffer.
package printer

import (
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
)

// Porter is the minimal interface needed for a serial port. The abstraction
// enables unit testing without real serial hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// Drainer is optionally implemented by ports that can flush their transmit
// buffer to the wire. Real serial ports implement it; mocks need not.
type Drainer interface {
	Drain() error
}

// Mode defines the serial connection parameters used when opening a port.
type Mode struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the mode and applies defaults for any unset values.
func (m Mode) Normalize() (Mode, error) {
	mode := m

	if mode.BaudRate <= 0 {
		mode.BaudRate = 250000
	}

	if mode.DataBits == 0 {
		mode.DataBits = 8
	}
	if mode.DataBits < 5 || mode.DataBits > 8 {
		return mode, fmt.Errorf("invalid data bits %d: must be between 5 and 8", mode.DataBits)
	}

	if mode.StopBits == 0 {
		mode.StopBits = 1
	}
	if mode.StopBits != 1 && mode.StopBits != 2 {
		return mode, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", mode.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(mode.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return mode, fmt.Errorf("unsupported parity %q: expected N, E, or O", mode.Parity)
	}
	mode.Parity = parity

	return mode, nil
}

// serialMode converts the mode into the structure required by
// go.bug.st/serial when opening a port.
func (m Mode) serialMode() (*serial.Mode, error) {
	mode, err := m.Normalize()
	if err != nil {
		return nil, err
	}

	out := &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: mode.DataBits,
		StopBits: serial.StopBits(mode.StopBits),
	}
	switch mode.Parity {
	case "N":
		out.Parity = serial.NoParity
	case "E":
		out.Parity = serial.EvenParity
	case "O":
		out.Parity = serial.OddParity
	}
	return out, nil
}

// Open opens the named serial port and wraps it in a Printer that awaits
// device acknowledgment for every line.
func Open(portName string, mode Mode) (*Printer, error) {
	sm, err := mode.serialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(portName, sm)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	return New(port, true), nil
}
