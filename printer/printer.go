package printer

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ErrClosed is returned when a line is sent after the printer was
// disconnected or the underlying port reported closure.
var ErrClosed = errors.New("printer: device closed")

// Printer owns serial communications with a machine controller. Calls are
// blocking and synchronous: SendLine returns once the line is on the wire
// and, when acknowledgments are enabled, once the device answered "ok".
type Printer struct {
	mu     sync.Mutex
	port   Porter
	reader *bufio.Reader
	ack    bool

	// lineIdx is the last line number sent; sent holds the plain lines by
	// line number so a Resend request can be replayed.
	lineIdx int
	sent    []string

	closed bool
}

// New wraps an open port. When ack is true every sent line blocks until the
// device acknowledges it.
func New(port Porter, ack bool) *Printer {
	return &Printer{
		port:   port,
		reader: bufio.NewReader(port),
		ack:    ack,
	}
}

// checksum xors all characters of a framed line together, per the Marlin
// line protocol.
func checksum(line string) int {
	sum := 0
	for i := 0; i < len(line); i++ {
		sum ^= int(line[i])
	}
	return sum
}

// stripComment removes a trailing ";" comment and surrounding whitespace.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// frame prepends the line number and appends the checksum and newline.
func frame(idx int, line string) string {
	numbered := fmt.Sprintf("N%d %s", idx, line)
	return fmt.Sprintf("%s*%d\n", numbered, checksum(numbered))
}

// SendLine sends a single G-code line. Comments are stripped before
// framing; comment-only lines are dropped without touching the wire.
func (p *Printer) SendLine(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	line = stripComment(line)
	if line == "" {
		return nil
	}
	_, err := p.send(line, p.ack)
	return err
}

// GetResponse sends a line and returns the device's reply text up to and
// including the acknowledgment, regardless of the ack setting.
func (p *Printer) GetResponse(line string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line = stripComment(line)
	if line == "" {
		return "", fmt.Errorf("printer: empty command")
	}
	return p.send(line, true)
}

// ResetLineNumber asks the device to reset its expected line number (M110),
// restarting local numbering as well.
func (p *Printer) ResetLineNumber() error {
	return p.SendLine("M110 N0")
}

func (p *Printer) send(line string, await bool) (string, error) {
	if p.closed {
		return "", ErrClosed
	}

	idx := p.lineIdx + 1
	if strings.HasPrefix(line, "M110") {
		idx = 0
	}
	if _, err := p.port.Write([]byte(frame(idx, line))); err != nil {
		return "", fmt.Errorf("write port: %w", err)
	}
	if idx == 0 {
		p.sent = p.sent[:0]
	} else {
		p.sent = append(p.sent, line)
	}
	p.lineIdx = idx

	if !await {
		return "", nil
	}
	return p.awaitOK()
}

// awaitOK reads device lines until an acknowledgment arrives, replaying
// sent lines when the device requests a resend.
func (p *Printer) awaitOK() (string, error) {
	var resp strings.Builder
	for {
		raw, err := p.reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read port: %w", err)
		}
		line := strings.TrimRight(raw, "\r\n")

		// Example line: "Resend: 143"
		if n, ok := strings.CutPrefix(line, "Resend:"); ok {
			from, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil {
				return "", fmt.Errorf("malformed resend request %q", line)
			}
			if err := p.resendFrom(from); err != nil {
				return "", err
			}
			continue
		}

		resp.WriteString(raw)
		if strings.Contains(line, "ok") {
			return resp.String(), nil
		}
	}
}

// resendFrom replays every sent line from the given line number onward.
func (p *Printer) resendFrom(from int) error {
	if from < 1 || from > len(p.sent) {
		return fmt.Errorf("resend request for unknown line %d", from)
	}
	for i := from - 1; i < len(p.sent); i++ {
		if _, err := p.port.Write([]byte(frame(i+1, p.sent[i]))); err != nil {
			return fmt.Errorf("rewrite port: %w", err)
		}
	}
	return nil
}

// Disconnect closes the port. When wait is true the transmit buffer is
// drained first so the device receives every framed line. Safe to call
// more than once.
func (p *Printer) Disconnect(wait bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if wait {
		if d, ok := p.port.(Drainer); ok {
			if err := d.Drain(); err != nil {
				p.port.Close()
				return fmt.Errorf("drain port: %w", err)
			}
		}
	}
	if err := p.port.Close(); err != nil {
		return fmt.Errorf("close port: %w", err)
	}
	return nil
}

// Close closes the port without waiting for the transmit buffer.
func (p *Printer) Close() error {
	return p.Disconnect(false)
}
