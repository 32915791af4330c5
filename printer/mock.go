package printer

import (
	"bytes"
	"io"
	"sync"
)

// MockPort implements Porter with configurable behaviour for testing. Reads
// are served from a script of queued device responses; writes are captured.
type MockPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls.
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port.
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set.
	ReadError error

	// WriteError is returned by the next Write call if set.
	WriteError error

	// CloseError is returned by Close if set.
	CloseError error

	// Closed indicates whether Close was called.
	Closed bool

	// Drained counts Drain calls.
	Drained int
}

// NewMockPort creates an empty mock port.
func NewMockPort() *MockPort {
	return &MockPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

// QueueResponse appends a device response line to be served by Read.
func (m *MockPort) QueueResponse(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadBuffer.WriteString(line)
}

// Written returns everything written to the port so far.
func (m *MockPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.WriteBuffer.String()
}

func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		return 0, err
	}
	if m.Closed {
		return 0, io.EOF
	}
	if m.ReadBuffer.Len() == 0 {
		// A real port would block; a mock with an exhausted script is a
		// test bug, so fail fast instead.
		return 0, io.EOF
	}
	return m.ReadBuffer.Read(p)
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteError != nil {
		err := m.WriteError
		m.WriteError = nil
		return 0, err
	}
	if m.Closed {
		return 0, io.ErrClosedPipe
	}
	return m.WriteBuffer.Write(p)
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Closed = true
	return m.CloseError
}

func (m *MockPort) Drain() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Drained++
	return nil
}
