package printer

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	tests := []struct {
		idx  int
		line string
		want string
	}{
		// Known value from the RepRap line protocol documentation.
		{3, "T0", "N3 T0*57\n"},
		{0, "M110 N0", "N0 M110 N0*125\n"},
		{1, "G1 X5", "N1 G1 X5*100\n"},
	}
	for _, tt := range tests {
		got := frame(tt.idx, tt.line)
		assert.Equal(t, tt.want, got)
		// Verify the embedded checksum against a direct xor.
		body := strings.TrimSuffix(got, "\n")
		star := strings.LastIndexByte(body, '*')
		sum := 0
		for i := 0; i < star; i++ {
			sum ^= int(body[i])
		}
		assert.Equal(t, checksum(body[:star]), sum)
	}
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"G91 ;relative", "G91"},
		{";just a comment", ""},
		{"G1 X5", "G1 X5"},
		{"  G28  ", "G28"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripComment(tt.in))
	}
}

func TestSendLineAwaitsAck(t *testing.T) {
	port := NewMockPort()
	port.QueueResponse("ok\n")

	p := New(port, true)
	require.NoError(t, p.SendLine("G1 X5"))
	assert.Equal(t, "N1 G1 X5*100\n", port.Written())
}

func TestSendLineNumbersIncrement(t *testing.T) {
	port := NewMockPort()
	p := New(port, false)

	require.NoError(t, p.SendLine("G28"))
	require.NoError(t, p.SendLine("G1 X5"))

	want := frame(1, "G28") + frame(2, "G1 X5")
	if diff := cmp.Diff(want, port.Written()); diff != "" {
		t.Errorf("written frames mismatch (-want +got):\n%s", diff)
	}
}

func TestSendLineDropsCommentOnlyLines(t *testing.T) {
	port := NewMockPort()
	p := New(port, true)

	require.NoError(t, p.SendLine("; setup complete"))
	require.NoError(t, p.SendLine(""))
	assert.Empty(t, port.Written())
}

func TestResendReplaysFromRequestedLine(t *testing.T) {
	port := NewMockPort()
	p := New(port, true)

	port.QueueResponse("ok\n")
	require.NoError(t, p.SendLine("G28"))
	port.QueueResponse("ok\n")
	require.NoError(t, p.SendLine("G1 X1"))

	// The device missed line 1 and asks for everything again.
	port.QueueResponse("Resend: 1\n")
	port.QueueResponse("ok\n")
	require.NoError(t, p.SendLine("G1 X2"))

	want := frame(1, "G28") + frame(2, "G1 X1") + frame(3, "G1 X2") +
		frame(1, "G28") + frame(2, "G1 X1") + frame(3, "G1 X2")
	if diff := cmp.Diff(want, port.Written()); diff != "" {
		t.Errorf("written frames mismatch (-want +got):\n%s", diff)
	}
}

func TestResendUnknownLine(t *testing.T) {
	port := NewMockPort()
	p := New(port, true)

	port.QueueResponse("Resend: 7\n")
	err := p.SendLine("G28")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown line")
}

func TestGetResponse(t *testing.T) {
	port := NewMockPort()
	p := New(port, false)

	port.QueueResponse("X:1.00 Y:2.00 Z:0.00\n")
	port.QueueResponse("ok\n")
	resp, err := p.GetResponse("M114")
	require.NoError(t, err)
	assert.Equal(t, "X:1.00 Y:2.00 Z:0.00\nok\n", resp)

	_, err = p.GetResponse("; comment only")
	require.Error(t, err)
}

func TestResetLineNumber(t *testing.T) {
	port := NewMockPort()
	p := New(port, false)

	require.NoError(t, p.SendLine("G28"))
	require.NoError(t, p.ResetLineNumber())
	require.NoError(t, p.SendLine("G1 X5"))

	want := frame(1, "G28") + frame(0, "M110 N0") + frame(1, "G1 X5")
	if diff := cmp.Diff(want, port.Written()); diff != "" {
		t.Errorf("written frames mismatch (-want +got):\n%s", diff)
	}
}

func TestDisconnectDrainsAndCloses(t *testing.T) {
	port := NewMockPort()
	p := New(port, false)

	require.NoError(t, p.Disconnect(true))
	assert.Equal(t, 1, port.Drained)
	assert.True(t, port.Closed)

	// Further sends are rejected, further disconnects are no-ops.
	require.ErrorIs(t, p.SendLine("G28"), ErrClosed)
	require.NoError(t, p.Disconnect(true))
	assert.Equal(t, 1, port.Drained)
}

func TestCloseSkipsDrain(t *testing.T) {
	port := NewMockPort()
	p := New(port, false)

	require.NoError(t, p.Close())
	assert.Zero(t, port.Drained)
	assert.True(t, port.Closed)
}

func TestSendLineWriteError(t *testing.T) {
	port := NewMockPort()
	port.WriteError = errors.New("device unplugged")

	p := New(port, false)
	err := p.SendLine("G28")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestAwaitReadError(t *testing.T) {
	port := NewMockPort()
	p := New(port, true)

	// No response queued; the exhausted script reads as EOF.
	err := p.SendLine("G28")
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
}

func TestModeNormalize(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		want    Mode
		wantErr bool
	}{
		{
			name: "zero value gets defaults",
			mode: Mode{},
			want: Mode{BaudRate: 250000, DataBits: 8, StopBits: 1, Parity: "N"},
		},
		{
			name: "explicit values kept",
			mode: Mode{BaudRate: 115200, DataBits: 7, StopBits: 2, Parity: "even"},
			want: Mode{BaudRate: 115200, DataBits: 7, StopBits: 2, Parity: "E"},
		},
		{
			name:    "invalid data bits",
			mode:    Mode{DataBits: 9},
			wantErr: true,
		},
		{
			name:    "invalid stop bits",
			mode:    Mode{StopBits: 3},
			wantErr: true,
		},
		{
			name:    "unsupported parity",
			mode:    Mode{Parity: "mark"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.mode.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
