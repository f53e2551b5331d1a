package txctl

import (
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/fskstream/internal/radio"
	"github.com/banshee-data/fskstream/internal/serialio"
)

// recordingDisplay captures ShowStatus/ShowPanic calls for assertions.
type recordingDisplay struct {
	mu       sync.Mutex
	statuses []bool // transmitting flag per ShowStatus call
	panics   int
}

func (d *recordingDisplay) ShowStatus(transmitting bool, _ float64, _ int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, transmitting)
}

func (d *recordingDisplay) ShowPanic() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panics++
}

func (d *recordingDisplay) panicCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.panics
}

func newTestLoop(t *testing.T) (*Loop, *serialio.LoopPort, *radio.MockChannel, *recordingDisplay) {
	t.Helper()
	port := serialio.NewLoopPort()
	t.Cleanup(func() { port.Close() })
	mock := radio.NewMockChannel()
	disp := &recordingDisplay{}
	l := New(Config{
		Radio:   mock,
		Display: disp,
		Port:    port,
		FSK:     radio.DefaultFSKConfig(),
	})
	return l, port, mock, disp
}

// runConsole feeds one command (plus any payload) and handles it.
func runConsole(t *testing.T, l *Loop, port *serialio.LoopPort, input string) {
	t.Helper()
	port.FeedString(input)
	if err := l.console.RunOnce(); err != nil {
		t.Fatalf("console returned error: %v", err)
	}
}

func TestSetFrequencyCommand(t *testing.T) {
	l, port, mock, _ := newTestLoop(t)

	runConsole(t, l, port, "f 916.0000\n")

	out := port.Output()
	if !strings.Contains(out, "__:0:Frequency set to 916.0000") {
		t.Errorf("output = %q, want success response echoing 916.0000", out)
	}
	if len(mock.Frequencies) != 1 || mock.Frequencies[0] != 916.0 {
		t.Errorf("radio frequencies = %v, want [916]", mock.Frequencies)
	}
	if got := l.Status().FrequencyMHz; got != 916.0 {
		t.Errorf("status frequency = %v, want 916.0", got)
	}
}

func TestSetPowerCommand(t *testing.T) {
	l, port, mock, _ := newTestLoop(t)

	runConsole(t, l, port, "p 20\n")

	out := port.Output()
	if !strings.Contains(out, "__:0:Transmit power set to 20") {
		t.Errorf("output = %q, want success response echoing 20", out)
	}
	if len(mock.Powers) != 1 || mock.Powers[0] != 20 {
		t.Errorf("radio powers = %v, want [20]", mock.Powers)
	}
	if got := l.Status().PowerDBm; got != 20 {
		t.Errorf("status power = %v, want 20", got)
	}
}

func TestSetFrequencyRejected(t *testing.T) {
	l, port, mock, _ := newTestLoop(t)
	mock.FrequencyCode = radio.ErrInvalidFrequency

	runConsole(t, l, port, "f 9999.0\n")

	if !strings.Contains(port.Output(), "__:1:Failed to set frequency") {
		t.Errorf("output = %q, want failure response", port.Output())
	}
	// State must be unchanged on rejection.
	if got := l.Status().FrequencyMHz; got != radio.DefaultFSKConfig().FrequencyMHz {
		t.Errorf("status frequency = %v, want default", got)
	}
}

func TestSetFrequencyUnparsable(t *testing.T) {
	l, port, _, _ := newTestLoop(t)

	runConsole(t, l, port, "f banana\n")

	if !strings.Contains(port.Output(), "__:1:Failed to set frequency") {
		t.Errorf("output = %q, want failure response", port.Output())
	}
}

func TestSetPowerRejected(t *testing.T) {
	l, port, mock, _ := newTestLoop(t)
	mock.PowerCode = radio.ErrInvalidPower

	runConsole(t, l, port, "p 99\n")

	if !strings.Contains(port.Output(), "__:1:Failed to set transmit power") {
		t.Errorf("output = %q, want failure response", port.Output())
	}
	if got := l.Status().PowerDBm; got != radio.DefaultFSKConfig().PowerDBm {
		t.Errorf("status power = %v, want default", got)
	}
}

func TestMalformedLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no space at index 1", "xyz\n"},
		{"too short", "f\n"},
		{"empty", "\n"},
		{"unknown letter", "q 1\n"},
		{"letter and space only", "f \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, port, mock, _ := newTestLoop(t)

			runConsole(t, l, port, tt.line)

			if !strings.Contains(port.Output(), "__:9:Unknown command") {
				t.Errorf("output = %q, want unknown-command response", port.Output())
			}
			if len(mock.Frequencies) != 0 || len(mock.Powers) != 0 || len(mock.Transmits) != 0 {
				t.Error("malformed line caused radio calls")
			}
			if !l.ConsoleEnabled() {
				t.Error("console disabled by malformed line")
			}
		})
	}
}

func TestPayloadCommandArmsSession(t *testing.T) {
	l, port, mock, _ := newTestLoop(t)

	runConsole(t, l, port, "m 5\n\x01\x02\x03\x04\x05")

	out := port.Output()
	if !strings.Contains(out, "__:0:Waiting for 5 bytes") {
		t.Errorf("output = %q, want waiting response", out)
	}
	if !strings.Contains(out, "__:0:Accepted 5 bytes") {
		t.Errorf("output = %q, want accepted response", out)
	}

	if l.session.Total() != 5 || l.session.Remaining() != 5 {
		t.Errorf("session total/remaining = %d/%d, want 5/5",
			l.session.Total(), l.session.Remaining())
	}
	if !l.session.Active() {
		t.Error("session not active after m command")
	}
	if l.ConsoleEnabled() {
		t.Error("console still enabled while session active")
	}
	if len(mock.Transmits) != 1 || string(mock.Transmits[0]) != "\x01\x02\x03\x04\x05" {
		t.Errorf("StartTransmit payload = %v", mock.Transmits)
	}
}

func TestPayloadCountBelowOne(t *testing.T) {
	for _, line := range []string{"m 0\n", "m -3\n", "m x\n"} {
		l, port, mock, _ := newTestLoop(t)

		runConsole(t, l, port, line)

		if !strings.Contains(port.Output(), "__:9:Invalid parameter") {
			t.Errorf("%q: output = %q, want invalid-parameter response", line, port.Output())
		}
		if !l.ConsoleEnabled() {
			t.Errorf("%q: console disabled with no session armed", line)
		}
		if len(mock.Transmits) != 0 {
			t.Errorf("%q: transmission started", line)
		}
	}
}

func TestPayloadCountClamped(t *testing.T) {
	l, port, _, _ := newTestLoop(t)

	payload := strings.Repeat("a", BufferCap)
	runConsole(t, l, port, "m 5000\n"+payload)

	out := port.Output()
	if !strings.Contains(out, "__:0:Waiting for 2048 bytes") {
		t.Errorf("output = %q, want clamp to 2048", out)
	}
	if l.session.Total() != BufferCap {
		t.Errorf("session total = %d, want %d", l.session.Total(), BufferCap)
	}
}

func TestMutualExclusionOfGateAndSession(t *testing.T) {
	l, port, mock, _ := newTestLoop(t)
	mock.ChunkSize = 3

	// Idle: console open, no session.
	if !l.ConsoleEnabled() || l.session.Active() {
		t.Fatal("idle state: want console enabled and no active session")
	}

	runConsole(t, l, port, "m 6\nabcdef")
	if l.ConsoleEnabled() || !l.session.Active() {
		t.Fatal("armed state: want console disabled and session active")
	}

	// Drain and finalize; the gate must flip back in the same step.
	for l.session.Remaining() > 0 {
		l.fifo.Raise()
		l.pump()
	}
	l.finalizeIfComplete()
	if !l.ConsoleEnabled() || l.session.Active() {
		t.Fatal("finalized state: want console enabled and no active session")
	}
}
