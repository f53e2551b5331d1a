package txctl

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/banshee-data/fskstream/internal/radio"
	"github.com/banshee-data/fskstream/internal/serialio"
)

// Property: for any payload size and any FIFO chunk size, repeated pumping
// strictly decreases the remaining count to exactly zero, the completion
// flag fires exactly at zero, and the number of pumps matches the chunk
// arithmetic.
func TestPumpDrainProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, BufferCap).Draw(t, "payload")
		chunk := rapid.IntRange(1, 256).Draw(t, "chunk")

		port := serialio.NewLoopPort()
		defer port.Close()
		mock := radio.NewMockChannel()
		mock.ChunkSize = chunk
		l := New(Config{
			Radio:   mock,
			Display: &recordingDisplay{},
			Port:    port,
			FSK:     radio.DefaultFSKConfig(),
		})

		l.armSession(n)

		pumps := 0
		prev := l.session.Remaining()
		for l.session.Remaining() > 0 {
			l.fifo.Raise()
			l.pump()
			pumps++

			got := l.session.Remaining()
			if got < 0 {
				t.Fatalf("remaining went negative: %d", got)
			}
			if got >= prev {
				t.Fatalf("remaining did not strictly decrease: %d -> %d", prev, got)
			}
			if l.session.complete != (got == 0) {
				t.Fatalf("complete = %v with remaining = %d", l.session.complete, got)
			}
			prev = got

			if pumps > n {
				t.Fatalf("drain of %d bytes took more than %d pumps", n, n)
			}
		}

		want := (n + chunk - 1) / chunk
		if pumps != want {
			t.Fatalf("drained %d bytes in %d pumps with chunk %d, want %d", n, pumps, chunk, want)
		}
	})
}
