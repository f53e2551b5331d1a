// Package serialio abstracts the operator-facing serial port so the command
// console can be exercised without real hardware. The real backend is a
// go.bug.st/serial port; tests use LoopPort.
package serialio

import (
	"io"
	"time"
)

// Porter defines the minimal interface the console needs from a serial port.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutPorter extends Porter with a read timeout. Optional; the console does
// not require it, but backends that support it expose it for callers that do.
type TimeoutPorter interface {
	Porter
	SetReadTimeout(timeout time.Duration) error
}
