package serialio

import (
	"bytes"
	"errors"
	"sync"
)

// ErrPortClosed is returned by LoopPort reads and writes after Close.
var ErrPortClosed = errors.New("serial port closed")

// LoopPort is an in-memory Porter for tests. Reads block until input has been
// queued with Feed or the port is closed, which matches how a real console
// port behaves while waiting for the operator. Writes are captured for
// inspection.
type LoopPort struct {
	mu     sync.Mutex
	cond   *sync.Cond
	in     bytes.Buffer
	out    bytes.Buffer
	closed bool

	// nextReadErr is returned by the next Read call if set.
	nextReadErr error
}

// NewLoopPort creates an empty LoopPort.
func NewLoopPort() *LoopPort {
	p := &LoopPort{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Read returns queued input, blocking while none is available.
func (p *LoopPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.nextReadErr != nil {
		err := p.nextReadErr
		p.nextReadErr = nil
		return 0, err
	}

	for !p.closed && p.in.Len() == 0 {
		p.cond.Wait()
	}
	if p.closed {
		return 0, ErrPortClosed
	}
	return p.in.Read(b)
}

// Write captures output for later inspection via Output.
func (p *LoopPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	return p.out.Write(b)
}

// Close marks the port closed and wakes any blocked reader.
func (p *LoopPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.cond.Broadcast()
	return nil
}

// Feed queues input bytes to be returned by subsequent reads.
func (p *LoopPort) Feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.in.Write(b)
	p.cond.Broadcast()
}

// FeedString queues input from a string.
func (p *LoopPort) FeedString(s string) {
	p.Feed([]byte(s))
}

// FailNextRead makes the next Read call return err without consuming input.
func (p *LoopPort) FailNextRead(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextReadErr = err
}

// Output returns a copy of everything written to the port so far.
func (p *LoopPort) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.out.String()
}

// ResetOutput discards captured output.
func (p *LoopPort) ResetOutput() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.out.Reset()
}
