package txctl

import "context"

// Signal is the FIFO-has-space flag shared between the interrupt watcher and
// the scheduler loop. It is a coalescing flag, not a counter: any number of
// raises between two consumes collapse into one observed raise. The radio's
// FifoAdd drains everything the hardware currently accepts in one call, so a
// collapsed raise delays the next refill but never loses bytes.
type Signal struct {
	ch chan struct{}
}

// NewSignal returns a lowered Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Raise sets the flag. Safe to call from the interrupt watcher goroutine;
// never blocks.
func (s *Signal) Raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// TryConsume clears and returns the flag. Never blocks.
func (s *Signal) TryConsume() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// WaitRaised blocks until the flag is raised or ctx is done, reporting which.
// The flag is left set so a following TryConsume observes it.
func (s *Signal) WaitRaised(ctx context.Context) bool {
	select {
	case <-s.ch:
		s.Raise()
		return true
	case <-ctx.Done():
		return false
	}
}
