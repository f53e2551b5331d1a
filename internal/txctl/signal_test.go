package txctl

import (
	"context"
	"testing"
	"time"
)

func TestSignalStartsLowered(t *testing.T) {
	s := NewSignal()
	if s.TryConsume() {
		t.Error("new signal was already raised")
	}
}

func TestSignalCoalesces(t *testing.T) {
	s := NewSignal()

	// Many raises between consumes collapse into one.
	for i := 0; i < 5; i++ {
		s.Raise()
	}
	if !s.TryConsume() {
		t.Fatal("signal not raised")
	}
	if s.TryConsume() {
		t.Error("coalesced raises observed more than once")
	}
}

func TestSignalWaitRaisedLeavesFlagSet(t *testing.T) {
	s := NewSignal()
	s.Raise()

	if !s.WaitRaised(context.Background()) {
		t.Fatal("WaitRaised returned false with flag set")
	}
	// The flag must survive the wait so the pump's consume still sees it.
	if !s.TryConsume() {
		t.Error("flag cleared by WaitRaised")
	}
}

func TestSignalWaitRaisedUnblocksOnRaise(t *testing.T) {
	s := NewSignal()

	got := make(chan bool, 1)
	go func() { got <- s.WaitRaised(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	s.Raise()

	select {
	case ok := <-got:
		if !ok {
			t.Error("WaitRaised returned false after raise")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitRaised did not unblock")
	}
}

func TestSignalWaitRaisedHonorsContext(t *testing.T) {
	s := NewSignal()
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan bool, 1)
	go func() { got <- s.WaitRaised(ctx) }()

	cancel()
	select {
	case ok := <-got:
		if ok {
			t.Error("WaitRaised returned true on cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitRaised did not unblock on cancellation")
	}
}

func TestSignalRaiseNeverBlocks(t *testing.T) {
	s := NewSignal()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Raise()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Raise blocked")
	}
}
