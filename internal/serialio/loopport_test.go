package serialio

import (
	"bufio"
	"errors"
	"io"
	"testing"
	"time"
)

func TestLoopPortReadBlocksUntilFeed(t *testing.T) {
	p := NewLoopPort()
	defer p.Close()

	got := make(chan string, 1)
	go func() {
		r := bufio.NewReader(p)
		line, err := r.ReadString('\n')
		if err != nil {
			got <- "error: " + err.Error()
			return
		}
		got <- line
	}()

	// The reader must still be blocked before any input arrives.
	select {
	case line := <-got:
		t.Fatalf("read returned %q before input was fed", line)
	case <-time.After(20 * time.Millisecond):
	}

	p.FeedString("f 916.0\n")

	select {
	case line := <-got:
		if line != "f 916.0\n" {
			t.Errorf("read %q, want %q", line, "f 916.0\n")
		}
	case <-time.After(time.Second):
		t.Fatal("read did not return after input was fed")
	}
}

func TestLoopPortCloseUnblocksReader(t *testing.T) {
	p := NewLoopPort()

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		_, err := p.Read(buf)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	p.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrPortClosed) {
			t.Errorf("read error = %v, want ErrPortClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("read did not unblock on close")
	}
}

func TestLoopPortCapturesWrites(t *testing.T) {
	p := NewLoopPort()
	defer p.Close()

	if _, err := io.WriteString(p, "__:0:Frequency set to 916.0000\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if got := p.Output(); got != "__:0:Frequency set to 916.0000\n" {
		t.Errorf("Output() = %q", got)
	}

	p.ResetOutput()
	if got := p.Output(); got != "" {
		t.Errorf("Output() after reset = %q, want empty", got)
	}
}

func TestLoopPortFailNextRead(t *testing.T) {
	p := NewLoopPort()
	defer p.Close()

	injected := errors.New("bus error")
	p.FailNextRead(injected)
	p.FeedString("x")

	buf := make([]byte, 1)
	if _, err := p.Read(buf); !errors.Is(err, injected) {
		t.Errorf("first read error = %v, want injected error", err)
	}

	// The injected error is one-shot; the queued byte is still readable.
	n, err := p.Read(buf)
	if err != nil || n != 1 || buf[0] != 'x' {
		t.Errorf("second read = (%d, %v, %q), want (1, nil, \"x\")", n, err, buf[:n])
	}
}

func TestLoopPortWriteAfterClose(t *testing.T) {
	p := NewLoopPort()
	p.Close()

	if _, err := p.Write([]byte("x")); !errors.Is(err, ErrPortClosed) {
		t.Errorf("write error = %v, want ErrPortClosed", err)
	}
}
