package radio

import "testing"

func TestMockFifoAddDrainsInChunks(t *testing.T) {
	m := NewMockChannel()
	m.ChunkSize = 64

	data := make([]byte, 150)
	remaining := len(data)

	var calls int
	for remaining > 0 {
		prev := remaining
		done := m.FifoAdd(data, len(data), &remaining)
		calls++
		if remaining >= prev {
			t.Fatalf("remaining did not decrease: %d -> %d", prev, remaining)
		}
		if remaining < 0 {
			t.Fatalf("remaining went negative: %d", remaining)
		}
		if done != (remaining == 0) {
			t.Fatalf("done = %v with remaining = %d", done, remaining)
		}
		if calls > 10 {
			t.Fatal("fifo drain did not terminate")
		}
	}
	if calls != 3 {
		t.Errorf("drained 150 bytes in %d calls with chunk 64, want 3", calls)
	}
}

func TestMockFifoAddZeroRemainingIsNoOp(t *testing.T) {
	m := NewMockChannel()
	remaining := 0
	if done := m.FifoAdd(nil, 0, &remaining); done {
		t.Error("FifoAdd with nothing remaining reported done")
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
}

func TestMockRecordsCalls(t *testing.T) {
	m := NewMockChannel()

	if code := m.SetFrequency(916.0); !code.Succeeded() {
		t.Fatalf("SetFrequency = %v", code)
	}
	if code := m.SetOutputPower(20); !code.Succeeded() {
		t.Fatalf("SetOutputPower = %v", code)
	}
	m.StartTransmit([]byte{1, 2, 3})
	m.Standby()

	if len(m.Frequencies) != 1 || m.Frequencies[0] != 916.0 {
		t.Errorf("Frequencies = %v", m.Frequencies)
	}
	if len(m.Powers) != 1 || m.Powers[0] != 20 {
		t.Errorf("Powers = %v", m.Powers)
	}
	if len(m.Transmits) != 1 || len(m.Transmits[0]) != 3 {
		t.Errorf("Transmits = %v", m.Transmits)
	}
	if m.StandbyCalls != 1 {
		t.Errorf("StandbyCalls = %d, want 1", m.StandbyCalls)
	}
}

func TestMockRejectionDoesNotRecord(t *testing.T) {
	m := NewMockChannel()
	m.FrequencyCode = ErrInvalidFrequency

	if code := m.SetFrequency(9999.0); code.Succeeded() {
		t.Fatal("expected rejection")
	}
	if len(m.Frequencies) != 0 {
		t.Errorf("rejected frequency was recorded: %v", m.Frequencies)
	}
}

func TestResultCodeStrings(t *testing.T) {
	if OK.String() != "ok" {
		t.Errorf("OK.String() = %q", OK.String())
	}
	if ErrInvalidFrequency.String() != "invalid frequency" {
		t.Errorf("ErrInvalidFrequency.String() = %q", ErrInvalidFrequency.String())
	}
	if got := ResultCode(-99).String(); got != "code -99" {
		t.Errorf("unknown code String() = %q", got)
	}
}
