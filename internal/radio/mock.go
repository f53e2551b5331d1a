package radio

import "sync"

// MockChannel implements Channel in memory for tests and for --mock runs
// without transmitter hardware. Result codes for each operation can be
// preloaded; calls and their arguments are recorded for inspection.
//
// FifoAdd drains at most ChunkSize bytes per call, modelling a hardware FIFO
// that accepts a bounded number of bytes each time it signals free space.
type MockChannel struct {
	mu sync.Mutex

	// Result codes returned by the corresponding operations.
	BeginCode      ResultCode
	FrequencyCode  ResultCode
	PowerCode      ResultCode
	PacketModeCode ResultCode
	StartCode      ResultCode
	StandbyCode    ResultCode

	// ChunkSize is the number of bytes FifoAdd accepts per call. Zero means
	// the whole remainder is accepted at once.
	ChunkSize int

	// RaiseOnStart makes StartTransmit and each partial FifoAdd invoke the
	// registered FIFO action, modelling the hardware asking for more bytes.
	RaiseOnStart bool

	// Recorded calls.
	BeginConfigs  []FSKConfig
	Frequencies   []float64
	Powers        []int
	PacketModes   []int
	Transmits     [][]byte
	FifoAddCalls  int
	StandbyCalls  int
	fifoAction    func()
}

var _ Channel = (*MockChannel)(nil)

// NewMockChannel returns a MockChannel that accepts every operation.
func NewMockChannel() *MockChannel {
	return &MockChannel{}
}

func (m *MockChannel) BeginFSK(cfg FSKConfig) ResultCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BeginConfigs = append(m.BeginConfigs, cfg)
	return m.BeginCode
}

func (m *MockChannel) SetFrequency(mhz float64) ResultCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FrequencyCode.Succeeded() {
		m.Frequencies = append(m.Frequencies, mhz)
	}
	return m.FrequencyCode
}

func (m *MockChannel) SetOutputPower(dbm int) ResultCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PowerCode.Succeeded() {
		m.Powers = append(m.Powers, dbm)
	}
	return m.PowerCode
}

func (m *MockChannel) SetFifoEmptyAction(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fifoAction = fn
}

func (m *MockChannel) FixedPacketLengthMode(length int) ResultCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PacketModes = append(m.PacketModes, length)
	return m.PacketModeCode
}

func (m *MockChannel) StartTransmit(data []byte) ResultCode {
	m.mu.Lock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.Transmits = append(m.Transmits, buf)
	code := m.StartCode
	raise := m.RaiseOnStart && code.Succeeded()
	fn := m.fifoAction
	m.mu.Unlock()

	if raise && fn != nil {
		fn()
	}
	return code
}

func (m *MockChannel) FifoAdd(data []byte, total int, remaining *int) bool {
	m.mu.Lock()
	m.FifoAddCalls++
	chunk := m.ChunkSize
	raiseOnPartial := m.RaiseOnStart
	fn := m.fifoAction
	m.mu.Unlock()

	if *remaining <= 0 {
		return false
	}
	if chunk <= 0 || chunk > *remaining {
		chunk = *remaining
	}
	*remaining -= chunk
	if *remaining > 0 {
		if raiseOnPartial && fn != nil {
			fn()
		}
		return false
	}
	return true
}

func (m *MockChannel) Standby() ResultCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StandbyCalls++
	return m.StandbyCode
}

// RaiseFifo invokes the registered FIFO action, standing in for the hardware
// interrupt in tests.
func (m *MockChannel) RaiseFifo() {
	m.mu.Lock()
	fn := m.fifoAction
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
