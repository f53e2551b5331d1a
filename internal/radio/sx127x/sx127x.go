// Package sx127x drives a Semtech SX1276/78 class FSK radio over SPI,
// implementing the radio.Channel capability used by the scheduler. Only the
// transmit path is implemented: FSK configuration, streaming FIFO refill,
// and standby.
//
// The DIO1 pin must be wired to a GPIO capable of edge detection; it carries
// the FifoLevel interrupt that tells the scheduler the FIFO has room for
// more bytes. The edge watcher does nothing but invoke the registered FIFO
// action, which keeps all buffer handling on the scheduler goroutine.
package sx127x

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/banshee-data/fskstream/internal/radio"
)

// Radio is an SX127x module connected over SPI with DIO1 on a GPIO pin.
type Radio struct {
	mu   sync.Mutex
	conn spi.Conn
	dio1 gpio.PinIn
	log  *log.Logger

	fifoAction func()
	watching   bool
	stop       chan struct{}

	// variableFormat mirrors regPktConfig1 bit 7 so StartTransmit knows
	// whether a length byte must precede the payload.
	variableFormat bool
	// lengthPending is set by StartTransmit when the next FIFO fill must
	// prepend the packet length byte.
	lengthPending bool
	pendingLen    byte
}

var _ radio.Channel = (*Radio)(nil)

// New connects to the radio and verifies the chip version register.
func New(port spi.Port, dio1 gpio.PinIn, logger *log.Logger) (*Radio, error) {
	conn, err := port.Connect(8*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	r := &Radio{
		conn: conn,
		dio1: dio1,
		log:  logger,
		stop: make(chan struct{}),
	}

	v, err := r.readReg(regVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to read chip version: %w", err)
	}
	if v != chipVersion {
		return nil, fmt.Errorf("unexpected chip version 0x%02x, want 0x%02x", v, chipVersion)
	}
	return r, nil
}

func (r *Radio) readReg(addr byte) (byte, error) {
	w := []byte{addr & 0x7f, 0x00}
	buf := make([]byte, 2)
	if err := r.conn.Tx(w, buf); err != nil {
		return 0, err
	}
	return buf[1], nil
}

func (r *Radio) writeReg(addr, value byte) error {
	return r.conn.Tx([]byte{addr | 0x80, value}, nil)
}

// writeBurst writes data to consecutive register addresses starting at addr.
// Writing regFifo repeatedly pushes bytes into the FIFO.
func (r *Radio) writeBurst(addr byte, data []byte) error {
	w := make([]byte, 1+len(data))
	w[0] = addr | 0x80
	copy(w[1:], data)
	return r.conn.Tx(w, nil)
}

func (r *Radio) setMode(mode byte) error {
	cur, err := r.readReg(regOpMode)
	if err != nil {
		return err
	}
	return r.writeReg(regOpMode, cur&^byte(modeMask)|mode)
}

// BeginFSK configures the modem for FSK packet transmission.
func (r *Radio) BeginFSK(cfg radio.FSKConfig) radio.ResultCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.BitRateKbps < 1.2 || cfg.BitRateKbps > 300.0 {
		return radio.ErrInvalidBitRate
	}
	if cfg.DeviationKHz < 0.6 || cfg.DeviationKHz > 200.0 {
		return radio.ErrInvalidDeviation
	}
	if cfg.RxBandwidthKHz < 2.6 || cfg.RxBandwidthKHz > 250.0 {
		return radio.ErrInvalidBandwidth
	}

	if err := r.setMode(modeStandby); err != nil {
		return radio.ErrSPIWriteFailed
	}

	// Bit rate register holds FXOSC / bitrate.
	br := uint16(32e6 / (cfg.BitRateKbps * 1000.0))
	// Deviation register is in units of the synthesizer step.
	fdev := uint16(cfg.DeviationKHz * 1000.0 / fStep)

	steps := []struct {
		addr  byte
		value byte
	}{
		{regBitrateMsb, byte(br >> 8)},
		{regBitrateLsb, byte(br)},
		{regFdevMsb, byte(fdev >> 8)},
		{regFdevLsb, byte(fdev)},
		{regRxBw, rxBwValue(cfg.RxBandwidthKHz)},
		{regPreambleMsb, byte(uint16(cfg.PreambleBits/8) >> 8)},
		{regPreambleLsb, byte(uint16(cfg.PreambleBits / 8))},
		// Sync word off; framing is the caller's concern.
		{regSyncConfig, 0x00},
		{regPktConfig2, pktDataModePacket},
	}
	for _, s := range steps {
		if err := r.writeReg(s.addr, s.value); err != nil {
			return radio.ErrSPIWriteFailed
		}
	}

	pc1 := byte(pktFormatVariable)
	if cfg.CRC {
		pc1 |= pktCrcOn
	}
	if err := r.writeReg(regPktConfig1, pc1); err != nil {
		return radio.ErrSPIWriteFailed
	}
	r.variableFormat = true

	if code := r.setFrequencyLocked(cfg.FrequencyMHz); !code.Succeeded() {
		return code
	}
	return r.setOutputPowerLocked(cfg.PowerDBm)
}

// rxBwValue maps a bandwidth in kHz onto the nearest supported regRxBw
// setting (mantissa/exponent encoding).
func rxBwValue(khz float64) byte {
	table := []struct {
		khz   float64
		value byte
	}{
		{2.6, 0x17}, {3.1, 0x0f}, {3.9, 0x07}, {5.2, 0x16}, {6.3, 0x0e},
		{7.8, 0x06}, {10.4, 0x15}, {12.5, 0x0d}, {15.6, 0x05}, {20.8, 0x14},
		{25.0, 0x0c}, {31.3, 0x04}, {41.7, 0x13}, {50.0, 0x0b}, {62.5, 0x03},
		{83.3, 0x12}, {100.0, 0x0a}, {125.0, 0x02}, {166.7, 0x11},
		{200.0, 0x09}, {250.0, 0x01},
	}
	best := table[0]
	for _, e := range table[1:] {
		if diff(e.khz, khz) < diff(best.khz, khz) {
			best = e
		}
	}
	return best.value
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// SetFrequency tunes the carrier. The SX1276/78 covers 137-1020 MHz.
func (r *Radio) SetFrequency(mhz float64) radio.ResultCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setFrequencyLocked(mhz)
}

func (r *Radio) setFrequencyLocked(mhz float64) radio.ResultCode {
	if mhz < 137.0 || mhz > 1020.0 {
		return radio.ErrInvalidFrequency
	}
	frf := uint32(mhz * 1e6 / fStep)
	if r.writeReg(regFrfMsb, byte(frf>>16)) != nil ||
		r.writeReg(regFrfMid, byte(frf>>8)) != nil ||
		r.writeReg(regFrfLsb, byte(frf)) != nil {
		return radio.ErrSPIWriteFailed
	}
	return radio.OK
}

// SetOutputPower sets the PA_BOOST output power, 2-20 dBm.
func (r *Radio) SetOutputPower(dbm int) radio.ResultCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setOutputPowerLocked(dbm)
}

func (r *Radio) setOutputPowerLocked(dbm int) radio.ResultCode {
	if dbm < 2 || dbm > 20 {
		return radio.ErrInvalidPower
	}
	// OutputPower field is Pout-2 for PA_BOOST; 18-20 dBm additionally
	// requires the high-power setting, which this board does not expose.
	if dbm > 17 {
		dbm = 17
	}
	if err := r.writeReg(regPaConfig, paBoostOn|byte(dbm-2)); err != nil {
		return radio.ErrSPIWriteFailed
	}
	return radio.OK
}

// SetFifoEmptyAction registers fn and starts the DIO1 edge watcher. fn is
// invoked once per rising edge; it must only raise a flag.
func (r *Radio) SetFifoEmptyAction(fn func()) {
	r.mu.Lock()
	r.fifoAction = fn
	start := !r.watching
	r.watching = true
	r.mu.Unlock()

	if !start {
		return
	}
	if err := r.dio1.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		r.log.Error("failed to configure DIO1 edge detection", "err", err)
		return
	}
	go r.watchEdges()
}

func (r *Radio) watchEdges() {
	for {
		select {
		case <-r.stop:
			return
		default:
		}
		// The timeout lets the goroutine notice Close without an edge.
		if !r.dio1.WaitForEdge(time.Second) {
			continue
		}
		r.mu.Lock()
		fn := r.fifoAction
		r.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}

// FixedPacketLengthMode selects packet framing. Length 0 selects
// variable-length framing; a positive length selects fixed framing with that
// payload length.
func (r *Radio) FixedPacketLengthMode(length int) radio.ResultCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, err := r.readReg(regPktConfig1)
	if err != nil {
		return radio.ErrSPIWriteFailed
	}
	if length == 0 {
		cur |= pktFormatVariable
		r.variableFormat = true
	} else {
		if length > 255 {
			return radio.ErrPacketTooLong
		}
		cur &^= byte(pktFormatVariable)
		r.variableFormat = false
		if err := r.writeReg(regPayloadLen, byte(length)); err != nil {
			return radio.ErrSPIWriteFailed
		}
	}
	if err := r.writeReg(regPktConfig1, cur); err != nil {
		return radio.ErrSPIWriteFailed
	}
	return radio.OK
}

// StartTransmit arms the transmitter for the given payload. No payload bytes
// are pushed here: entering TX with an empty FIFO immediately raises the
// FifoLevel interrupt and the scheduler streams the payload in via FifoAdd.
func (r *Radio) StartTransmit(data []byte) radio.ResultCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(data) == 0 {
		return radio.ErrPacketTooLong
	}

	if err := r.setMode(modeStandby); err != nil {
		return radio.ErrSPIWriteFailed
	}

	if r.variableFormat {
		if len(data) > 255 {
			// Payloads beyond the length-byte range stream in unlimited
			// length mode: fixed format with PayloadLength zero.
			cur, err := r.readReg(regPktConfig1)
			if err != nil {
				return radio.ErrSPIWriteFailed
			}
			if r.writeReg(regPktConfig1, cur&^byte(pktFormatVariable)) != nil ||
				r.writeReg(regPayloadLen, 0x00) != nil {
				return radio.ErrSPIWriteFailed
			}
			r.lengthPending = false
		} else {
			r.lengthPending = true
			r.pendingLen = byte(len(data))
		}
	}

	// Fire FifoLevel on DIO1 when the FIFO drops below the refill mark, and
	// start radiating as soon as the first byte lands in the FIFO.
	if r.writeReg(regDioMapping1, dio1FifoLevel) != nil ||
		r.writeReg(regFifoThresh, txStartFifoNotEmpty|byte(fifoDepth-fifoRefill)) != nil {
		return radio.ErrSPIWriteFailed
	}

	if err := r.setMode(modeTx); err != nil {
		return radio.ErrSPIWriteFailed
	}
	return radio.OK
}

// FifoAdd pushes the next chunk of data into the transmit FIFO and
// decrements *remaining. Returns true once the whole payload has been handed
// to the hardware. A call with zero bytes remaining does nothing.
func (r *Radio) FifoAdd(data []byte, total int, remaining *int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if *remaining <= 0 {
		return false
	}

	if r.lengthPending {
		if err := r.writeReg(regFifo, r.pendingLen); err != nil {
			r.log.Error("failed to write packet length byte", "err", err)
			return false
		}
		r.lengthPending = false
	}

	offset := total - *remaining
	n := *remaining
	if n > fifoRefill {
		n = fifoRefill
	}
	if err := r.writeBurst(regFifo, data[offset:offset+n]); err != nil {
		r.log.Error("failed to refill FIFO", "err", err)
		return false
	}
	*remaining -= n
	return *remaining == 0
}

// Standby returns the radio to standby mode, ending any transmission.
func (r *Radio) Standby() radio.ResultCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.setMode(modeStandby); err != nil {
		return radio.ErrSPIWriteFailed
	}
	return radio.OK
}

// Close stops the DIO1 edge watcher. It does not close the SPI port, which
// is owned by the caller.
func (r *Radio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watching {
		close(r.stop)
		r.watching = false
	}
	return nil
}
