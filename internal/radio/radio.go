// Package radio defines the capability surface of the FSK transmitter
// hardware. The scheduler, console, and pump only ever talk to a Channel;
// the real SX127x SPI driver lives in the sx127x subpackage and tests use
// MockChannel.
package radio

// FSKConfig carries the modem parameters applied at bring-up.
type FSKConfig struct {
	// FrequencyMHz is the carrier frequency in MHz.
	FrequencyMHz float64
	// BitRateKbps is the FSK bit rate in kbps.
	BitRateKbps float64
	// DeviationKHz is the frequency deviation in kHz.
	DeviationKHz float64
	// RxBandwidthKHz is the receiver bandwidth in kHz. The transmitter never
	// receives, but the modem requires a valid value.
	RxBandwidthKHz float64
	// PowerDBm is the output power in dBm.
	PowerDBm int
	// PreambleBits is the preamble length in bits.
	PreambleBits int
	// CRC enables hardware CRC generation.
	CRC bool
}

// DefaultFSKConfig returns the modem defaults applied when the configuration
// file does not override them.
func DefaultFSKConfig() FSKConfig {
	return FSKConfig{
		FrequencyMHz:   915.0,
		BitRateKbps:    4.8,
		DeviationKHz:   5.0,
		RxBandwidthKHz: 125.0,
		PowerDBm:       10,
		PreambleBits:   16,
		CRC:            false,
	}
}

// Channel is the capability set of an FSK streaming transmitter.
//
// StartTransmit begins radiating and arms the FIFO-has-space interrupt; the
// payload itself is handed to the hardware incrementally through FifoAdd.
// All methods report hardware acceptance through a ResultCode rather than a
// Go error: a rejected frequency is an operator-visible outcome, not a
// program fault.
type Channel interface {
	// BeginFSK initializes the modem for FSK operation.
	BeginFSK(cfg FSKConfig) ResultCode

	// SetFrequency tunes the carrier to the given frequency in MHz.
	SetFrequency(mhz float64) ResultCode

	// SetOutputPower sets the output power in dBm.
	SetOutputPower(dbm int) ResultCode

	// SetFifoEmptyAction registers fn to be invoked whenever the hardware
	// transmit FIFO has room for more bytes. fn runs in interrupt context:
	// it must not block and must do nothing beyond raising a flag.
	SetFifoEmptyAction(fn func())

	// FixedPacketLengthMode selects the packet framing. Length 0 selects
	// variable-length framing, which streaming transmission requires.
	FixedPacketLengthMode(length int) ResultCode

	// StartTransmit begins transmitting the given payload. Payloads larger
	// than the hardware FIFO are streamed via FifoAdd.
	StartTransmit(data []byte) ResultCode

	// FifoAdd pushes the next chunk of data into the transmit FIFO. The
	// chunk starts at offset total-*remaining; the call drains as many bytes
	// as the hardware currently accepts and decrements *remaining by that
	// count. It returns true once *remaining reaches 0. A call with zero
	// bytes remaining is a no-op.
	FifoAdd(data []byte, total int, remaining *int) bool

	// Standby returns the radio to standby, ending any transmission.
	Standby() ResultCode
}
