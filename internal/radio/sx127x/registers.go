package sx127x

// SX127x register addresses and field values used by the FSK transmit path.
// Register names follow the Semtech datasheet.
const (
	regFifo        = 0x00
	regOpMode      = 0x01
	regBitrateMsb  = 0x02
	regBitrateLsb  = 0x03
	regFdevMsb     = 0x04
	regFdevLsb     = 0x05
	regFrfMsb      = 0x06
	regFrfMid      = 0x07
	regFrfLsb      = 0x08
	regPaConfig    = 0x09
	regRxBw        = 0x12
	regIrqFlags2   = 0x3f
	regPreambleMsb = 0x25
	regPreambleLsb = 0x26
	regSyncConfig  = 0x27
	regPktConfig1  = 0x30
	regPktConfig2  = 0x31
	regPayloadLen  = 0x32
	regFifoThresh  = 0x35
	regDioMapping1 = 0x40
	regVersion     = 0x42
)

const (
	// regOpMode mode bits. The upper bits stay zero for FSK modulation.
	modeSleep   = 0x00
	modeStandby = 0x01
	modeFSTx    = 0x02
	modeTx      = 0x03
	modeMask    = 0x07

	// regPaConfig: output on the PA_BOOST pin.
	paBoostOn = 0x80

	// regPktConfig1 bit 7 selects variable-length packet format, bit 4
	// enables CRC.
	pktFormatVariable = 0x80
	pktCrcOn          = 0x10

	// regPktConfig2 bit 6 selects packet mode (as opposed to continuous).
	pktDataModePacket = 0x40

	// regFifoThresh bit 7: start transmission as soon as the FIFO is
	// non-empty. Lower bits hold the FifoLevel threshold.
	txStartFifoNotEmpty = 0x80

	// regDioMapping1: map DIO1 to FifoLevel in FSK mode.
	dio1FifoLevel = 0x00

	// regVersion value for the SX1276/77/78/79 family.
	chipVersion = 0x12
)

const (
	// fifoDepth is the size of the hardware transmit FIFO.
	fifoDepth = 64
	// fifoRefill is the number of bytes pushed per FIFO-has-space service.
	// The FifoLevel threshold is set so at least this much room is free
	// whenever the interrupt fires.
	fifoRefill = 32

	// fStep is the synthesizer frequency resolution in Hz: 32 MHz / 2^19.
	fStep = 32e6 / 524288.0
)
