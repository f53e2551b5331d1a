package radio

import "fmt"

// ResultCode is the status returned by radio operations. Zero is success;
// negative values identify the rejection reason. The numbering follows the
// SX127x driver conventions so codes on the console are recognizable to
// operators of the original firmware.
type ResultCode int16

const (
	OK                  ResultCode = 0
	ErrChipNotFound     ResultCode = -2
	ErrPacketTooLong    ResultCode = -4
	ErrTxTimeout        ResultCode = -5
	ErrInvalidBitRate   ResultCode = -9
	ErrInvalidDeviation ResultCode = -10
	ErrInvalidBandwidth ResultCode = -11
	ErrInvalidFrequency ResultCode = -12
	ErrInvalidPower     ResultCode = -13
	ErrSPIWriteFailed   ResultCode = -16
)

// Succeeded reports whether the code indicates success.
func (c ResultCode) Succeeded() bool { return c == OK }

func (c ResultCode) String() string {
	switch c {
	case OK:
		return "ok"
	case ErrChipNotFound:
		return "chip not found"
	case ErrPacketTooLong:
		return "packet too long"
	case ErrTxTimeout:
		return "transmit timeout"
	case ErrInvalidBitRate:
		return "invalid bit rate"
	case ErrInvalidDeviation:
		return "invalid frequency deviation"
	case ErrInvalidBandwidth:
		return "invalid receiver bandwidth"
	case ErrInvalidFrequency:
		return "invalid frequency"
	case ErrInvalidPower:
		return "invalid output power"
	case ErrSPIWriteFailed:
		return "SPI write failed"
	default:
		return fmt.Sprintf("code %d", int16(c))
	}
}
