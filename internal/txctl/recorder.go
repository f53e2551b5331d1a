package txctl

import (
	"github.com/google/uuid"

	"github.com/banshee-data/fskstream/internal/radio"
)

// Recorder receives transmission lifecycle events, for persistence or
// publication. Implementations must not block the scheduler loop for long;
// a slow sink delays FIFO service.
type Recorder interface {
	// TransmissionStarted is called once per session after StartTransmit,
	// with the radio's start result.
	TransmissionStarted(id uuid.UUID, byteCount int, frequencyMHz float64, powerDBm int, start radio.ResultCode)

	// TransmissionFinished is called once per session when the payload has
	// been fully handed to the hardware and the radio returned to standby.
	TransmissionFinished(id uuid.UUID, succeeded bool)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) TransmissionStarted(uuid.UUID, int, float64, int, radio.ResultCode) {}
func (NopRecorder) TransmissionFinished(uuid.UUID, bool)                               {}

// MultiRecorder fans events out to each recorder in order.
type MultiRecorder []Recorder

func (m MultiRecorder) TransmissionStarted(id uuid.UUID, byteCount int, frequencyMHz float64, powerDBm int, start radio.ResultCode) {
	for _, r := range m {
		r.TransmissionStarted(id, byteCount, frequencyMHz, powerDBm, start)
	}
}

func (m MultiRecorder) TransmissionFinished(id uuid.UUID, succeeded bool) {
	for _, r := range m {
		r.TransmissionFinished(id, succeeded)
	}
}
