package txctl

import (
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/fskstream/internal/radio"
)

// BufferCap is the payload buffer capacity in bytes. Payload byte counts
// beyond this are clamped by the console.
const BufferCap = 2048

// Session tracks one in-flight payload transmission, from byte acceptance
// through hardware standby. Exactly one session exists per Loop; its buffer
// is reused across transmissions and never reallocated.
//
// Fields are mutated only by the console's arm step, the FIFO pump, and the
// scheduler's finalize step, which the loop serializes: the console gate
// guarantees no command is read while a session is active.
type Session struct {
	id  uuid.UUID
	buf [BufferCap]byte

	// total is the number of valid payload bytes in buf.
	total int
	// remaining counts bytes not yet handed to the radio FIFO. It starts at
	// total and only ever decreases, reaching exactly 0.
	remaining int
	// startResult is captured when the transmission was started and is the
	// sole input to the finalize success/failure report.
	startResult radio.ResultCode
	// armed is true from arm until finalize.
	armed bool
	// complete is set by the pump when the last byte is handed to the
	// hardware and cleared by finalize.
	complete  bool
	startedAt time.Time
}

// ID returns the session identifier assigned at arm time.
func (s *Session) ID() uuid.UUID { return s.id }

// Total returns the payload length of the current session.
func (s *Session) Total() int { return s.total }

// Remaining returns the number of payload bytes not yet in the radio FIFO.
func (s *Session) Remaining() int { return s.remaining }

// StartResult returns the radio's response to StartTransmit.
func (s *Session) StartResult() radio.ResultCode { return s.startResult }

// Active reports whether a transmission is in flight.
func (s *Session) Active() bool { return s.armed }
