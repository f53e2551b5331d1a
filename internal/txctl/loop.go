// Package txctl implements the transmitter's control core: the command
// console, the transmission session state machine, and the cooperative
// scheduler loop that hands payload bytes from the console to the radio's
// hardware FIFO as the FIFO-has-space interrupt asks for them.
package txctl

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/banshee-data/fskstream/internal/display"
	"github.com/banshee-data/fskstream/internal/radio"
)

// Config carries the collaborators a Loop drives.
type Config struct {
	Radio   radio.Channel
	Display display.Display
	// Port is the operator console transport: commands in, responses out.
	Port io.ReadWriter
	// FSK holds the modem parameters applied at Init.
	FSK radio.FSKConfig
	// Recorder receives transmission lifecycle events. Optional.
	Recorder Recorder
	Log      *log.Logger
}

// Loop is the single-threaded cooperative scheduler. Each iteration services
// the FIFO pump, finalizes a completed transmission, and — only while no
// transmission is in flight — runs the console for one command.
type Loop struct {
	radio   radio.Channel
	display display.Display
	port    io.ReadWriter
	fifo    *Signal
	rec     Recorder
	log     *log.Logger
	fsk     radio.FSKConfig
	console *Console

	// mu guards the state below. All writes happen on the scheduler
	// goroutine; the lock exists so Status can be read from the HTTP API.
	mu        sync.Mutex
	session   Session
	frequency float64
	power     int
	// consoleEnabled is the gate: true means the console may read the next
	// command, false means a transmission session owns the loop. Exactly one
	// of the two holds at any time.
	consoleEnabled bool
}

// New creates a Loop. Call Init before Run.
func New(cfg Config) *Loop {
	l := &Loop{
		radio:          cfg.Radio,
		display:        cfg.Display,
		port:           cfg.Port,
		fifo:           NewSignal(),
		rec:            cfg.Recorder,
		log:            cfg.Log,
		fsk:            cfg.FSK,
		frequency:      cfg.FSK.FrequencyMHz,
		power:          cfg.FSK.PowerDBm,
		consoleEnabled: true,
	}
	if l.rec == nil {
		l.rec = NopRecorder{}
	}
	if l.log == nil {
		l.log = log.Default()
	}
	l.console = newConsole(l)
	return l
}

// Signal returns the FIFO-has-space flag. Exposed for tests and for wiring
// external interrupt sources.
func (l *Loop) Signal() *Signal { return l.fifo }

// Init brings up the radio: FSK modem configuration, FIFO interrupt
// registration, and variable-length packet framing. Failures are fail-stop;
// the caller should invoke Halt and exit.
func (l *Loop) Init() error {
	l.refreshDisplay()
	l.respond(TagInit, CodeOK, "Display initialized")

	if code := l.radio.BeginFSK(l.fsk); !code.Succeeded() {
		l.respond(TagInit, CodeFailed, "Radio initialization failed with code %d", int16(code))
		return fmt.Errorf("radio initialization failed: %s", code)
	}

	l.radio.SetFifoEmptyAction(l.fifo.Raise)

	if code := l.radio.FixedPacketLengthMode(0); !code.Succeeded() {
		l.respond(TagInit, CodeFailed, "Failed to set variable packet length mode, code %d", int16(code))
		return fmt.Errorf("failed to set variable packet length mode: %s", code)
	}

	l.respond(TagInit, CodeOK, "Radio initialized successfully")
	return nil
}

// Halt renders the fatal-halt screen, reports it on the console, and parks
// until ctx is cancelled. There is no retry: initialization failures are
// fail-stop.
func (l *Loop) Halt(ctx context.Context) {
	l.display.ShowPanic()
	l.respond(TagInit, CodeFailed, "System halted")
	<-ctx.Done()
}

// Run executes the scheduler until ctx is cancelled or the console transport
// fails. The iteration order is a correctness requirement: FIFO service and
// finalization run before the console can block on the next command, so a
// freshly completed transmission is always finalized before another line is
// accepted.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.pump()
		l.finalizeIfComplete()

		if l.ConsoleEnabled() {
			if err := l.console.RunOnce(); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("console transport failed: %w", err)
			}
			continue
		}

		// Transmission in flight: sleep until the radio asks for more bytes
		// instead of spinning between interrupts.
		if !l.fifo.WaitRaised(ctx) {
			return ctx.Err()
		}
	}
}

// pump services one FIFO-has-space signal: it clears the flag and pushes the
// next payload chunk into the radio FIFO. A signal observed with no active
// session is cleared and ignored.
func (l *Loop) pump() {
	if !l.fifo.TryConsume() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session.remaining <= 0 {
		return
	}
	l.session.complete = l.radio.FifoAdd(
		l.session.buf[:l.session.total], l.session.total, &l.session.remaining)
}

// finalizeIfComplete closes out a session whose payload is fully in the
// hardware. The success/failure report comes from the stored start result: a
// clean FIFO drain does not override a failed StartTransmit.
func (l *Loop) finalizeIfComplete() {
	l.mu.Lock()
	if !l.session.complete {
		l.mu.Unlock()
		return
	}
	l.session.complete = false
	l.session.armed = false
	id := l.session.id
	code := l.session.startResult
	l.mu.Unlock()

	if code.Succeeded() {
		l.respond(TagTransmit, CodeOK, "Transmission finished successfully!")
	} else {
		l.respond(TagTransmit, CodeFailed, "Transmission failed to start, error code: %d", int16(code))
	}

	l.radio.Standby()
	l.respond(TagInit, CodeOK, "Radio set to standby mode.")

	l.rec.TransmissionFinished(id, code.Succeeded())
	l.setConsoleEnabled(true)
	l.refreshDisplay()
}

// armSession seals the freshly buffered payload into an active session,
// closes the console gate, and starts the radio. Called by the console's m
// handler once the payload read completes.
func (l *Loop) armSession(n int) {
	l.mu.Lock()
	l.session.id = uuid.New()
	l.session.total = n
	l.session.remaining = n
	l.session.startedAt = time.Now()
	l.session.armed = true
	l.session.complete = false
	l.consoleEnabled = false
	payload := l.session.buf[:n]
	freq, power := l.frequency, l.power
	l.mu.Unlock()

	code := l.radio.StartTransmit(payload)

	l.mu.Lock()
	l.session.startResult = code
	id := l.session.id
	l.mu.Unlock()

	l.rec.TransmissionStarted(id, n, freq, power, code)
	l.refreshDisplay()
}

// payloadBuffer exposes the first n bytes of the session buffer for the
// console's payload read. Only valid while the console gate is open.
func (l *Loop) payloadBuffer(n int) []byte {
	return l.session.buf[:n]
}

// ConsoleEnabled reports the state of the console gate.
func (l *Loop) ConsoleEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consoleEnabled
}

func (l *Loop) setConsoleEnabled(enabled bool) {
	l.mu.Lock()
	l.consoleEnabled = enabled
	l.mu.Unlock()
}

func (l *Loop) setFrequency(mhz float64) {
	l.mu.Lock()
	l.frequency = mhz
	l.mu.Unlock()
}

func (l *Loop) setPower(dbm int) {
	l.mu.Lock()
	l.power = dbm
	l.mu.Unlock()
}

func (l *Loop) refreshDisplay() {
	l.mu.Lock()
	tx := l.session.armed
	freq, power := l.frequency, l.power
	l.mu.Unlock()

	l.display.ShowStatus(tx, freq, power)
}

func (l *Loop) respond(tag string, code int, format string, args ...any) {
	if err := respondf(l.port, tag, code, format, args...); err != nil {
		l.log.Warn("failed to write console response", "err", err)
	}
}

// Status is a point-in-time snapshot of the transmitter state, served by the
// HTTP API.
type Status struct {
	Transmitting   bool    `json:"transmitting"`
	FrequencyMHz   float64 `json:"frequency_mhz"`
	PowerDBm       int     `json:"power_dbm"`
	SessionID      string  `json:"session_id,omitempty"`
	TotalBytes     int     `json:"total_bytes,omitempty"`
	RemainingBytes int     `json:"remaining_bytes,omitempty"`
}

// Status returns the current transmitter state. Safe to call from any
// goroutine.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := Status{
		Transmitting: l.session.armed,
		FrequencyMHz: l.frequency,
		PowerDBm:     l.power,
	}
	if l.session.armed {
		st.SessionID = l.session.id.String()
		st.TotalBytes = l.session.total
		st.RemainingBytes = l.session.remaining
	}
	return st
}
