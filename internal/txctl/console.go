package txctl

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Console parses one newline-terminated operator command per invocation and
// dispatches it. Command lines are `<letter> <argument>`: `f` sets the
// frequency, `p` the output power, and `m <N>` accepts N raw payload bytes
// and starts a transmission.
//
// Reads block until a full line (or, for m, the full payload) arrives. That
// is safe because the scheduler only runs the console while no transmission
// is active, so a waiting read never starves FIFO service.
type Console struct {
	loop *Loop
	br   *bufio.Reader
}

func newConsole(l *Loop) *Console {
	return &Console{loop: l, br: bufio.NewReader(l.port)}
}

// RunOnce reads and handles exactly one command. It returns an error only
// when the transport fails; command-level problems are reported to the
// operator as response lines.
func (c *Console) RunOnce() error {
	line, err := c.br.ReadString('\n')
	if err != nil {
		return err
	}
	return c.dispatch(strings.TrimRight(line, "\r\n"))
}

// A line is well-formed only if it has a command letter, a space, and at
// least one argument character.
func (c *Console) dispatch(line string) error {
	if len(line) < 3 || line[1] != ' ' {
		c.loop.respond(TagConsole, CodeUnknown, "Unknown command")
		return nil
	}

	arg := line[2:]
	switch line[0] {
	case 'f':
		c.setFrequency(arg)
	case 'p':
		c.setPower(arg)
	case 'm':
		return c.acceptPayload(arg)
	default:
		c.loop.respond(TagConsole, CodeUnknown, "Unknown command")
	}
	return nil
}

func (c *Console) setFrequency(arg string) {
	freq, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil || !c.loop.radio.SetFrequency(freq).Succeeded() {
		c.loop.respond(TagConsole, CodeFailed, "Failed to set frequency")
		return
	}

	c.loop.setFrequency(freq)
	c.loop.respond(TagConsole, CodeOK, "Frequency set to %.4f", freq)
	c.loop.refreshDisplay()
}

func (c *Console) setPower(arg string) {
	power, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || !c.loop.radio.SetOutputPower(power).Succeeded() {
		c.loop.respond(TagConsole, CodeFailed, "Failed to set transmit power")
		return
	}

	c.loop.setPower(power)
	c.loop.respond(TagConsole, CodeOK, "Transmit power set to %d", power)
	c.loop.refreshDisplay()
}

func (c *Console) acceptPayload(arg string) error {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		c.loop.respond(TagConsole, CodeUnknown, "Invalid parameter")
		return nil
	}
	if n > BufferCap {
		n = BufferCap
	}

	c.loop.respond(TagConsole, CodeOK, "Waiting for %d bytes", n)

	// Exact-count raw read, not line-delimited. There is no timeout: an
	// operator who declares more bytes than they send leaves the console
	// waiting here indefinitely.
	if _, err := io.ReadFull(c.br, c.loop.payloadBuffer(n)); err != nil {
		return err
	}

	c.loop.respond(TagConsole, CodeOK, "Accepted %d bytes", n)
	c.loop.armSession(n)
	return nil
}
