package txctl

import (
	"fmt"
	"io"
)

// Console protocol response codes. Every response line has the shape
// TAG:code:message.
const (
	CodeOK      = 0 // operation succeeded
	CodeFailed  = 1 // operation attempted and rejected
	CodeUnknown = 9 // malformed or unrecognized input
)

// Response tags identifying the subsystem a line refers to.
const (
	TagConsole  = "__"
	TagTransmit = "TX"
	TagInit     = "INIT"
)

func respondf(w io.Writer, tag string, code int, format string, args ...any) error {
	_, err := fmt.Fprintf(w, "%s:%d:%s\n", tag, code, fmt.Sprintf(format, args...))
	return err
}
