// Package display renders the transmitter's operating state on the status
// display. The scheduler only knows the Display interface; the real backend
// is an SSD1306 OLED over I2C, and headless runs use LogDisplay.
package display

import (
	"github.com/charmbracelet/log"
)

// Display is the status display capability.
type Display interface {
	// ShowStatus renders the current operating state: transmitting or idle,
	// plus the active frequency and power.
	ShowStatus(transmitting bool, frequencyMHz float64, powerDBm int)

	// ShowPanic renders the fatal-halt screen. Once shown, nothing else is
	// ever rendered.
	ShowPanic()
}

// LogDisplay writes status updates to the process log. Used for --mock runs
// and whenever no OLED is attached.
type LogDisplay struct {
	Log *log.Logger
}

var _ Display = (*LogDisplay)(nil)

func (d *LogDisplay) logger() *log.Logger {
	if d.Log != nil {
		return d.Log
	}
	return log.Default()
}

func (d *LogDisplay) ShowStatus(transmitting bool, frequencyMHz float64, powerDBm int) {
	state := "idle"
	if transmitting {
		state = "transmitting"
	}
	d.logger().Info("display status", "state", state, "frequency_mhz", frequencyMHz, "power_dbm", powerDBm)
}

func (d *LogDisplay) ShowPanic() {
	d.logger().Error("display panic: system halted")
}
