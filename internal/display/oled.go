package display

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const lineHeight = 14

// OLED renders status on a 128x64 SSD1306 over I2C.
type OLED struct {
	dev *ssd1306.Dev
}

var _ Display = (*OLED)(nil)

// NewOLED initializes the SSD1306 at its default address on the given bus.
func NewOLED(bus i2c.Bus) (*OLED, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ssd1306: %w", err)
	}
	return &OLED{dev: dev}, nil
}

func (o *OLED) draw(lines []string) {
	bounds := o.dev.Bounds()
	img := image1bit.NewVerticalLSB(bounds)

	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(line)
	}

	// Errors here mean the bus dropped out; the next refresh retries, so
	// they are intentionally not surfaced to the scheduler.
	_ = o.dev.Draw(bounds, img, image.Point{})
}

func (o *OLED) ShowStatus(transmitting bool, frequencyMHz float64, powerDBm int) {
	state := "IDLE"
	if transmitting {
		state = "TRANSMIT"
	}
	o.draw([]string{
		"FSK stream",
		"state: " + state,
		fmt.Sprintf("freq:  %.4f MHz", frequencyMHz),
		fmt.Sprintf("power: %d dBm", powerDBm),
	})
}

func (o *OLED) ShowPanic() {
	o.draw([]string{
		"",
		"  !! HALTED !!",
		"",
		" System halted",
	})
}
