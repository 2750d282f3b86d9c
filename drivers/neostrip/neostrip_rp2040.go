//go:build rp2040

package neostrip

import (
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

// ws2812Writer drives an SK6812/WS2812 chain through the bit-banged ws2812
// driver. The strip pin comes from the board wiring.
type ws2812Writer struct {
	dev ws2812.Device
}

// NewHardware configures pin as a ws2812 output and returns a strip bound
// to it.
func NewHardware(pin machine.Pin) *Strip {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return New(&ws2812Writer{dev: ws2812.NewSK6812(pin)})
}

func (w *ws2812Writer) WriteFrame(grbw []byte) error {
	_, err := w.dev.Write(grbw)
	return err
}
