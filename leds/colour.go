package leds

// Colour is a 4-channel RGBW pixel value. The white channel is only driven
// on SK6812-class strips; plain WS2812 hardware ignores it.
type Colour struct {
	R, G, B, W uint8
}

// Scale returns the colour with every channel multiplied by num/den.
// Used for global brightness without touching the palette.
func (c Colour) Scale(num, den uint16) Colour {
	if den == 0 {
		return Colour{}
	}
	return Colour{
		R: uint8(uint16(c.R) * num / den),
		G: uint8(uint16(c.G) * num / den),
		B: uint8(uint16(c.B) * num / den),
		W: uint8(uint16(c.W) * num / den),
	}
}
