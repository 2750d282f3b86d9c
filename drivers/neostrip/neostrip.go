// Package neostrip is the pixel primitive layer for the feeder's 30-px
// status strip (two physically joined 15-px segments). It owns a frame
// buffer and pushes it to the hardware in a single flush per render pass;
// everything above it works in logical pixel indices and knows nothing
// about channel ordering or signal timing.
package neostrip

import "feedercode-go/leds"

// StripLen is the number of pixels on the feeder's strip.
const StripLen = 30

// Brightness applied at pack time, 0..255.
const Brightness = 100

// Writer pushes one packed frame to the physical strip. Writing is the only
// timing-sensitive operation in the LED path and must happen at most once
// per render pass.
type Writer interface {
	WriteFrame(grbw []byte) error
}

// Strip is a frame buffer over a Writer.
type Strip struct {
	w      Writer
	pixels [StripLen]leds.Colour
	packed [StripLen * 4]byte
}

func New(w Writer) *Strip {
	return &Strip{w: w}
}

// Len returns the pixel count.
func (s *Strip) Len() int { return StripLen }

// SetPixel writes a colour into the frame buffer without touching hardware.
// The index is clamped to the last valid pixel.
func (s *Strip) SetPixel(index int, c leds.Colour) {
	s.pixels[ClampIndex(index)] = c
}

// Pixel reads back the buffered colour at index (clamped).
func (s *Strip) Pixel(index int) leds.Colour {
	return s.pixels[ClampIndex(index)]
}

// Fill writes c to the first count pixels and background to the rest.
func (s *Strip) Fill(c leds.Colour, count int, background leds.Colour) {
	n := ClampCount(count)
	for i := 0; i < n; i++ {
		s.pixels[i] = c
	}
	for i := n; i < StripLen; i++ {
		s.pixels[i] = background
	}
}

// Clear blanks the frame buffer.
func (s *Strip) Clear() {
	for i := range s.pixels {
		s.pixels[i] = leds.Colour{}
	}
}

// Show flushes the whole buffer to the strip. Channel ordering is the
// hardware constant GRBW.
func (s *Strip) Show() error {
	for i, c := range s.pixels {
		c = c.Scale(Brightness, 255)
		s.packed[i*4+0] = c.G
		s.packed[i*4+1] = c.R
		s.packed[i*4+2] = c.B
		s.packed[i*4+3] = c.W
	}
	return s.w.WriteFrame(s.packed[:])
}

// ClampCount normalises a requested pixel count to [0, StripLen]. Negative
// or oversized requests mean "all pixels".
func ClampCount(count int) int {
	if count < 0 || count > StripLen {
		return StripLen
	}
	return count
}

// ClampIndex normalises a pixel index to [0, StripLen-1]. Unlike ClampCount
// this treats StripLen-1 as the maximum: it answers "last valid index", not
// "how many". Render code depends on the distinction.
func ClampIndex(index int) int {
	if index < 0 || index >= StripLen {
		return StripLen - 1
	}
	return index
}
