package panel

import "feedercode-go/leds"

// Component is the fixed set of logical status indicators multiplexed onto
// the strip. Values are only ever used as indices.
type Component uint8

const (
	Clock Component = iota
	WifiStatus
	MotorLeft
	MotorRight
	Bluetooth
	Server
	Error

	componentCount
)

func (c Component) String() string {
	switch c {
	case Clock:
		return "clock"
	case WifiStatus:
		return "wifi"
	case MotorLeft:
		return "motor_left"
	case MotorRight:
		return "motor_right"
	case Bluetooth:
		return "bluetooth"
	case Server:
		return "server"
	case Error:
		return "error"
	}
	return "invalid"
}

// ComponentByName maps bus/console names back to components.
func ComponentByName(name string) (Component, bool) {
	for c := Clock; c < componentCount; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

func (c Component) valid() bool { return c < componentCount }

// defaultColours is the startup colour per component.
var defaultColours = [componentCount]leds.Colour{
	Clock:      leds.Yellow,
	WifiStatus: leds.Green,
	MotorLeft:  leds.Aqua,
	MotorRight: leds.DarkMagenta,
	Bluetooth:  leds.DarkBlue,
	Server:     leds.LimeGreen,
	Error:      leds.Red,
}
