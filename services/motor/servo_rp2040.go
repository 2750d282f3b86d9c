//go:build rp2040

package motor

import (
	"machine"

	"tinygo.org/x/drivers/servo"
)

// pwmServo drives a hobby servo on a machine pin through the drivers servo
// helper. The rp2040 PWM slices keep running once configured, so Detach
// only parks the pulse; the slice is claimed once on first Attach.
type pwmServo struct {
	pwm servo.PWM
	pin machine.Pin
	dev servo.Servo
	ok  bool
}

// NewPWMServo binds a servo to the PWM slice that serves the pin.
func NewPWMServo(pwm servo.PWM, pin machine.Pin) Servo {
	return &pwmServo{pwm: pwm, pin: pin}
}

func (s *pwmServo) Attach() error {
	if s.ok {
		return nil
	}
	dev, err := servo.New(s.pwm, s.pin)
	if err != nil {
		return err
	}
	s.dev = dev
	s.ok = true
	return nil
}

// pulse maps 0..180 degrees onto the 1000..2000 µs servo band.
func pulse(angle int) int16 {
	return int16(1000 + angle*1000/180)
}

func (s *pwmServo) Write(angle int) error {
	if !s.ok {
		if err := s.Attach(); err != nil {
			return err
		}
	}
	s.dev.SetMicroseconds(pulse(angle))
	return nil
}

func (s *pwmServo) Detach() {
	if s.ok {
		s.dev.SetMicroseconds(pulse(ServoStop))
	}
}
