// Package motor runs the two continuous-rotation feed servos: the kibble
// tray and the trap door. Movement is open-loop, speed maps to a servo
// angle around the 90° stop point and rotation amount is time-based.
package motor

import (
	"time"

	"feedercode-go/errcode"
	"feedercode-go/x/logx"
	"feedercode-go/x/mathx"
)

const (
	ServoStop = 90 // neutral pulse, no rotation

	MinSpeed     = -100
	MaxSpeed     = 100
	DefaultSpeed = 50

	DefaultTurnDuration = time.Second
	DefaultTurnDegrees  = 90

	// maxDegreesPerSecond at full speed; per-unit calibration value.
	maxDegreesPerSecond = 360

	// settleDelay after attach/detach so the first pulses land.
	settleDelay = 5 * time.Millisecond

	CalibrationSteps = 7
)

// Servo is the hardware contract. Attach claims the PWM timer, Detach
// releases it; detaching between movements keeps the timer from disturbing
// the LED strip updates.
type Servo interface {
	Attach() error
	Write(angle int) error
	Detach()
}

// Motor wraps one servo. Not safe for concurrent use; the service loop
// serialises commands.
type Motor struct {
	servo    Servo
	name     string
	attached bool

	// sleep is swapped out in tests so turns don't take wall time.
	sleep func(time.Duration)

	// onMove fires once per movement, for panel activity signalling.
	onMove func()
}

func New(servo Servo, name string) *Motor {
	return &Motor{servo: servo, name: name, sleep: time.Sleep}
}

// OnMove registers the movement callback.
func (m *Motor) OnMove(fn func()) { m.onMove = fn }

// Init validates the servo can be claimed and released, leaving it stopped
// and detached.
func (m *Motor) Init() error {
	logx.Info("motor %s: init", m.name)
	if err := m.servo.Attach(); err != nil {
		return err
	}
	m.attached = true
	m.sleep(settleDelay)
	m.Stop()
	return nil
}

// SetSpeed maps -100..100 onto the servo angle and starts rotation.
// Attaches on demand.
func (m *Motor) SetSpeed(speed int) error {
	speed = mathx.Clamp(speed, MinSpeed, MaxSpeed)
	angle := ServoStop + speed*90/100
	if !m.attached {
		if err := m.servo.Attach(); err != nil {
			return errcode.MotorNotReady.E(m.name + ": " + err.Error())
		}
		m.attached = true
		m.sleep(settleDelay)
	}
	return m.servo.Write(angle)
}

// Stop parks the servo at neutral and releases the timer.
func (m *Motor) Stop() {
	if err := m.servo.Write(ServoStop); err != nil {
		logx.Error("motor %s: stop write: %v", m.name, err)
	}
	if m.attached {
		m.sleep(settleDelay)
		m.servo.Detach()
		m.attached = false
	}
}

func (m *Motor) moved() {
	if m.onMove != nil {
		m.onMove()
	}
}

// Turn rotates at the given signed speed for the duration, then stops.
func (m *Motor) Turn(speed int, d time.Duration) error {
	if d <= 0 {
		d = DefaultTurnDuration
	}
	m.moved()
	if err := m.SetSpeed(speed); err != nil {
		m.Stop()
		return err
	}
	m.sleep(d)
	m.Stop()
	return nil
}

func (m *Motor) TurnLeft(d time.Duration) error  { return m.Turn(MinSpeed, d) }
func (m *Motor) TurnRight(d time.Duration) error { return m.Turn(MaxSpeed, d) }

// DegreesToDuration converts a rotation amount at a signed speed into run
// time. Zero speed means no movement.
func DegreesToDuration(speed, degrees int) time.Duration {
	s := mathx.Abs(mathx.Clamp(speed, MinSpeed, MaxSpeed))
	if s == 0 || degrees <= 0 {
		return 0
	}
	// t = degrees / (maxRate * speedFraction), in milliseconds.
	ms := int64(degrees) * 1000 * 100 / (int64(maxDegreesPerSecond) * int64(s))
	return time.Duration(ms) * time.Millisecond
}

// TurnDegrees rotates by the given amount at full speed in the direction of
// the sign.
func (m *Motor) TurnDegrees(degrees int) error {
	if degrees == 0 {
		degrees = DefaultTurnDegrees
	}
	speed := MaxSpeed
	if degrees < 0 {
		speed = MinSpeed
		degrees = -degrees
	}
	return m.Turn(speed, DegreesToDuration(speed, degrees))
}

// Calibrate exercises the full movement envelope. The progress callback is
// invoked after each completed step with (step, CalibrationSteps).
func (m *Motor) Calibrate(progress func(step, total int)) error {
	logx.Info("motor %s: calibrating", m.name)
	step := 0
	advance := func() {
		step++
		if progress != nil {
			progress(step, CalibrationSteps)
		}
	}

	if err := m.SetSpeed(MinSpeed); err != nil {
		return err
	}
	m.sleep(DefaultTurnDuration)
	advance()

	if err := m.SetSpeed(MaxSpeed); err != nil {
		return err
	}
	m.sleep(DefaultTurnDuration)
	advance()

	if err := m.TurnLeft(DefaultTurnDuration); err != nil {
		return err
	}
	advance()
	if err := m.TurnRight(DefaultTurnDuration); err != nil {
		return err
	}
	advance()
	if err := m.TurnDegrees(-DefaultTurnDegrees); err != nil {
		return err
	}
	advance()
	if err := m.TurnDegrees(DefaultTurnDegrees); err != nil {
		return err
	}
	advance()

	m.Stop()
	advance()
	logx.Info("motor %s: calibration complete", m.name)
	return nil
}
