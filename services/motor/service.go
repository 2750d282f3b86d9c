package motor

import (
	"context"
	"time"

	"feedercode-go/bus"
	"feedercode-go/types"
	"feedercode-go/x/logx"
	"feedercode-go/x/timex"
)

var (
	topicLeftTurn       = bus.T("motor/left/turn")
	topicRightTurn      = bus.T("motor/right/turn")
	topicLeftCalibrate  = bus.T("motor/left/calibrate")
	topicRightCalibrate = bus.T("motor/right/calibrate")
	topicActivity       = bus.T("panel/activity")
	topicComponent      = bus.T("panel/component")
)

// Service owns both feed motors and maps bus commands onto them. One
// command runs at a time; movement blocks its handler (open-loop
// timing is the rotation control).
type Service struct {
	left  *Motor
	right *Motor
}

func NewService(left, right *Motor) *Service {
	return &Service{left: left, right: right}
}

func (s *Service) stateTopic(m *Motor) bus.Topic {
	if m == s.left {
		return bus.T("motor/left/state")
	}
	return bus.T("motor/right/state")
}

func (s *Service) componentFor(m *Motor) string {
	if m == s.left {
		return "motor_left"
	}
	return "motor_right"
}

func (s *Service) publishState(conn *bus.Connection, m *Motor, running bool) {
	conn.Publish(conn.NewMessage(s.stateTopic(m), types.MotorState{
		Running: running,
		TS:      timex.NowMs(),
	}, true))
}

func (s *Service) turn(conn *bus.Connection, m *Motor, cmd types.MotorTurn) {
	s.publishState(conn, m, true)
	defer s.publishState(conn, m, false)

	var err error
	switch {
	case cmd.Degrees != 0:
		err = m.TurnDegrees(cmd.Degrees)
	case cmd.Speed != 0:
		err = m.Turn(cmd.Speed, time.Duration(cmd.DurationMs)*time.Millisecond)
	default:
		err = m.Turn(DefaultSpeed, time.Duration(cmd.DurationMs)*time.Millisecond)
	}
	if err != nil {
		logx.Error("motor %s: turn failed: %v", s.componentFor(m), err)
	}
}

func (s *Service) calibrate(conn *bus.Connection, m *Motor) {
	s.publishState(conn, m, true)
	defer s.publishState(conn, m, false)

	err := m.Calibrate(func(step, total int) {
		// One pulse per completed step keeps the panel alive during the
		// long blocking routine.
		conn.Publish(conn.NewMessage(topicActivity, types.PanelActivity{
			Component: s.componentFor(m),
		}, false))
	})
	if err != nil {
		logx.Error("motor %s: calibration failed: %v", s.componentFor(m), err)
	}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	leftSub := conn.Subscribe(topicLeftTurn)
	rightSub := conn.Subscribe(topicRightTurn)
	leftCalSub := conn.Subscribe(topicLeftCalibrate)
	rightCalSub := conn.Subscribe(topicRightCalibrate)
	defer conn.Unsubscribe(leftSub)
	defer conn.Unsubscribe(rightSub)
	defer conn.Unsubscribe(leftCalSub)
	defer conn.Unsubscribe(rightCalSub)

	handleTurn := func(m *Motor, msg *bus.Message) {
		cmd, ok := msg.Payload.(types.MotorTurn)
		if !ok {
			logx.Warn("motor: turn payload type %T", msg.Payload)
			return
		}
		s.turn(conn, m, cmd)
		conn.Reply(msg, "done", false)
	}

	for {
		select {
		case <-ctx.Done():
			logx.Info("motor: service stopping")
			return
		case msg := <-leftSub.Channel():
			handleTurn(s.left, msg)
		case msg := <-rightSub.Channel():
			handleTurn(s.right, msg)
		case msg := <-leftCalSub.Channel():
			s.calibrate(conn, s.left)
			conn.Reply(msg, "done", false)
		case msg := <-rightCalSub.Channel():
			s.calibrate(conn, s.right)
			conn.Reply(msg, "done", false)
		}
	}
}

// Start initialises both motors, lights their panel components and launches
// the command loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	for _, m := range []*Motor{s.left, s.right} {
		if err := m.Init(); err != nil {
			logx.Error("motor %s: init failed: %v", s.componentFor(m), err)
			continue
		}
		name := s.componentFor(m)
		m.OnMove(func() {
			conn.Publish(conn.NewMessage(topicActivity, types.PanelActivity{Component: name}, false))
		})
		e := true
		conn.Publish(conn.NewMessage(topicComponent, types.PanelComponentSet{
			Component: name,
			Enabled:   &e,
		}, false))
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
