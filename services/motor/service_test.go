package motor

import (
	"context"
	"testing"
	"time"

	"feedercode-go/bus"
	"feedercode-go/types"
)

func TestServiceTurnOverBus(t *testing.T) {
	left, lf, _ := newTestMotor()
	right, _, _ := newTestMotor()
	svc := NewService(left, right)

	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx, b.NewConnection("motor")); err != nil {
		t.Fatal(err)
	}

	client := b.NewConnection("test")
	req := client.NewMessage(topicLeftTurn, types.MotorTurn{Speed: -100, DurationMs: 50}, false)
	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	reply, err := client.RequestWait(rctx, req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if reply.Payload != "done" {
		t.Fatalf("reply = %v", reply.Payload)
	}
	if len(lf.angles) == 0 || lf.angles[len(lf.angles)-1] != ServoStop {
		t.Fatalf("left servo angles = %v", lf.angles)
	}
}

func TestServiceCalibrateSignalsPanel(t *testing.T) {
	left, _, _ := newTestMotor()
	right, _, _ := newTestMotor()
	svc := NewService(left, right)

	b := bus.NewBus(32)
	watcher := b.NewConnection("test-watch")
	actSub := watcher.Subscribe(topicActivity)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx, b.NewConnection("motor")); err != nil {
		t.Fatal(err)
	}

	client := b.NewConnection("test")
	req := client.NewMessage(topicRightCalibrate, nil, false)
	rctx, rcancel := context.WithTimeout(ctx, 2*time.Second)
	defer rcancel()
	if _, err := client.RequestWait(rctx, req); err != nil {
		t.Fatalf("calibrate request: %v", err)
	}

	pulses := 0
	deadline := time.Now().Add(500 * time.Millisecond)
	for pulses < CalibrationSteps && time.Now().Before(deadline) {
		select {
		case m := <-actSub.Channel():
			if a, ok := m.Payload.(types.PanelActivity); ok && a.Component == "motor_right" {
				pulses++
			}
		case <-time.After(20 * time.Millisecond):
		}
	}
	if pulses != CalibrationSteps {
		t.Fatalf("activity pulses = %d, want %d", pulses, CalibrationSteps)
	}
}
