package panel

import (
	"context"
	"testing"
	"time"

	"feedercode-go/bus"
	"feedercode-go/drivers/neostrip"
	"feedercode-go/leds"
	"feedercode-go/types"
	"feedercode-go/x/timex"
)

func TestServiceAppliesBusCommands(t *testing.T) {
	strip, _ := neostrip.NewRecorded()
	p := New(strip, timex.NowMs, Config{Background: testBackground})

	b := bus.NewBus(8)
	svc := NewService(p)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx, b.NewConnection("panel")); err != nil {
		t.Fatal(err)
	}

	pub := b.NewConnection("test")
	enabled := false
	pub.Publish(pub.NewMessage(topicComponent, types.PanelComponentSet{
		Component: "server",
		Enabled:   &enabled,
	}, false))
	pub.Publish(pub.NewMessage(topicActivity, types.PanelActivity{
		Component: "server",
	}, false))

	// Let the loop apply the commands and render a few frames, then stop it
	// before inspecting the buffer.
	time.Sleep(3 * RenderInterval)
	cancel()
	time.Sleep(RenderInterval)

	n, _ := p.Node(Server)
	if n.Enabled {
		t.Fatal("component set not applied")
	}
	// Activity lands one pixel ahead of the node.
	if got := strip.Pixel(int(n.Pos) + 1); got != leds.LimeGreen {
		t.Fatalf("pulse pixel = %v, want server colour", got)
	}
}

func TestServiceIgnoresMalformedPayloads(t *testing.T) {
	strip, _ := neostrip.NewRecorded()
	p := New(strip, timex.NowMs, Config{Background: testBackground})
	svc := NewService(p)

	free := p.FreeSlots()
	svc.handleActivity(&bus.Message{Topic: topicActivity, Payload: "garbage"})
	svc.handleActivity(&bus.Message{Topic: topicActivity, Payload: types.PanelActivity{Component: "toaster"}})
	svc.handleTransmission(&bus.Message{Topic: topicTransmission, Payload: 42})
	if p.FreeSlots() != free {
		t.Fatal("malformed payloads queued commands")
	}
}
