package heartbeat

import (
	"context"
	"sync"
	"testing"
	"time"

	"feedercode-go/bus"
	"feedercode-go/types"
)

type fakeLED struct {
	mu   sync.Mutex
	sets []bool
}

func (p *fakeLED) Set(high bool) {
	p.mu.Lock()
	p.sets = append(p.sets, high)
	p.mu.Unlock()
}

func (p *fakeLED) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sets)
}

func TestBlinksAtInterval(t *testing.T) {
	led := &fakeLED{}
	b := bus.NewBus(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewService(led, 10*time.Millisecond)
	if err := s.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		t.Fatal(err)
	}

	time.Sleep(55 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	if n := led.count(); n < 3 {
		t.Fatalf("expected at least 3 toggles, got %d", n)
	}
}

func TestIntervalUpdatesFromBus(t *testing.T) {
	led := &fakeLED{}
	b := bus.NewBus(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewService(led, time.Hour)
	if err := s.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	pub := b.NewConnection("test")
	pub.Publish(pub.NewMessage(bus.T("config/heartbeat"),
		types.BlinkConfig{IntervalMs: 10}, false))

	time.Sleep(55 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	if n := led.count(); n < 3 {
		t.Fatalf("expected reconfigured blink, got %d toggles", n)
	}
}

func TestBadConfigIgnored(t *testing.T) {
	if _, ok := configInterval(map[string]any{"interval_ms": "fast"}); ok {
		t.Fatal("string interval should be rejected")
	}
	if _, ok := configInterval(types.BlinkConfig{IntervalMs: 0}); ok {
		t.Fatal("zero interval should be rejected")
	}
	if iv, ok := configInterval(map[string]any{"interval_ms": float64(250)}); !ok || iv != 250*time.Millisecond {
		t.Fatalf("got %v %v", iv, ok)
	}
}
