package ble

import (
	"context"
	"testing"
	"time"

	"feedercode-go/bus"
	"feedercode-go/drivers/at09"
	"feedercode-go/errcode"
	"feedercode-go/types"
)

type fakePin struct{ high bool }

func (p *fakePin) Set(v bool) { p.high = v }
func (p *fakePin) Get() bool  { return p.high }

type fakePort struct {
	wrote  []string
	chunks []string
}

func (f *fakePort) Write(b []byte) (int, error) {
	f.wrote = append(f.wrote, string(b))
	return len(b), nil
}

func (f *fakePort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(f.chunks) == 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	n := copy(buf, f.chunks[0])
	f.chunks = f.chunks[1:]
	return n, nil
}

func newTestService() (*Service, *fakePort, *fakePin, *fakePin) {
	port := &fakePort{}
	en := &fakePin{}
	state := &fakePin{}
	svc := NewService(at09.New(port), en, state, Config{})
	return svc, port, en, state
}

func collect(t *testing.T, sub *bus.Subscription, n int) []*bus.Message {
	t.Helper()
	var out []*bus.Message
	deadline := time.Now().Add(300 * time.Millisecond)
	for len(out) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			out = append(out, m)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(out) != n {
		t.Fatalf("expected %d messages, got %d", n, len(out))
	}
	return out
}

func TestEnableDrivesPinAndPanel(t *testing.T) {
	svc, _, en, _ := newTestService()
	b := bus.NewBus(8)
	conn := b.NewConnection("ble")
	watcher := b.NewConnection("test")
	compSub := watcher.Subscribe(bus.T("panel/component"))

	svc.Enable(conn)
	if !en.high {
		t.Fatal("EN pin not raised")
	}
	msgs := collect(t, compSub, 1)
	set := msgs[0].Payload.(types.PanelComponentSet)
	if set.Component != "bluetooth" || set.Enabled == nil || !*set.Enabled {
		t.Fatalf("component set %+v", set)
	}

	svc.Disable(conn)
	if en.high {
		t.Fatal("EN pin not dropped")
	}
}

func TestSendSignalsPanel(t *testing.T) {
	svc, port, _, _ := newTestService()
	b := bus.NewBus(8)
	conn := b.NewConnection("ble")
	watcher := b.NewConnection("test")
	actSub := watcher.Subscribe(bus.T("panel/activity"))
	txSub := watcher.Subscribe(bus.T("panel/transmission"))

	svc.Enable(conn)
	if err := svc.Send(conn, []byte("dinner")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if port.wrote[len(port.wrote)-1] != "dinner" {
		t.Fatalf("wrote %v", port.wrote)
	}
	collect(t, actSub, 1)
	tx := collect(t, txSub, 1)[0].Payload.(types.PanelTransmission)
	if tx.Size != 6 {
		t.Fatalf("transmission size = %d, want 6", tx.Size)
	}
}

func TestSendWhileDisabled(t *testing.T) {
	svc, _, _, _ := newTestService()
	b := bus.NewBus(8)
	conn := b.NewConnection("ble")
	if err := svc.Send(conn, []byte("x")); errcode.Of(err) != errcode.RadioDisabled {
		t.Fatalf("err = %v, want radio_disabled", err)
	}
}

func TestScanPublishesSightings(t *testing.T) {
	svc, port, _, _ := newTestService()
	b := bus.NewBus(16)
	conn := b.NewConnection("ble")
	watcher := b.NewConnection("test")
	sightSub := watcher.Subscribe(bus.T("ble/sighting"))

	port.chunks = []string{"OK+DISCS", "OK+DIS0:001122334455", "OK+DIS0:AABBCCDDEEFF", "OK+DISCE"}
	svc.scan(context.Background(), conn)

	msgs := collect(t, sightSub, 2)
	first := msgs[0].Payload.(types.BeaconSighting)
	if first.MAC != "001122334455" {
		t.Fatalf("sighting %+v", first)
	}
}

func TestConfigAdjustsScanInterval(t *testing.T) {
	svc, _, _, _ := newTestService()
	tick := time.NewTicker(time.Hour)
	defer tick.Stop()

	svc.applyConfig(map[string]any{"scan_interval_s": float64(2)}, tick)
	if svc.scanInterval != 2*time.Second {
		t.Fatalf("scan interval = %v, want 2s", svc.scanInterval)
	}

	// Bad shapes leave the interval alone.
	svc.applyConfig("not a map", tick)
	svc.applyConfig(map[string]any{"scan_interval_s": float64(-1)}, tick)
	if svc.scanInterval != 2*time.Second {
		t.Fatalf("scan interval changed on bad config: %v", svc.scanInterval)
	}
}
