//go:build !rp2040

// feeder-sim runs the whole firmware stack on a development machine: the
// LED strip renders to the terminal, the BLE module is a scripted serial
// fake, wifi is a loopback link and the control server is stubbed in
// process. The console reads from stdin, so every bus command can be
// driven by hand.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"feedercode-go/bus"
	"feedercode-go/drivers/at09"
	"feedercode-go/drivers/neostrip"
	"feedercode-go/services/ble"
	"feedercode-go/services/config"
	"feedercode-go/services/console"
	"feedercode-go/services/feedctrl"
	"feedercode-go/services/feeder"
	"feedercode-go/services/heartbeat"
	"feedercode-go/services/httpd"
	"feedercode-go/services/motor"
	"feedercode-go/services/panel"
	"feedercode-go/services/wifi"
	"feedercode-go/x/logx"
	"feedercode-go/x/timex"
)

const simBeacon = "AABBCCDDEEFF"

// ---- terminal LED strip ----

// termStrip renders each flushed frame as a row of coloured blocks. It
// implements neostrip.Writer, so it plugs in where the ws2812 device
// normally sits.
type termStrip struct {
	mu   sync.Mutex
	last string
}

func (t *termStrip) WriteFrame(grbw []byte) error {
	var sb strings.Builder
	for i := 0; i+3 < len(grbw); i += 4 {
		g, r, b, w := grbw[i], grbw[i+1], grbw[i+2], grbw[i+3]
		// Fold the white channel into RGB for display.
		fold := func(c byte) byte {
			v := int(c) + int(w)
			if v > 255 {
				v = 255
			}
			return byte(v)
		}
		fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm█", fold(r), fold(g), fold(b))
	}
	sb.WriteString("\x1b[0m")
	frame := sb.String()

	t.mu.Lock()
	changed := frame != t.last
	t.last = frame
	t.mu.Unlock()

	if changed {
		fmt.Printf("\r%s", frame)
	}
	return nil
}

// ---- fake AT-09 serial ----

// simSerial answers AT commands the way a real module does, including the
// run-together reply style, and scripts one nearby beacon per sweep.
type simSerial struct {
	mu      sync.Mutex
	pending []byte
	wake    chan struct{}
}

func newSimSerial() *simSerial {
	return &simSerial{wake: make(chan struct{}, 1)}
}

func (p *simSerial) push(s string) {
	p.mu.Lock()
	p.pending = append(p.pending, s...)
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *simSerial) Write(b []byte) (int, error) {
	cmd := string(b)
	switch {
	case strings.HasPrefix(cmd, "AT+DISC?"):
		go func() {
			time.Sleep(200 * time.Millisecond)
			p.push("OK+DISCSOK+DIS0:" + simBeacon + "OK+RSSI:-045OK+NAME:collarOK+DISCE")
		}()
	case strings.HasPrefix(cmd, "AT+ADDR?"):
		p.push("OK+Get:112233445566")
	case strings.HasPrefix(cmd, "AT+ROLE"):
		p.push("OK+Set:" + cmd[len("AT+ROLE"):])
	case cmd == "AT":
		p.push("OK")
	}
	return len(b), nil
}

func (p *simSerial) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		p.mu.Lock()
		if len(p.pending) > 0 {
			n := copy(buf, p.pending)
			p.pending = p.pending[n:]
			p.mu.Unlock()
			return n, nil
		}
		p.mu.Unlock()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-p.wake:
		}
	}
}

// ---- misc fakes ----

type simPin struct{ high bool }

func (p *simPin) Set(v bool) { p.high = v }
func (p *simPin) Get() bool  { return p.high }

// simServo logs motion instead of generating PWM.
type simServo struct{ name string }

func (s *simServo) Attach() error { return nil }
func (s *simServo) Write(angle int) error {
	logx.Info("servo %s: angle %d", s.name, angle)
	return nil
}
func (s *simServo) Detach() {}

// stubControl plays the control server: every pet is always hungry.
type stubControl struct{}

func (stubControl) Do(req *http.Request) (*http.Response, error) {
	body := `{"fed": false, "reason": ""}`
	logx.Info("control: %s %s", req.Method, req.URL.Path)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, "feeder")

	b := bus.NewBus(16)

	// Panel over the terminal strip.
	strip := neostrip.New(&termStrip{})
	p := panel.New(strip, timex.NowMs, panel.Config{})
	panelSvc := panel.NewService(p)
	if err := panelSvc.Start(ctx, b.NewConnection("panel")); err != nil {
		logx.Critical("panel: %v", err)
		return
	}

	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	hb := heartbeat.NewService(&simPin{}, time.Second)
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	wifiSvc := wifi.NewService(wifi.NewLoopback())
	_ = wifiSvc.Start(ctx, b.NewConnection("wifi"))

	client := feedctrl.NewClient("http://control.local", stubControl{})
	ctrlSvc := feedctrl.NewService(client, feedctrl.Config{
		ControlServer: "http://control.local",
		NtfyServer:    "http://ntfy.local",
		NtfyTopic:     "feeder",
		BoardName:     "feeder-sim",
	})
	_ = ctrlSvc.Start(ctx, b.NewConnection("feedctrl"))

	left := motor.New(&simServo{name: "left"}, "left")
	right := motor.New(&simServo{name: "right"}, "right")
	motorSvc := motor.NewService(left, right)
	_ = motorSvc.Start(ctx, b.NewConnection("motor"))

	port := newSimSerial()
	radio := &simPin{}
	bleSvc := ble.NewService(at09.New(port), radio, radio, ble.Config{
		ScanInterval: 15 * time.Second,
	})
	_ = bleSvc.Start(ctx, b.NewConnection("ble"))

	feederSvc := feeder.NewService(client, feeder.Config{
		Portions: 2,
		Cooldown: 30 * time.Second,
	})
	_ = feederSvc.Start(ctx, b.NewConnection("feeder"))

	web := httpd.NewService(httpd.Config{Addr: "127.0.0.1:8080"})
	if err := web.Start(ctx, b.NewConnection("httpd")); err != nil {
		logx.Error("httpd: %v", err)
	}

	sh := console.NewService(os.Stdin, os.Stdout)
	_ = sh.Start(ctx, b.NewConnection("console"))

	logx.Info("feeder-sim up: http on 127.0.0.1:8080, type help for commands")
	<-ctx.Done()
	fmt.Println()
}
