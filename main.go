//go:build rp2040

// Pet feeder firmware for the Raspberry Pi Pico. Wires the hardware
// backends (ws2812 strip, AT-09 radio, ESP-AT wifi, PWM servos) into the
// service stack and starts everything on the shared bus.
package main

import (
	"context"
	"machine"
	"net/http"
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

// Board wiring.
const (
	pinStripData = machine.GP2

	pinBLETx     = machine.GP8
	pinBLERx     = machine.GP9
	pinBLEEnable = machine.GP10
	pinBLEState  = machine.GP11

	pinWifiTx = machine.GP0
	pinWifiRx = machine.GP1

	pinServoLeft  = machine.GP14
	pinServoRight = machine.GP15
)

// Network credentials and endpoints, baked in at build time.
const (
	wifiSSID = "feeder-net"
	wifiPass = "hungry-pets"

	controlServer = "http://feeder-control.local:8000"
	ntfyServer    = "https://ntfy.sh"
	ntfyTopic     = "pet-feeder"
	boardName     = "feeder-pico"
)

type gpioPin struct{ pin machine.Pin }

func (p gpioPin) Set(v bool) { p.pin.Set(v) }
func (p gpioPin) Get() bool  { return p.pin.Get() }

// serialReader adapts the byte-oriented USB CDC serial to io.Reader for
// the console's line scanner.
type serialReader struct{ s machine.Serialer }

func (r serialReader) Read(buf []byte) (int, error) {
	for {
		if r.s.Buffered() > 0 {
			n := 0
			for n < len(buf) && r.s.Buffered() > 0 {
				c, err := r.s.ReadByte()
				if err != nil {
					return n, err
				}
				buf[n] = c
				n++
			}
			return n, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type serialWriter struct{ s machine.Serialer }

func (w serialWriter) Write(b []byte) (int, error) {
	return w.s.Write(b)
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	logx.Info("boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "feeder")
	b := bus.NewBus(8)

	// Panel first, so the boot progress bar runs while the radios come up.
	strip := neostrip.NewHardware(pinStripData)
	p := panel.New(strip, timex.NowMs, panel.Config{})
	panelSvc := panel.NewService(p)
	if err := panelSvc.Start(ctx, b.NewConnection("panel")); err != nil {
		logx.Critical("panel: %v", err)
	}

	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	hb := heartbeat.NewService(gpioPin{machine.LED}, time.Second)
	if err := hb.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		logx.Error("heartbeat: %v", err)
	}

	link := wifi.NewESPAT(machine.UART0, pinWifiTx, pinWifiRx, wifiSSID, wifiPass)
	if err := wifi.NewService(link).Start(ctx, b.NewConnection("wifi")); err != nil {
		logx.Error("wifi: %v", err)
	}

	client := feedctrl.NewClient(controlServer, http.DefaultClient)
	ctrlSvc := feedctrl.NewService(client, feedctrl.Config{
		ControlServer: controlServer,
		NtfyServer:    ntfyServer,
		NtfyTopic:     ntfyTopic,
		BoardName:     boardName,
	})
	if err := ctrlSvc.Start(ctx, b.NewConnection("feedctrl")); err != nil {
		logx.Error("feedctrl: %v", err)
	}

	left := motor.New(motor.NewPWMServo(machine.PWM7, pinServoLeft), "left")
	right := motor.New(motor.NewPWMServo(machine.PWM7, pinServoRight), "right")
	if err := motor.NewService(left, right).Start(ctx, b.NewConnection("motor")); err != nil {
		logx.Error("motor: %v", err)
	}

	pinBLEEnable.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinBLEState.Configure(machine.PinConfig{Mode: machine.PinInput})
	dev, err := at09.NewUART1(at09.DefaultBaud, pinBLETx, pinBLERx)
	if err != nil {
		logx.Critical("ble uart: %v", err)
	} else {
		bleSvc := ble.NewService(dev, gpioPin{pinBLEEnable}, gpioPin{pinBLEState}, ble.Config{})
		if err := bleSvc.Start(ctx, b.NewConnection("ble")); err != nil {
			logx.Error("ble: %v", err)
		}
	}

	feederSvc := feeder.NewService(client, feeder.Config{})
	if err := feederSvc.Start(ctx, b.NewConnection("feeder")); err != nil {
		logx.Error("feeder: %v", err)
	}

	web := httpd.NewService(httpd.Config{})
	if err := web.Start(ctx, b.NewConnection("httpd")); err != nil {
		logx.Error("httpd: %v", err)
	}

	// Serial console over USB CDC.
	sh := console.NewService(serialReader{machine.Serial}, serialWriter{machine.Serial})
	if err := sh.Start(ctx, b.NewConnection("console")); err != nil {
		logx.Error("console: %v", err)
	}

	logx.Info("feeder up")
	select {}
}
