//go:build rp2040

package wifi

import (
	"context"
	"machine"

	"tinygo.org/x/drivers/espat"
	"tinygo.org/x/drivers/netlink"
)

// espatLink runs the station over an ESP-AT co-processor on a UART.
type espatLink struct {
	dev  *espat.Device
	ssid string
	pass string
	up   bool
}

// NewESPAT builds the rp2040 link. The ESP module hangs off the given UART.
func NewESPAT(uart *machine.UART, tx, rx machine.Pin, ssid, pass string) Link {
	dev := espat.NewDevice(&espat.Config{
		Uart: uart,
		Tx:   tx,
		Rx:   rx,
	})
	return &espatLink{dev: dev, ssid: ssid, pass: pass}
}

func (l *espatLink) Connect(ctx context.Context) error {
	err := l.dev.NetConnect(&netlink.ConnectParams{
		Ssid:       l.ssid,
		Passphrase: l.pass,
	})
	if err != nil {
		l.up = false
		return err
	}
	l.up = true
	return nil
}

func (l *espatLink) Disconnect() {
	l.dev.NetDisconnect()
	l.up = false
}

func (l *espatLink) IP() (string, error) {
	addr, err := l.dev.Addr()
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

func (l *espatLink) MAC() (string, error) {
	hw, err := l.dev.GetHardwareAddr()
	if err != nil {
		return "", err
	}
	return hw.String(), nil
}

func (l *espatLink) Up() bool { return l.up }
