//go:build rp2040

package at09

import (
	"context"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// uartPort adapts a uartx UART to the driver's SerialPort.
type uartPort struct{ u *uartx.UART }

func (p *uartPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *uartPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}

// NewUART1 configures UART1 for the radio and returns the driver on it.
func NewUART1(baud uint32, tx, rx machine.Pin) (*Device, error) {
	u := uartx.UART1
	if err := u.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx}); err != nil {
		return nil, err
	}
	return New(&uartPort{u: u}), nil
}
