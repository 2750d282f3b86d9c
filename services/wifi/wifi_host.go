//go:build !rp2040

package wifi

import "context"

// LoopbackLink is the host-side Link for the simulator and tests: it
// associates instantly and hands out fixed identity.
type LoopbackLink struct {
	Addr     string
	Hardware string
	FailNext int // Connect fails this many times before succeeding
	isUp     bool
}

func NewLoopback() *LoopbackLink {
	return &LoopbackLink{Addr: "192.168.1.50", Hardware: "de:ad:be:ef:ca:fe"}
}

func (l *LoopbackLink) Connect(ctx context.Context) error {
	if l.FailNext > 0 {
		l.FailNext--
		return context.DeadlineExceeded
	}
	l.isUp = true
	return nil
}

func (l *LoopbackLink) Disconnect() { l.isUp = false }

func (l *LoopbackLink) IP() (string, error) { return l.Addr, nil }

func (l *LoopbackLink) MAC() (string, error) { return l.Hardware, nil }

func (l *LoopbackLink) Up() bool { return l.isUp }
