// Package at09 drives AT-09/HM-10 style BLE modules over a serial AT
// command link.
//
// Module behaviour (observed, the clones differ from the datasheets):
// • Commands are plain "AT+..." strings, no CR/LF required on most clones.
// • Replies: "OK", "OK+Set:...", "OK+Get:...".
// • Discovery: "AT+DISC?" answers "OK+DISCS", then one "OK+DIS0:<mac>"
//   (optionally "OK+RSSI:<n>" and "OK+NAME:<s>") per device, then
//   "OK+DISCE".
// • Unsolicited "OK+CONN" / "OK+LOST" signal central connect/disconnect.
package at09

import (
	"context"
	"strconv"
	"strings"
	"time"

	"feedercode-go/errcode"
)

const (
	DefaultBaud = 9600

	// MaxDevices bounds one discovery sweep; further sightings only bump
	// the overflow counter.
	MaxDevices = 8

	cmdPing     = "AT"
	cmdDisc     = "AT+DISC?"
	cmdAddrGet  = "AT+ADDR?"
	replyOK     = "OK"
	replyDiscS  = "OK+DISCS"
	replyDiscE  = "OK+DISCE"
	replyDis    = "OK+DIS0:"
	replyRSSI   = "OK+RSSI:"
	replyName   = "OK+NAME:"
	replyGet    = "OK+Get:"
	replySet    = "OK+Set:"
	EventConn   = "OK+CONN"
	EventLost   = "OK+LOST"
	macHexChars = 12
)

// Role of the module on the link.
type Role uint8

const (
	RolePeripheral Role = 0
	RoleCentral    Role = 1
)

// SerialPort is the transport contract. The rp2040 build satisfies it with
// a uartx port; tests use an in-memory fake.
type SerialPort interface {
	Write(b []byte) (int, error)
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

// Found is one device seen during a discovery sweep.
type Found struct {
	MAC  string
	Name string
	RSSI int
}

// Device is the AT-09 driver. Not safe for concurrent use; the owning
// service serialises access.
type Device struct {
	port SerialPort

	rx      [64]byte
	pending string // raw bytes carried over between reads

	connected bool
	overflow  int
}

func New(port SerialPort) *Device {
	return &Device{port: port}
}

// Connected reports the link state derived from OK+CONN/OK+LOST events seen
// so far. Callers with a wired STATE pin should prefer that.
func (d *Device) Connected() bool { return d.connected }

// Overflow returns how many devices the last discovery dropped.
func (d *Device) Overflow() int { return d.overflow }

func (d *Device) send(cmd string) error {
	if _, err := d.port.Write([]byte(cmd)); err != nil {
		return errcode.ATError.E("write " + cmd)
	}
	return nil
}

// readChunk pulls whatever the module has buffered into d.pending.
func (d *Device) readChunk(ctx context.Context) error {
	n, err := d.port.RecvSomeContext(ctx, d.rx[:])
	if n > 0 {
		d.pending += string(d.rx[:n])
	}
	return err
}

// nextToken scans d.pending for the next "OK..." token. AT-09 clones run
// replies together without separators, so tokens are split on the next
// "OK" boundary, falling back to CR/LF when present.
func (d *Device) nextToken() (string, bool) {
	s := strings.TrimLeft(d.pending, "\r\n")
	// Link events can be glued straight onto payload with no separator;
	// peel them off before generic splitting.
	for _, ev := range [...]string{EventConn, EventLost} {
		if strings.HasPrefix(s, ev) {
			d.pending = s[len(ev):]
			return ev, true
		}
	}
	if !strings.HasPrefix(s, replyOK) {
		// Non-reply payload (data mode). Hand back up to the next OK.
		if i := strings.Index(s, replyOK); i > 0 {
			d.pending = s[i:]
			return s[:i], true
		}
		d.pending = ""
		if s == "" {
			return "", false
		}
		return s, true
	}
	// Find the start of the following reply.
	if i := strings.Index(s[2:], replyOK); i >= 0 {
		tok := strings.TrimRight(s[:i+2], "\r\n")
		d.pending = s[i+2:]
		return tok, true
	}
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		tok := s[:i]
		d.pending = strings.TrimLeft(s[i:], "\r\n")
		return tok, true
	}
	d.pending = ""
	return s, true
}

// waitToken blocks until a token arrives or ctx expires.
func (d *Device) waitToken(ctx context.Context) (string, error) {
	for {
		if tok, ok := d.nextToken(); ok {
			d.track(tok)
			return tok, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := d.readChunk(ctx); err != nil {
			return "", err
		}
	}
}

// track folds unsolicited events into driver state.
func (d *Device) track(tok string) {
	switch tok {
	case EventConn:
		d.connected = true
	case EventLost:
		d.connected = false
	}
}

// Ping checks the module answers AT at all.
func (d *Device) Ping(ctx context.Context) error {
	if err := d.send(cmdPing); err != nil {
		return err
	}
	tok, err := d.waitToken(ctx)
	if err != nil {
		return errcode.ATError.E("ping: " + err.Error())
	}
	if tok != replyOK && !strings.HasPrefix(tok, replySet) {
		return errcode.ATError.E("ping reply " + tok)
	}
	return nil
}

// SetRole switches between peripheral (0) and central (1).
func (d *Device) SetRole(ctx context.Context, r Role) error {
	if err := d.send("AT+ROLE" + strconv.Itoa(int(r))); err != nil {
		return err
	}
	tok, err := d.waitToken(ctx)
	if err != nil {
		return errcode.ATError.E("role: " + err.Error())
	}
	if !strings.HasPrefix(tok, replySet) && tok != replyOK {
		return errcode.ATError.E("role reply " + tok)
	}
	return nil
}

// Address queries the module MAC ("OK+Get:<12 hex>").
func (d *Device) Address(ctx context.Context) (string, error) {
	if err := d.send(cmdAddrGet); err != nil {
		return "", err
	}
	tok, err := d.waitToken(ctx)
	if err != nil {
		return "", errcode.ATError.E("addr: " + err.Error())
	}
	addr, ok := strings.CutPrefix(tok, replyGet)
	if !ok || len(addr) < macHexChars {
		return "", errcode.ATError.E("addr reply " + tok)
	}
	return addr[:macHexChars], nil
}

// Discover runs one discovery sweep, collecting devices until the module
// reports OK+DISCE or ctx expires. Scans need central role.
func (d *Device) Discover(ctx context.Context) ([]Found, error) {
	d.overflow = 0
	if err := d.send(cmdDisc); err != nil {
		return nil, err
	}

	var found []Found
	for {
		tok, err := d.waitToken(ctx)
		if err != nil {
			// Timeouts just end the sweep; partial results stand.
			return found, nil
		}
		switch {
		case tok == replyDiscS, tok == replyOK:
			// sweep started
		case tok == replyDiscE:
			return found, nil
		case strings.HasPrefix(tok, replyDis):
			mac := strings.TrimPrefix(tok, replyDis)
			if len(mac) > macHexChars {
				mac = mac[:macHexChars]
			}
			if len(found) >= MaxDevices {
				d.overflow++
				continue
			}
			found = append(found, Found{MAC: mac, RSSI: -127})
		case strings.HasPrefix(tok, replyRSSI):
			if len(found) == 0 {
				continue
			}
			if v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(tok, replyRSSI))); err == nil {
				found[len(found)-1].RSSI = v
			}
		case strings.HasPrefix(tok, replyName):
			if len(found) == 0 {
				continue
			}
			found[len(found)-1].Name = strings.TrimSpace(strings.TrimPrefix(tok, replyName))
		}
	}
}

// Send writes raw payload to the connected peer (transparent UART mode).
func (d *Device) Send(data []byte) (int, error) {
	n, err := d.port.Write(data)
	if err != nil {
		return n, errcode.ATError.E("send")
	}
	return n, nil
}

// Receive drains whatever payload is pending, filtering out unsolicited
// link events. A zero-length result with nil error means nothing pending.
func (d *Device) Receive(ctx context.Context) (string, error) {
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_ = d.readChunk(short)

	var out strings.Builder
	for {
		tok, ok := d.nextToken()
		if !ok {
			break
		}
		d.track(tok)
		if tok == EventConn || tok == EventLost {
			continue
		}
		out.WriteString(tok)
	}
	return out.String(), nil
}
