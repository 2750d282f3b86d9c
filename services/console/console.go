// Package console is a line-oriented command shell over a serial (or any
// io.Reader/Writer) stream. Commands are translated into bus messages, so
// the console can poke every service the same way they poke each other.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"feedercode-go/bus"
	"feedercode-go/types"
	"feedercode-go/x/logx"
	"feedercode-go/x/timex"

	"github.com/google/shlex"
)

var (
	topicSighting       = bus.T("ble/sighting")
	topicSend           = bus.T("ble/send")
	topicHeartbeatCfg   = bus.T("config/heartbeat")
	topicPanelComponent = bus.T("panel/component")
)

const (
	prompt         = "> "
	requestTimeout = 30 * time.Second
)

type Service struct {
	in  io.Reader
	out io.Writer
}

func NewService(in io.Reader, out io.Writer) *Service {
	return &Service{in: in, out: out}
}

func (s *Service) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\r\n", args...)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	scan := bufio.NewScanner(s.in)
	fmt.Fprint(s.out, prompt)
	for scan.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.dispatch(ctx, conn, scan.Text())
		fmt.Fprint(s.out, prompt)
	}
	if err := scan.Err(); err != nil {
		logx.Warn("console: input closed: %v", err)
	}
}

func (s *Service) dispatch(ctx context.Context, conn *bus.Connection, line string) {
	words, err := shlex.Split(line)
	if err != nil {
		s.printf("parse error: %v", err)
		return
	}
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case "help":
		s.printf("commands: feed <mac>, turn <left|right> [speed] [ms], calibrate <left|right>,")
		s.printf("          panel <component> <on|off>, blink <ms>, send <text...>, help")
	case "feed":
		s.cmdFeed(conn, words[1:])
	case "turn":
		s.cmdTurn(ctx, conn, words[1:])
	case "calibrate":
		s.cmdCalibrate(ctx, conn, words[1:])
	case "panel":
		s.cmdPanel(conn, words[1:])
	case "blink":
		s.cmdBlink(conn, words[1:])
	case "send":
		s.cmdSend(conn, words[1:])
	default:
		s.printf("unknown command %q (try help)", words[0])
	}
}

// cmdFeed injects a beacon sighting, as if the radio had seen the collar.
func (s *Service) cmdFeed(conn *bus.Connection, args []string) {
	if len(args) != 1 {
		s.printf("usage: feed <beacon-mac>")
		return
	}
	conn.Publish(conn.NewMessage(topicSighting, types.BeaconSighting{
		MAC:  args[0],
		RSSI: -40,
		TS:   timex.NowMs(),
	}, false))
	s.printf("sighting injected for %s", args[0])
}

func motorTopic(side, op string) (bus.Topic, bool) {
	if side != "left" && side != "right" {
		return nil, false
	}
	return bus.T("motor/" + side + "/" + op), true
}

func (s *Service) cmdTurn(ctx context.Context, conn *bus.Connection, args []string) {
	if len(args) < 1 {
		s.printf("usage: turn <left|right> [speed] [ms]")
		return
	}
	topic, ok := motorTopic(args[0], "turn")
	if !ok {
		s.printf("no such motor %q", args[0])
		return
	}
	turn := types.MotorTurn{}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			s.printf("bad speed %q", args[1])
			return
		}
		turn.Speed = n
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			s.printf("bad duration %q", args[2])
			return
		}
		turn.DurationMs = n
	}
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if _, err := conn.RequestWait(rctx, conn.NewMessage(topic, turn, false)); err != nil {
		s.printf("turn failed: %v", err)
		return
	}
	s.printf("done")
}

func (s *Service) cmdCalibrate(ctx context.Context, conn *bus.Connection, args []string) {
	if len(args) != 1 {
		s.printf("usage: calibrate <left|right>")
		return
	}
	topic, ok := motorTopic(args[0], "calibrate")
	if !ok {
		s.printf("no such motor %q", args[0])
		return
	}
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if _, err := conn.RequestWait(rctx, conn.NewMessage(topic, nil, false)); err != nil {
		s.printf("calibrate failed: %v", err)
		return
	}
	s.printf("done")
}

func (s *Service) cmdPanel(conn *bus.Connection, args []string) {
	if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
		s.printf("usage: panel <component> <on|off>")
		return
	}
	enabled := args[1] == "on"
	conn.Publish(conn.NewMessage(topicPanelComponent, types.PanelComponentSet{
		Component: args[0],
		Enabled:   &enabled,
	}, false))
	s.printf("%s %s", args[0], args[1])
}

func (s *Service) cmdBlink(conn *bus.Connection, args []string) {
	if len(args) != 1 {
		s.printf("usage: blink <ms>")
		return
	}
	ms, err := strconv.Atoi(args[0])
	if err != nil || ms <= 0 {
		s.printf("bad interval %q", args[0])
		return
	}
	conn.Publish(conn.NewMessage(topicHeartbeatCfg, types.BlinkConfig{IntervalMs: ms}, true))
	s.printf("blink interval set to %dms", ms)
}

func (s *Service) cmdSend(conn *bus.Connection, args []string) {
	if len(args) == 0 {
		s.printf("usage: send <text...>")
		return
	}
	text := args[0]
	for _, w := range args[1:] {
		text += " " + w
	}
	conn.Publish(conn.NewMessage(topicSend, text, false))
	s.printf("queued %d bytes", len(text))
}

func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
