// Package ble owns the AT-09 radio: power control, link supervision,
// payload send/receive and the periodic beacon discovery sweep that feeds
// the feeder orchestrator.
package ble

import (
	"context"
	"time"

	"feedercode-go/bus"
	"feedercode-go/drivers/at09"
	"feedercode-go/errcode"
	"feedercode-go/types"
	"feedercode-go/x/logx"
	"feedercode-go/x/timex"
)

var (
	topicStatus       = bus.T("ble/status")
	topicSighting     = bus.T("ble/sighting")
	topicReceived     = bus.T("ble/received")
	topicSend         = bus.T("ble/send")
	topicConfig       = bus.T("config/ble")
	topicActivity     = bus.T("panel/activity")
	topicTransmission = bus.T("panel/transmission")
)

const (
	componentName = "bluetooth"

	// powerUpDelay gives the module time to boot after EN goes high.
	powerUpDelay = 50 * time.Millisecond

	DefaultScanInterval = 30 * time.Second
	scanTimeout         = 5 * time.Second
	pollInterval        = 250 * time.Millisecond
)

// EnablePin drives the module's EN line. machine.Pin satisfies it.
type EnablePin interface{ Set(bool) }

// StatePin reads the module's connection line.
type StatePin interface{ Get() bool }

type Config struct {
	ScanInterval time.Duration
}

type Service struct {
	dev   *at09.Device
	en    EnablePin
	state StatePin

	scanInterval time.Duration
	enabled      bool
}

func NewService(dev *at09.Device, en EnablePin, state StatePin, cfg Config) *Service {
	si := cfg.ScanInterval
	if si <= 0 {
		si = DefaultScanInterval
	}
	return &Service{dev: dev, en: en, state: state, scanInterval: si}
}

// Enable powers the radio and flags the panel component visible.
func (s *Service) Enable(conn *bus.Connection) {
	s.en.Set(true)
	time.Sleep(powerUpDelay)
	s.enabled = true
	s.publishComponent(conn, true)
	s.publishStatus(conn, types.LinkDown, "")
}

// Disable cuts power and hides the panel component.
func (s *Service) Disable(conn *bus.Connection) {
	s.en.Set(false)
	s.enabled = false
	s.publishComponent(conn, false)
	s.publishStatus(conn, types.LinkDown, "")
}

// Connected reads the hardware state line. Every poll signals panel
// activity when a peer is attached.
func (s *Service) Connected(conn *bus.Connection) bool {
	up := s.state.Get()
	if up {
		s.activity(conn)
	}
	return up
}

// Send pushes payload to the connected peer, signalling the transfer on
// the panel the whole way.
func (s *Service) Send(conn *bus.Connection, data []byte) error {
	if !s.enabled {
		return errcode.RadioDisabled
	}
	s.activity(conn)
	n, err := s.dev.Send(data)
	if err != nil {
		return err
	}
	size := n
	if size == 0 {
		size = 1
	}
	s.transmission(conn, size)
	return nil
}

// receivePending drains the radio and republishes payload on the bus.
func (s *Service) receivePending(ctx context.Context, conn *bus.Connection) {
	got, err := s.dev.Receive(ctx)
	if err != nil || got == "" {
		return
	}
	s.activity(conn)
	s.transmission(conn, len(got))
	conn.Publish(conn.NewMessage(topicReceived, got, false))
}

// scan runs one discovery sweep and publishes a sighting per device.
func (s *Service) scan(ctx context.Context, conn *bus.Connection) {
	sctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	s.activity(conn)
	found, err := s.dev.Discover(sctx)
	if err != nil {
		logx.Warn("ble: discovery failed: %v", err)
		return
	}
	now := timex.NowMs()
	for _, dev := range found {
		conn.Publish(conn.NewMessage(topicSighting, types.BeaconSighting{
			MAC:  dev.MAC,
			RSSI: dev.RSSI,
			TS:   now,
		}, false))
	}
	if n := s.dev.Overflow(); n > 0 {
		logx.Warn("ble: %d devices dropped in sweep (buffer full)", n)
	}
	logx.Info("ble: sweep found %d devices", len(found))
}

func (s *Service) publishStatus(conn *bus.Connection, link types.Link, errMsg string) {
	conn.Publish(conn.NewMessage(topicStatus, types.LinkStatus{
		Link:  link,
		TS:    timex.NowMs(),
		Error: errMsg,
	}, true))
}

func (s *Service) publishComponent(conn *bus.Connection, enabled bool) {
	e := enabled
	conn.Publish(conn.NewMessage(bus.T("panel/component"), types.PanelComponentSet{
		Component: componentName,
		Enabled:   &e,
	}, false))
}

func (s *Service) activity(conn *bus.Connection) {
	conn.Publish(conn.NewMessage(topicActivity, types.PanelActivity{Component: componentName}, false))
}

func (s *Service) transmission(conn *bus.Connection, size int) {
	conn.Publish(conn.NewMessage(topicTransmission, types.PanelTransmission{
		Component: componentName,
		Size:      size,
	}, false))
}

// applyConfig folds the device config section (config/ble) into the
// running service.
func (s *Service) applyConfig(payload any, scanTick *time.Ticker) {
	m, ok := payload.(map[string]any)
	if !ok {
		logx.Warn("ble: config payload type %T", payload)
		return
	}
	if secs, ok := m["scan_interval_s"].(float64); ok && secs > 0 {
		s.scanInterval = time.Duration(secs * float64(time.Second))
		scanTick.Reset(s.scanInterval)
		logx.Info("ble: scan interval set to %v", s.scanInterval)
	}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	sendSub := conn.Subscribe(topicSend)
	defer conn.Unsubscribe(sendSub)
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)

	scanTick := time.NewTicker(s.scanInterval)
	defer scanTick.Stop()
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	wasUp := false
	for {
		select {
		case <-ctx.Done():
			logx.Info("ble: service stopping")
			return
		case <-scanTick.C:
			if s.enabled {
				s.scan(ctx, conn)
			}
		case <-poll.C:
			if !s.enabled {
				continue
			}
			up := s.Connected(conn)
			if up != wasUp {
				wasUp = up
				link := types.LinkDown
				if up {
					link = types.LinkUp
				}
				s.publishStatus(conn, link, "")
			}
			if up {
				s.receivePending(ctx, conn)
			}
		case msg := <-cfgSub.Channel():
			s.applyConfig(msg.Payload, scanTick)
		case msg := <-sendSub.Channel():
			payload, ok := msg.Payload.(string)
			if !ok {
				logx.Warn("ble: send payload type %T", msg.Payload)
				continue
			}
			if err := s.Send(conn, []byte(payload)); err != nil {
				logx.Error("ble: send failed: %v", err)
			}
		}
	}
}

// Start powers the radio, pings it once and launches the supervision loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.Enable(conn)
	pctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.dev.Ping(pctx); err != nil {
		logx.Error("ble: module not responding: %v", err)
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
