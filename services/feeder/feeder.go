// Package feeder is the orchestrator: it turns beacon sightings into fed
// pets. Every sighting is reported to the control server; if the server
// says the pet is still owed a meal, the kibble tray and the trap door run
// their dispense sequence and the feed is reported back.
package feeder

import (
	"context"
	"time"

	"feedercode-go/bus"
	"feedercode-go/services/feedctrl"
	"feedercode-go/types"
	"feedercode-go/x/logx"
	"feedercode-go/x/timex"
)

var (
	topicSighting  = bus.T("ble/sighting")
	topicLastFeed  = bus.T("feeder/last")
	topicLeftTurn  = bus.T("motor/left/turn")
	topicRightTurn = bus.T("motor/right/turn")
	topicActivity  = bus.T("panel/activity")
	topicConfig    = bus.T("config/feeder")
)

const (
	// SightingCooldown suppresses repeat processing of the same beacon;
	// collars advertise continuously while the pet eats.
	SightingCooldown = time.Minute

	// DefaultPortions of tray rotation per feed.
	DefaultPortions = 1

	trayTurnDegrees = 90
	trapOpenMs      = 1500

	requestTimeout = 10 * time.Second
	motorTimeout   = 30 * time.Second
)

type Config struct {
	Portions int
	Cooldown time.Duration
}

// Service consumes sightings and runs the gate-check/dispense/report cycle.
type Service struct {
	client   *feedctrl.Client
	portions int
	cooldown time.Duration

	// lastSeen tracks per-beacon cooldown expiry, ms timestamps.
	lastSeen map[string]int64
	now      timex.Millis
}

func NewService(client *feedctrl.Client, cfg Config) *Service {
	portions := cfg.Portions
	if portions <= 0 {
		portions = DefaultPortions
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = SightingCooldown
	}
	return &Service{
		client:   client,
		portions: portions,
		cooldown: cooldown,
		lastSeen: make(map[string]int64),
		now:      timex.NowMs,
	}
}

// onCooldown reports and refreshes the per-beacon suppression window.
func (s *Service) onCooldown(mac string) bool {
	now := s.now()
	if last, ok := s.lastSeen[mac]; ok && now-last < s.cooldown.Milliseconds() {
		return true
	}
	s.lastSeen[mac] = now
	return false
}

func (s *Service) serverActivity(conn *bus.Connection) {
	conn.Publish(conn.NewMessage(topicActivity, types.PanelActivity{Component: "server"}, false))
}

// dispense runs the mechanical sequence: tray portions, then the trap door
// opens and closes. Motor commands go over the bus so the motor service
// stays the single owner of the hardware.
func (s *Service) dispense(ctx context.Context, conn *bus.Connection) error {
	for i := 0; i < s.portions; i++ {
		mctx, cancel := context.WithTimeout(ctx, motorTimeout)
		_, err := conn.RequestWait(mctx, conn.NewMessage(topicLeftTurn, types.MotorTurn{
			Degrees: trayTurnDegrees,
		}, false))
		cancel()
		if err != nil {
			return err
		}
	}

	mctx, cancel := context.WithTimeout(ctx, motorTimeout)
	defer cancel()
	_, err := conn.RequestWait(mctx, conn.NewMessage(topicRightTurn, types.MotorTurn{
		Speed:      100,
		DurationMs: trapOpenMs,
	}, false))
	return err
}

// handleSighting is the full cycle for one beacon advertisement.
func (s *Service) handleSighting(ctx context.Context, conn *bus.Connection, sighting types.BeaconSighting) {
	if s.onCooldown(sighting.MAC) {
		return
	}
	logx.Info("feeder: beacon %s in range (rssi %d)", sighting.MAC, sighting.RSSI)

	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	s.serverActivity(conn)
	if err := s.client.ReportLocation(rctx, sighting.MAC); err != nil {
		logx.Warn("feeder: location report failed: %v", err)
	}
	if err := s.client.ReportVisit(rctx, sighting.MAC); err != nil {
		logx.Warn("feeder: visit report failed: %v", err)
	}

	dec, err := s.client.CheckFed(rctx, sighting.MAC)
	if err != nil {
		logx.Error("feeder: fed check failed, not feeding: %v", err)
		return
	}
	if dec.AlreadyFed {
		logx.Info("feeder: %s already fed (%s)", sighting.MAC, dec.Reason)
		return
	}

	if err := s.dispense(ctx, conn); err != nil {
		logx.Error("feeder: dispense failed: %v", err)
		return
	}

	// Dispensing can take longer than the request budget, so the feed
	// report gets a fresh timeout; reusing rctx here would hand the server
	// an already-expired context after a slow motor run.
	fctx, fcancel := context.WithTimeout(ctx, requestTimeout)
	defer fcancel()

	s.serverActivity(conn)
	if err := s.client.ReportFed(fctx, sighting.MAC, s.portions); err != nil {
		logx.Error("feeder: feed report failed: %v", err)
	}
	conn.Publish(conn.NewMessage(topicLastFeed, types.FeedReport{
		Beacon: sighting.MAC,
		Turns:  s.portions,
		TS:     s.now(),
	}, true))
	logx.Info("feeder: fed %s (%d portions)", sighting.MAC, s.portions)
}

// applyConfig folds the device config section (config/feeder) into the
// running service.
func (s *Service) applyConfig(payload any) {
	m, ok := payload.(map[string]any)
	if !ok {
		logx.Warn("feeder: config payload type %T", payload)
		return
	}
	if portions, ok := m["portions"].(float64); ok && portions > 0 {
		s.portions = int(portions)
		logx.Info("feeder: portions set to %d", s.portions)
	}
	if secs, ok := m["cooldown_s"].(float64); ok && secs > 0 {
		s.cooldown = time.Duration(secs * float64(time.Second))
		logx.Info("feeder: cooldown set to %v", s.cooldown)
	}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	sightSub := conn.Subscribe(topicSighting)
	defer conn.Unsubscribe(sightSub)
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)

	for {
		select {
		case <-ctx.Done():
			logx.Info("feeder: service stopping")
			return
		case msg := <-cfgSub.Channel():
			s.applyConfig(msg.Payload)
		case msg := <-sightSub.Channel():
			sighting, ok := msg.Payload.(types.BeaconSighting)
			if !ok {
				logx.Warn("feeder: sighting payload type %T", msg.Payload)
				continue
			}
			s.handleSighting(ctx, conn, sighting)
		}
	}
}

func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
