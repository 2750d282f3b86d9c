// Package heartbeat toggles the onboard LED and logs a periodic liveness
// line. The blink interval is runtime-adjustable over the bus (the /blink
// HTTP endpoint and the device config both publish config/heartbeat).
package heartbeat

import (
	"context"
	"time"

	"feedercode-go/bus"
	"feedercode-go/types"
	"feedercode-go/x/logx"
)

var topicConfig = bus.T("config/heartbeat")

const DefaultInterval = time.Second

// Pin is the LED line; machine.Pin satisfies it.
type Pin interface{ Set(bool) }

type Service struct {
	led      Pin
	interval time.Duration
	state    bool
}

func NewService(led Pin, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{led: led, interval: interval}
}

// configInterval extracts an interval from either payload shape: the typed
// BlinkConfig from httpd, or the raw map the config service publishes.
func configInterval(payload any) (time.Duration, bool) {
	switch v := payload.(type) {
	case types.BlinkConfig:
		if v.IntervalMs > 0 {
			return time.Duration(v.IntervalMs) * time.Millisecond, true
		}
	case map[string]any:
		if ms, ok := v["interval_ms"].(float64); ok && ms > 0 {
			return time.Duration(ms) * time.Millisecond, true
		}
	}
	return 0, false
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.led.Set(false)
			logx.Info("heartbeat: service stopping")
			return
		case <-tick.C:
			s.state = !s.state
			s.led.Set(s.state)
		case msg := <-cfgSub.Channel():
			iv, ok := configInterval(msg.Payload)
			if !ok {
				logx.Warn("heartbeat: config payload %v ignored", msg.Payload)
				continue
			}
			s.interval = iv
			tick.Reset(iv)
			logx.Info("heartbeat: interval set to %v", iv)
		}
	}
}

func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
