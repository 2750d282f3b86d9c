package panel

import (
	"context"
	"time"

	"feedercode-go/bus"
	"feedercode-go/leds"
	"feedercode-go/types"
	"feedercode-go/x/logx"
)

// Bus surface. Producers publish fire-and-forget; the service applies the
// calls between render passes.
var (
	topicActivity     = bus.T("panel/activity")
	topicTransmission = bus.T("panel/transmission")
	topicComponent    = bus.T("panel/component")
)

// RenderInterval is the tick/render cadence of the service loop.
const RenderInterval = 100 * time.Millisecond

// Service drives a Panel from the bus: a fixed-cadence tick/render loop
// plus handlers for the panel control topics.
type Service struct {
	Panel *Panel
}

func NewService(p *Panel) *Service { return &Service{Panel: p} }

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	actSub := conn.Subscribe(topicActivity)
	txSub := conn.Subscribe(topicTransmission)
	compSub := conn.Subscribe(topicComponent)
	defer conn.Unsubscribe(actSub)
	defer conn.Unsubscribe(txSub)
	defer conn.Unsubscribe(compSub)

	tick := time.NewTicker(RenderInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("panel: service stopping")
			return
		case <-tick.C:
			s.Panel.Tick()
			s.Panel.Render()
		case msg := <-actSub.Channel():
			s.handleActivity(msg)
		case msg := <-txSub.Channel():
			s.handleTransmission(msg)
		case msg := <-compSub.Channel():
			s.handleComponent(msg)
		}
	}
}

func (s *Service) handleActivity(msg *bus.Message) {
	a, ok := msg.Payload.(types.PanelActivity)
	if !ok {
		logx.Warn("panel: activity payload type %T", msg.Payload)
		return
	}
	c, ok := ComponentByName(a.Component)
	if !ok {
		logx.Warn("panel: activity for unknown component %q", a.Component)
		return
	}
	s.Panel.Activity(c, true)
}

func (s *Service) handleTransmission(msg *bus.Message) {
	tx, ok := msg.Payload.(types.PanelTransmission)
	if !ok {
		logx.Warn("panel: transmission payload type %T", msg.Payload)
		return
	}
	c, ok := ComponentByName(tx.Component)
	if !ok {
		logx.Warn("panel: transmission for unknown component %q", tx.Component)
		return
	}
	s.Panel.DataTransmission(c, tx.Size)
}

func (s *Service) handleComponent(msg *bus.Message) {
	set, ok := msg.Payload.(types.PanelComponentSet)
	if !ok {
		logx.Warn("panel: component payload type %T", msg.Payload)
		return
	}
	c, ok := ComponentByName(set.Component)
	if !ok {
		logx.Warn("panel: set for unknown component %q", set.Component)
		return
	}
	if set.Enabled != nil {
		if *set.Enabled {
			s.Panel.Enable(c)
		} else {
			s.Panel.Disable(c)
		}
	}
	if set.Position != nil {
		s.Panel.SetPosition(c, uint16(*set.Position))
	}
	if set.Step != nil {
		s.Panel.SetStep(c, int16(*set.Step))
	}
	if set.Colour != "" {
		if colour, ok := leds.ColourByName(set.Colour); ok {
			s.Panel.SetColour(c, colour)
		} else {
			logx.Warn("panel: unknown colour %q", set.Colour)
		}
	}
}

// Start runs the startup sequence and launches the service loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.Panel.Initialise(true)
	go s.serviceLoop(ctx, conn)
	return nil
}
