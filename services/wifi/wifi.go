// Package wifi supervises the station link: it keeps retrying the access
// point, publishes link state and network identity on the bus, and drives
// the wifi panel component.
package wifi

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"feedercode-go/bus"
	"feedercode-go/types"
	"feedercode-go/x/logx"
	"feedercode-go/x/timex"
)

var (
	topicStatus    = bus.T("wifi/status")
	topicInfo      = bus.T("wifi/info")
	topicComponent = bus.T("panel/component")
	topicActivity  = bus.T("panel/activity")
)

const (
	componentName = "wifi"

	// RetryDelay between failed association attempts.
	RetryDelay = 500 * time.Millisecond

	// supervisionInterval between link liveness checks once associated.
	supervisionInterval = 5 * time.Second
)

// Link abstracts the radio: espat on rp2040, a loopback on the host.
type Link interface {
	Connect(ctx context.Context) error
	Disconnect()
	IP() (string, error)
	MAC() (string, error)
	Up() bool
}

type Service struct {
	link Link
}

func NewService(link Link) *Service { return &Service{link: link} }

// Fingerprint derives the stable device identifier published alongside the
// network identity. Same MAC, same fingerprint, across reboots.
func Fingerprint(mac string) string {
	h := fnv.New32a()
	h.Write([]byte(mac))
	return "feeder-" + strconv.FormatUint(uint64(h.Sum32()), 16)
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
	conn.Publish(conn.NewMessage(topicComponent, types.PanelComponentSet{
		Component: componentName,
		Enabled:   &e,
	}, false))
}

// associate loops until the link comes up or ctx is cancelled.
func (s *Service) associate(ctx context.Context, conn *bus.Connection) bool {
	for {
		conn.Publish(conn.NewMessage(topicActivity, types.PanelActivity{Component: componentName}, false))
		err := s.link.Connect(ctx)
		if err == nil {
			return true
		}
		logx.Warn("wifi: connect failed: %v", err)
		s.publishStatus(conn, types.LinkDown, err.Error())
		select {
		case <-ctx.Done():
			return false
		case <-time.After(RetryDelay):
		}
	}
}

// announce publishes the retained network identity once the link is up.
func (s *Service) announce(conn *bus.Connection) {
	ip, err := s.link.IP()
	if err != nil {
		logx.Error("wifi: no ip after connect: %v", err)
	}
	mac, err := s.link.MAC()
	if err != nil {
		logx.Error("wifi: no mac: %v", err)
	}
	conn.Publish(conn.NewMessage(topicInfo, types.NetInfo{
		IP:          ip,
		MAC:         mac,
		Fingerprint: Fingerprint(mac),
	}, true))
	logx.Info("wifi: up, ip=%s mac=%s", ip, mac)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	for {
		if !s.associate(ctx, conn) {
			return
		}
		s.publishStatus(conn, types.LinkUp, "")
		s.publishComponent(conn, true)
		s.announce(conn)

		// Supervise until the link drops, then start over.
		for s.link.Up() {
			select {
			case <-ctx.Done():
				s.link.Disconnect()
				logx.Info("wifi: service stopping")
				return
			case <-time.After(supervisionInterval):
			}
		}
		logx.Warn("wifi: link lost, reassociating")
		s.publishStatus(conn, types.LinkDown, "link lost")
		s.publishComponent(conn, false)
	}
}

func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
