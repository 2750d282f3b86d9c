package feedctrl

import (
	"context"
	"time"

	"feedercode-go/bus"
	"feedercode-go/types"
	"feedercode-go/x/logx"
)

var topicNetInfo = bus.T("wifi/info")

type Config struct {
	ControlServer string
	NtfyServer    string
	NtfyTopic     string
	BoardName     string
}

// Service keeps the client's identity in sync with the wifi service and
// performs the once-per-boot registrations (IP PUT, ntfy announcement).
type Service struct {
	Client *Client
	cfg    Config

	announced bool
}

func NewService(client *Client, cfg Config) *Service {
	return &Service{Client: client, cfg: cfg}
}

// onNetInfo runs every time wifi (re)publishes identity.
func (s *Service) onNetInfo(ctx context.Context, info types.NetInfo) {
	s.Client.MAC = info.MAC
	s.Client.IP = info.IP

	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.Client.UpdateIP(rctx); err != nil {
		logx.Warn("feedctrl: ip registration failed: %v", err)
	}

	if s.announced || s.cfg.NtfyServer == "" {
		return
	}
	if err := AnnounceNtfy(rctx, s.Client.HTTP, s.cfg.NtfyServer, s.cfg.NtfyTopic, info.IP, s.cfg.BoardName); err != nil {
		logx.Warn("feedctrl: ntfy announcement failed: %v", err)
		return
	}
	s.announced = true
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	infoSub := conn.Subscribe(topicNetInfo)
	defer conn.Unsubscribe(infoSub)

	for {
		select {
		case <-ctx.Done():
			logx.Info("feedctrl: service stopping")
			return
		case msg := <-infoSub.Channel():
			info, ok := msg.Payload.(types.NetInfo)
			if !ok {
				logx.Warn("feedctrl: net info payload type %T", msg.Payload)
				continue
			}
			s.onNetInfo(ctx, info)
		}
	}
}

func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
