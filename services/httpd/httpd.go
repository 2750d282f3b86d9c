// Package httpd is the on-device HTTP surface: a liveness page, device
// info, the heartbeat blink configurator and the bluetooth link state.
// Every request pulses the server panel component, mirroring what the rest
// of the firmware does for its transports.
package httpd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"sync"

	"github.com/andreyvit/tinyjson"

	"feedercode-go/bus"
	"feedercode-go/types"
	"feedercode-go/x/logx"
	"feedercode-go/x/timex"
)

var (
	topicNetInfo      = bus.T("wifi/info")
	topicBLEStatus    = bus.T("ble/status")
	topicBlinkConfig  = bus.T("config/heartbeat")
	topicActivity     = bus.T("panel/activity")
	topicTransmission = bus.T("panel/transmission")
	topicComponent    = bus.T("panel/component")
)

const (
	componentName = "server"
	DefaultAddr   = ":80"
)

type Config struct {
	Addr string
}

// Service carries the last known device state (fed by retained bus topics)
// and serves it over HTTP.
type Service struct {
	addr string

	mu      sync.Mutex
	netInfo types.NetInfo
	bleUp   bool
	startMs int64

	conn *bus.Connection
}

func NewService(cfg Config) *Service {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	return &Service{addr: addr, startMs: timex.NowMs()}
}

func (s *Service) activity() {
	s.conn.Publish(s.conn.NewMessage(topicActivity, types.PanelActivity{Component: componentName}, false))
}

func (s *Service) transmission(size int) {
	s.conn.Publish(s.conn.NewMessage(topicTransmission, types.PanelTransmission{
		Component: componentName,
		Size:      size,
	}, false))
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.activity()
	s.transmission(3)
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "OK")
}

func (s *Service) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.activity()
	s.mu.Lock()
	info := types.DeviceInfo{
		Fingerprint: s.netInfo.Fingerprint,
		IP:          s.netInfo.IP,
		MAC:         s.netInfo.MAC,
		UptimeMs:    timex.NowMs() - s.startMs,
	}
	s.mu.Unlock()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s.transmission(5)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"fingerprint":%q,"ip":%q,"mac":%q,"uptime_ms":%d,"heap_alloc":%d,"heap_sys":%d}`,
		info.Fingerprint, info.IP, info.MAC, info.UptimeMs, ms.HeapAlloc, ms.HeapSys)
}

func (s *Service) handleBlink(w http.ResponseWriter, r *http.Request) {
	s.activity()
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		http.Error(w, "Missing body", http.StatusBadRequest)
		return
	}

	rawJSON := tinyjson.Raw(raw)
	m, _ := rawJSON.Value().(map[string]any)
	interval, ok := m["interval"].(float64)
	if !ok || interval <= 0 {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	s.conn.Publish(s.conn.NewMessage(topicBlinkConfig, types.BlinkConfig{
		IntervalMs: int(interval),
	}, true))
	logx.Info("httpd: blink interval set to %d ms", int(interval))
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "Blink interval updated")
}

func (s *Service) handleBluetoothStatus(w http.ResponseWriter, r *http.Request) {
	s.activity()
	s.mu.Lock()
	up := s.bleUp
	s.mu.Unlock()

	s.transmission(3)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"bluetooth_connected":%t}`, up)
}

// Handler builds the route table; split out so tests can drive it with
// httptest without a listener.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatus)
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/blink", s.handleBlink)
	mux.HandleFunc("/bluetooth_status", s.handleBluetoothStatus)
	return mux
}

// stateLoop keeps the served snapshot in sync with the bus.
func (s *Service) stateLoop(ctx context.Context, conn *bus.Connection) {
	infoSub := conn.Subscribe(topicNetInfo)
	bleSub := conn.Subscribe(topicBLEStatus)
	defer conn.Unsubscribe(infoSub)
	defer conn.Unsubscribe(bleSub)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-infoSub.Channel():
			if info, ok := msg.Payload.(types.NetInfo); ok {
				s.mu.Lock()
				s.netInfo = info
				s.mu.Unlock()
			}
		case msg := <-bleSub.Channel():
			if st, ok := msg.Payload.(types.LinkStatus); ok {
				s.mu.Lock()
				s.bleUp = st.Link == types.LinkUp
				s.mu.Unlock()
			}
		}
	}
}

// Serve accepts on the given listener until ctx ends. Split from Start so
// the simulator can hand in its own listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	err := srv.Serve(ln)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Start wires the bus, enables the server panel component and launches the
// listener and the state loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.conn = conn
	e := true
	conn.Publish(conn.NewMessage(topicComponent, types.PanelComponentSet{
		Component: componentName,
		Enabled:   &e,
	}, false))

	go s.stateLoop(ctx, conn)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	logx.Info("httpd: listening on %s", s.addr)
	go func() {
		if err := s.Serve(ctx, ln); err != nil {
			logx.Error("httpd: server stopped: %v", err)
		}
	}()
	return nil
}
