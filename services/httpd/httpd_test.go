package httpd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feedercode-go/bus"
	"feedercode-go/types"
)

func newTestService(t *testing.T) (*Service, *bus.Bus) {
	t.Helper()
	b := bus.NewBus(16)
	s := NewService(Config{Addr: ":0"})
	s.conn = b.NewConnection("httpd")
	return s, b
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec, string(body)
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := newTestService(t)
	rec, body := get(t, s.Handler(), "/")
	if rec.Code != http.StatusOK || body != "OK" {
		t.Fatalf("status: %d %q", rec.Code, body)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	s, _ := newTestService(t)
	rec, _ := get(t, s.Handler(), "/no-such-thing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestInfoReflectsNetIdentity(t *testing.T) {
	s, _ := newTestService(t)
	s.mu.Lock()
	s.netInfo = types.NetInfo{IP: "10.0.0.9", MAC: "aa:bb", Fingerprint: "feeder-cafe"}
	s.mu.Unlock()

	rec, body := get(t, s.Handler(), "/info")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	for _, want := range []string{`"ip":"10.0.0.9"`, `"mac":"aa:bb"`, `"fingerprint":"feeder-cafe"`, `"heap_alloc":`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body %s missing %s", body, want)
		}
	}
}

func TestBluetoothStatus(t *testing.T) {
	s, _ := newTestService(t)
	_, body := get(t, s.Handler(), "/bluetooth_status")
	if body != `{"bluetooth_connected":false}` {
		t.Fatalf("body = %s", body)
	}

	s.mu.Lock()
	s.bleUp = true
	s.mu.Unlock()
	_, body = get(t, s.Handler(), "/bluetooth_status")
	if body != `{"bluetooth_connected":true}` {
		t.Fatalf("body = %s", body)
	}
}

func TestBlinkUpdatesConfig(t *testing.T) {
	s, b := newTestService(t)
	watcher := b.NewConnection("test")
	cfgSub := watcher.Subscribe(topicBlinkConfig)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/blink", strings.NewReader(`{"interval": 250}`))
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}

	select {
	case msg := <-cfgSub.Channel():
		cfg := msg.Payload.(types.BlinkConfig)
		if cfg.IntervalMs != 250 {
			t.Fatalf("interval = %d", cfg.IntervalMs)
		}
		if !msg.Retained {
			t.Fatal("blink config must be retained")
		}
	case <-time.After(time.Second):
		t.Fatal("no config published")
	}
}

func TestBlinkRejectsBadInput(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	cases := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"get", httptest.NewRequest(http.MethodGet, "/blink", nil), http.StatusMethodNotAllowed},
		{"empty body", httptest.NewRequest(http.MethodPost, "/blink", strings.NewReader("")), http.StatusBadRequest},
		{"missing interval", httptest.NewRequest(http.MethodPost, "/blink", strings.NewReader(`{"x":1}`)), http.StatusBadRequest},
		{"negative", httptest.NewRequest(http.MethodPost, "/blink", strings.NewReader(`{"interval":-5}`)), http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, tc.req)
		if rec.Code != tc.code {
			t.Errorf("%s: code = %d, want %d", tc.name, rec.Code, tc.code)
		}
	}
}

func TestRequestsPulseServerComponent(t *testing.T) {
	s, b := newTestService(t)
	watcher := b.NewConnection("test")
	actSub := watcher.Subscribe(topicActivity)

	get(t, s.Handler(), "/")
	select {
	case msg := <-actSub.Channel():
		a := msg.Payload.(types.PanelActivity)
		if a.Component != "server" {
			t.Fatalf("component = %s", a.Component)
		}
	case <-time.After(time.Second):
		t.Fatal("no activity pulse")
	}
}
