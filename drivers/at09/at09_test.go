package at09

import (
	"context"
	"strings"
	"testing"
	"time"
)

// fakePort scripts the module side: every Write may queue reply chunks,
// RecvSomeContext pops them one at a time.
type fakePort struct {
	wrote   []string
	chunks  []string
	replies map[string][]string
}

func newFakePort() *fakePort {
	return &fakePort{replies: map[string][]string{}}
}

func (f *fakePort) Write(b []byte) (int, error) {
	cmd := string(b)
	f.wrote = append(f.wrote, cmd)
	if rs, ok := f.replies[cmd]; ok {
		f.chunks = append(f.chunks, rs...)
	}
	return len(b), nil
}

func (f *fakePort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(f.chunks) == 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	n := copy(buf, f.chunks[0])
	if n < len(f.chunks[0]) {
		f.chunks[0] = f.chunks[0][n:]
	} else {
		f.chunks = f.chunks[1:]
	}
	return n, nil
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}

func TestPing(t *testing.T) {
	f := newFakePort()
	f.replies["AT"] = []string{"OK"}
	d := New(f)
	if err := d.Ping(testCtx(t)); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPingNoReply(t *testing.T) {
	f := newFakePort()
	d := New(f)
	if err := d.Ping(testCtx(t)); err == nil {
		t.Fatal("expected error on silent module")
	}
}

func TestSetRole(t *testing.T) {
	f := newFakePort()
	f.replies["AT+ROLE1"] = []string{"OK+Set:1"}
	d := New(f)
	if err := d.SetRole(testCtx(t), RoleCentral); err != nil {
		t.Fatalf("role: %v", err)
	}
	if f.wrote[len(f.wrote)-1] != "AT+ROLE1" {
		t.Fatalf("wrote %v", f.wrote)
	}
}

func TestAddress(t *testing.T) {
	f := newFakePort()
	f.replies["AT+ADDR?"] = []string{"OK+Get:20C38FF6B49A"}
	d := New(f)
	got, err := d.Address(testCtx(t))
	if err != nil {
		t.Fatalf("addr: %v", err)
	}
	if got != "20C38FF6B49A" {
		t.Fatalf("addr = %q", got)
	}
}

func TestDiscover(t *testing.T) {
	f := newFakePort()
	f.replies["AT+DISC?"] = []string{
		"OK+DISCS",
		"OK+DIS0:001122334455", "OK+RSSI:-61", "OK+NAME:collar",
		"OK+DIS0:AABBCCDDEEFF",
		"OK+DISCE",
	}
	d := New(f)
	found, err := d.Discover(testCtx(t))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found %d devices: %v", len(found), found)
	}
	if found[0].MAC != "001122334455" || found[0].RSSI != -61 || found[0].Name != "collar" {
		t.Fatalf("first device %+v", found[0])
	}
	if found[1].MAC != "AABBCCDDEEFF" {
		t.Fatalf("second device %+v", found[1])
	}
}

func TestDiscoverRunTogetherChunks(t *testing.T) {
	// Clones often blast replies back to back in one burst.
	f := newFakePort()
	f.replies["AT+DISC?"] = []string{"OK+DISCSOK+DIS0:001122334455OK+DISCE"}
	d := New(f)
	found, err := d.Discover(testCtx(t))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(found) != 1 || found[0].MAC != "001122334455" {
		t.Fatalf("found %v", found)
	}
}

func TestDiscoverOverflow(t *testing.T) {
	f := newFakePort()
	var chunks []string
	chunks = append(chunks, "OK+DISCS")
	for i := 0; i < MaxDevices+3; i++ {
		chunks = append(chunks, "OK+DIS0:00112233445"+string(rune('0'+i%10)))
	}
	chunks = append(chunks, "OK+DISCE")
	f.replies["AT+DISC?"] = chunks
	d := New(f)
	found, err := d.Discover(testCtx(t))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(found) != MaxDevices {
		t.Fatalf("found %d, want %d", len(found), MaxDevices)
	}
	if d.Overflow() != 3 {
		t.Fatalf("overflow = %d, want 3", d.Overflow())
	}
}

func TestDiscoverTimeoutKeepsPartial(t *testing.T) {
	f := newFakePort()
	f.replies["AT+DISC?"] = []string{"OK+DISCS", "OK+DIS0:001122334455"}
	d := New(f)
	found, err := d.Discover(testCtx(t))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("partial results lost: %v", found)
	}
}

func TestConnectionEvents(t *testing.T) {
	f := newFakePort()
	d := New(f)
	if d.Connected() {
		t.Fatal("connected before any event")
	}
	f.chunks = append(f.chunks, "OK+CONNhello there")
	got, err := d.Receive(context.Background())
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !d.Connected() {
		t.Fatal("OK+CONN not tracked")
	}
	if !strings.Contains(got, "hello there") {
		t.Fatalf("payload lost: %q", got)
	}

	f.chunks = append(f.chunks, "OK+LOST")
	if _, err := d.Receive(context.Background()); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if d.Connected() {
		t.Fatal("OK+LOST not tracked")
	}
}

func TestSendPassesThrough(t *testing.T) {
	f := newFakePort()
	d := New(f)
	n, err := d.Send([]byte("feed?"))
	if err != nil || n != 5 {
		t.Fatalf("send: n=%d err=%v", n, err)
	}
	if f.wrote[0] != "feed?" {
		t.Fatalf("wrote %v", f.wrote)
	}
}
