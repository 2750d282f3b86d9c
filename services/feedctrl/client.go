// Package feedctrl talks to the central control server: the fed gate, the
// beacon location and visit reports, the feeder IP registration and the
// ntfy boot announcement.
package feedctrl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andreyvit/tinyjson"

	"feedercode-go/errcode"
	"feedercode-go/types"
	"feedercode-go/x/logx"
)

// Control server API paths (version-pinned).
const (
	pathFed      = "/api/v1/feeder/fed"
	pathLocation = "/api/v1/feeder/beacon/location"
	pathVisit    = "/api/v1/feeder/visit"
	pathIP       = "/api/v1/feeder/ip"
)

// Doer abstracts the HTTP transport; tests feed canned responses.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a thin, allocation-shy wrapper over the control server API.
// Bodies are built with Sprintf and parsed with tinyjson; the payloads are
// small and flat.
type Client struct {
	Base string // e.g. "http://10.0.0.2:8080"
	HTTP Doer

	// Feeder identity, filled in once wifi publishes it.
	MAC string
	IP  string
}

func NewClient(base string, doer Doer) *Client {
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: doer}
}

func (c *Client) request(ctx context.Context, method, path, body string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, strings.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, "", errcode.LinkDown.E(method + " " + path + ": " + err.Error())
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(raw), nil
}

// CheckFed asks whether the beacon was already fed inside the feeding
// window. A non-200 answer means "do not feed" and is not an error.
func (c *Client) CheckFed(ctx context.Context, beaconMAC string) (types.FeedDecision, error) {
	body := fmt.Sprintf(`{"beacon_mac":%q}`, beaconMAC)
	code, raw, err := c.request(ctx, http.MethodGet, pathFed, body)
	if err != nil {
		return types.FeedDecision{}, err
	}
	if code != http.StatusOK {
		logx.Warn("feedctrl: fed check for %s answered %d", beaconMAC, code)
		return types.FeedDecision{AlreadyFed: true, Reason: fmt.Sprintf("status %d", code)}, nil
	}

	dec := types.FeedDecision{}
	r := tinyjson.Raw([]byte(raw))
	if m, ok := r.Value().(map[string]any); ok {
		if fed, ok := m["fed"].(bool); ok {
			dec.AlreadyFed = fed
		}
		if reason, ok := m["reason"].(string); ok {
			dec.Reason = reason
		}
	}
	return dec, nil
}

// ReportFed tells the server we just dispensed food for the beacon.
func (c *Client) ReportFed(ctx context.Context, beaconMAC string, amount int) error {
	body := fmt.Sprintf(`{"beacon_mac":%q,"feeder_mac":%q,"amount":%d}`, beaconMAC, c.MAC, amount)
	return c.post(ctx, pathFed, body)
}

// ReportLocation tells the server the beacon is currently near this feeder.
func (c *Client) ReportLocation(ctx context.Context, beaconMAC string) error {
	body := fmt.Sprintf(`{"beacon_mac":%q,"feeder_mac":%q}`, beaconMAC, c.MAC)
	return c.post(ctx, pathLocation, body)
}

// ReportVisit is the fallback sighting report.
func (c *Client) ReportVisit(ctx context.Context, beaconMAC string) error {
	body := fmt.Sprintf(`{"beacon_mac":%q,"feeder_mac":%q}`, beaconMAC, c.MAC)
	return c.post(ctx, pathVisit, body)
}

// UpdateIP registers our current address with the server.
func (c *Client) UpdateIP(ctx context.Context) error {
	body := fmt.Sprintf(`{"mac":%q,"ip":%q}`, c.MAC, c.IP)
	code, _, err := c.request(ctx, http.MethodPut, pathIP, body)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return errcode.HTTPStatus.E(fmt.Sprintf("put ip: %d", code))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, body string) error {
	code, _, err := c.request(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return errcode.HTTPStatus.E(fmt.Sprintf("%s: %d", path, code))
	}
	return nil
}

// AnnounceNtfy posts the boot notification with the device address. Purely
// informational; failures are the caller's to log.
func AnnounceNtfy(ctx context.Context, doer Doer, server, topic, ip, name string) error {
	msg := "Feeder IP: " + ip + "<br>Name: " + name
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(server, "/")+"/"+topic, strings.NewReader(msg))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "Feeder Online")
	req.Header.Set("Priority", "3")
	req.Header.Set("Tags", "wifi,feeder")
	resp, err := doer.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errcode.HTTPStatus.E(fmt.Sprintf("ntfy: %d", resp.StatusCode))
	}
	return nil
}
