// Package types holds the payloads the services exchange over the bus and
// the JSON bodies spoken to the control server.
package types

// ---- Link state (retained on wifi/status, ble/status) ----

type Link string

const (
	LinkUp   Link = "up"
	LinkDown Link = "down"
)

type LinkStatus struct {
	Link  Link   `json:"link"`
	TS    int64  `json:"ts_ms"`
	Error string `json:"error,omitempty"`
}

// ---- Network identity (retained on wifi/info) ----

type NetInfo struct {
	IP          string `json:"ip"`
	MAC         string `json:"mac"`
	Fingerprint string `json:"fingerprint"`
}

// ---- Panel control payloads (panel/...) ----

type PanelActivity struct {
	Component string `json:"component"`
}

type PanelTransmission struct {
	Component string `json:"component"`
	Size      int    `json:"size"`
}

type PanelComponentSet struct {
	Component string `json:"component"`
	Enabled   *bool  `json:"enabled,omitempty"`
	Position  *int   `json:"position,omitempty"`
	Step      *int   `json:"step,omitempty"`
	Colour    string `json:"colour,omitempty"`
}

// ---- Motor control (motor/left/..., motor/right/...) ----

type MotorTurn struct {
	Speed      int `json:"speed"`       // -100..100, 0 = default
	DurationMs int `json:"duration_ms"` // 0 = default turn time
	Degrees    int `json:"degrees"`     // used instead of duration when > 0
}

type MotorState struct {
	Running bool  `json:"running"`
	TS      int64 `json:"ts_ms"`
}

// ---- BLE (ble/sighting, ble/status) ----

// BeaconSighting is published for every advertisement picked up during a
// discovery sweep.
type BeaconSighting struct {
	MAC  string `json:"mac"`
	RSSI int    `json:"rssi,omitempty"`
	TS   int64  `json:"ts_ms"`
}

// ---- Feeder orchestration (feeder/...) ----

// FeedDecision is the control server's answer to "has this pet been fed
// within the window".
type FeedDecision struct {
	AlreadyFed bool   `json:"fed"`
	Reason     string `json:"reason,omitempty"`
}

type FeedReport struct {
	Beacon string `json:"beacon"`
	Turns  int    `json:"turns"`
	TS     int64  `json:"ts_ms"`
}

type VisitReport struct {
	Beacon string `json:"beacon"`
	TS     int64  `json:"ts_ms"`
}

type LocationReport struct {
	Beacon string `json:"beacon"`
	Feeder string `json:"feeder"`
	TS     int64  `json:"ts_ms"`
}

// ---- Heartbeat (config/heartbeat, heartbeat/blink) ----

type BlinkConfig struct {
	IntervalMs int `json:"interval_ms"`
}

// ---- Device info (httpd /info) ----

type DeviceInfo struct {
	Fingerprint string `json:"fingerprint"`
	IP          string `json:"ip"`
	MAC         string `json:"mac"`
	UptimeMs    int64  `json:"uptime_ms"`
}
