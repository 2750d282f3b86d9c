package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgFeeder = `{
  "heartbeat": {
      "interval_ms": 1000
  },
  "feeder": {
      "portions": 1,
      "cooldown_s": 60
  },
  "ble": {
      "scan_interval_s": 30
  }
}`

var embeddedConfigs = map[string][]byte{
	"feeder": []byte(cfgFeeder),
}
