package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Millis is the clock signature used by time-driven code so tests can
// substitute a fake. Production code passes NowMs.
type Millis func() int64
