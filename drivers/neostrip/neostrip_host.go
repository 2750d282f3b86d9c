//go:build !rp2040

package neostrip

// FrameRecorder is the host-side Writer: it keeps the last flushed frame and
// a flush counter so tests and the simulator can inspect render output.
type FrameRecorder struct {
	Last    []byte
	Flushes int
}

func (r *FrameRecorder) WriteFrame(grbw []byte) error {
	if len(r.Last) != len(grbw) {
		r.Last = make([]byte, len(grbw))
	}
	copy(r.Last, grbw)
	r.Flushes++
	return nil
}

// NewRecorded returns a strip backed by a FrameRecorder, plus the recorder.
func NewRecorded() (*Strip, *FrameRecorder) {
	r := &FrameRecorder{}
	return New(r), r
}
