package leds

// TickAnimation is the per-node interval timer. Tick may raise the
// edge-triggered flag; Ticked reads and clears it, so position advancement
// happens at most once per qualifying interval no matter how often the node
// is polled in between.
type TickAnimation struct {
	IntervalMs   uint32
	LastUpdateMs int64
	Frame        uint32

	ticked bool
}

// Tick advances the timer if IntervalMs has elapsed since the last update.
// Calling it repeatedly before the flag is consumed just re-raises the flag;
// it never double-counts a frame within one interval.
func (t *TickAnimation) Tick(nowMs int64) {
	if nowMs-t.LastUpdateMs >= int64(t.IntervalMs) {
		t.Frame++
		t.LastUpdateMs = nowMs
		t.ticked = true
	}
}

// Ticked reports whether the timer fired since the last check, clearing the
// flag. Edge-triggered, not level.
func (t *TickAnimation) Ticked() bool {
	if t.ticked {
		t.ticked = false
		return true
	}
	return false
}

// WillTick peeks at the flag without clearing it.
func (t *TickAnimation) WillTick() bool { return t.ticked }

// Node is one component's positionable animated marker.
type Node struct {
	Pos               uint16
	Colour            Colour
	Step              int16
	Enabled           bool
	DisableOnComplete bool
	Anim              TickAnimation
}

// Move advances the node by Step within [0, span-1] when its timer fires.
//
// Wrap/disable only triggers when the computed (unclamped) position goes
// beyond the span, not when the node merely lands on the boundary, so a node
// sitting at the last index does not wrap until it actually tries to move
// past it. Arithmetic is widened to int32 so a negative step at position 0
// cannot underflow.
func (n *Node) Move(nowMs int64, span uint16) {
	n.Anim.Tick(nowMs)
	if !n.Anim.Ticked() {
		return
	}

	newPos := int32(n.Pos) + int32(n.Step)
	n.Pos = clampIndex(newPos, span)

	if (n.Step >= 0 && newPos > int32(span)-1) || (n.Step < 0 && newPos < 0) {
		if n.DisableOnComplete {
			n.Enabled = false
		} else if n.Step >= 0 {
			n.Pos = 0
		} else {
			n.Pos = span - 1
		}
	}
}

func clampIndex(pos int32, span uint16) uint16 {
	if pos < 0 || pos >= int32(span) {
		return span - 1
	}
	return uint16(pos)
}
