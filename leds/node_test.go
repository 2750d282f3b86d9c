package leds

import "testing"

const span = 15

func TestTickAnimation_EdgeTriggered(t *testing.T) {
	a := TickAnimation{IntervalMs: 100}

	a.Tick(100)
	if !a.WillTick() {
		t.Fatal("expected flag raised after interval elapsed")
	}
	// Re-ticking before consumption re-raises, it must not double-count.
	a.Tick(100)
	if a.Frame != 1 {
		t.Fatalf("frame=%d want 1", a.Frame)
	}
	if !a.Ticked() {
		t.Fatal("Ticked should report and clear")
	}
	if a.Ticked() {
		t.Fatal("second Ticked must be false (edge, not level)")
	}

	// Not enough time elapsed: no tick.
	a.Tick(150)
	if a.Ticked() {
		t.Fatal("unexpected tick before interval elapsed")
	}

	a.Tick(200)
	if !a.Ticked() {
		t.Fatal("expected tick after second interval")
	}
	if a.Frame != 2 {
		t.Fatalf("frame=%d want 2", a.Frame)
	}
}

// advance runs one qualifying tick on n (interval already elapsed).
func advance(n *Node, nowMs *int64) {
	*nowMs += int64(n.Anim.IntervalMs)
	n.Move(*nowMs, span)
}

func TestNode_ZeroStepNeverMoves(t *testing.T) {
	n := Node{Pos: 6, Step: 0, Enabled: true, Anim: TickAnimation{IntervalMs: 100}}
	now := int64(0)
	for i := 0; i < 50; i++ {
		advance(&n, &now)
	}
	if n.Pos != 6 {
		t.Fatalf("pos=%d want 6", n.Pos)
	}
}

func TestNode_PositionStaysInBounds(t *testing.T) {
	nodes := []Node{
		{Pos: 0, Step: 1, Enabled: true, Anim: TickAnimation{IntervalMs: 100}},
		{Pos: 14, Step: -1, Enabled: true, Anim: TickAnimation{IntervalMs: 100}},
		{Pos: 7, Step: 3, Enabled: true, Anim: TickAnimation{IntervalMs: 100}},
		{Pos: 2, Step: -5, Enabled: true, Anim: TickAnimation{IntervalMs: 100}},
	}
	now := int64(0)
	for i := 0; i < 100; i++ {
		for j := range nodes {
			advance(&nodes[j], &now)
			if nodes[j].Pos >= span {
				t.Fatalf("node %d escaped bounds: pos=%d", j, nodes[j].Pos)
			}
		}
	}
}

func TestNode_WrapHighToZero(t *testing.T) {
	// Node at 13, step +1, span 15: one tick -> 14, next tick attempts 15
	// (out of bounds) -> wraps to 0.
	n := Node{Pos: 13, Step: 1, Enabled: true, Anim: TickAnimation{IntervalMs: 100}}
	now := int64(0)

	advance(&n, &now)
	if n.Pos != 14 {
		t.Fatalf("after first tick pos=%d want 14 (no premature wrap at boundary)", n.Pos)
	}
	advance(&n, &now)
	if n.Pos != 0 {
		t.Fatalf("after second tick pos=%d want 0 (wrap)", n.Pos)
	}
	if !n.Enabled {
		t.Fatal("wrap must not disable the node")
	}
}

func TestNode_WrapLowToEnd(t *testing.T) {
	n := Node{Pos: 0, Step: -1, Enabled: true, Anim: TickAnimation{IntervalMs: 100}}
	now := int64(0)
	advance(&n, &now)
	if n.Pos != span-1 {
		t.Fatalf("pos=%d want %d (wrap to end)", n.Pos, span-1)
	}
}

func TestNode_DisableOnComplete(t *testing.T) {
	n := Node{Pos: 14, Step: 1, Enabled: true, DisableOnComplete: true, Anim: TickAnimation{IntervalMs: 100}}
	now := int64(0)
	advance(&n, &now)
	if n.Enabled {
		t.Fatal("node should disable when moving past the boundary")
	}
	if n.Pos != span-1 {
		t.Fatalf("pos=%d want %d (clamped, not wrapped)", n.Pos, span-1)
	}
}

func TestNode_NoMoveWithoutQualifyingTick(t *testing.T) {
	n := Node{Pos: 5, Step: 1, Enabled: true, Anim: TickAnimation{IntervalMs: 1000}}
	n.Anim.LastUpdateMs = 0
	n.Move(500, span) // interval not elapsed
	if n.Pos != 5 {
		t.Fatalf("pos=%d want 5", n.Pos)
	}
}
