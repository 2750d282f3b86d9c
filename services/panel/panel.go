// Package panel is the active component LED display engine: it multiplexes
// the seven component indicators, transient activity pulses and
// data-transmission indicators onto the shared 30-px strip.
//
// The strip is two physically joined 15-px segments wired in a U shape. The
// bottom segment (0..14) carries the component nodes; the top segment
// (15..29) is electrically flipped (15 is rightmost) and carries only
// temporary commands.
//
// The engine never blocks: producers queue temporary commands between
// render passes, Render composites base frame, node overlays and live
// commands into the pixel buffer and flushes once. Errors degrade the
// display (stale or skipped pixels) and are logged; nothing here may take
// down the control loop.
package panel

import (
	"sync"

	"feedercode-go/errcode"
	"feedercode-go/leds"
	"feedercode-go/x/logx"
	"feedercode-go/x/timex"
)

// Strip geometry and engine timing constants.
const (
	BottomLen = 15 // node segment, pixels 0..14
	TopStart  = 15 // flipped segment, pixels 15..29

	MaxTransmissionLEDs = 5
	ActivityDurationMs  = 1000
	TransmitDurationMs  = 2000

	ClockIntervalMs     = 100
	ClockStep           = 1
	ComponentIntervalMs = 500
	ComponentStep       = 0

	// DefaultTempSlots sizes the temporary command pool that sits after
	// the base-frame slots in the command buffer.
	DefaultTempSlots = 16
)

// Command is one colour-at-position entry in the command buffer. Slots
// 0..stripLen-1 form the persistent base frame (Duration 0, always active);
// the remaining slots are the temporary pool for pulses and transmission
// indicators. A temporary slot frees itself when Render finds it expired.
type Command struct {
	Pos      uint16
	Colour   leds.Colour
	Duration uint32 // ms, 0 = infinite
	StartMs  int64
	Active   bool
}

// Strip is the pixel primitive contract the engine renders through.
// SetPixel only touches the frame buffer; Show is the single flush per
// render pass.
type Strip interface {
	Len() int
	SetPixel(index int, c leds.Colour)
	Fill(c leds.Colour, count int, background leds.Colour)
	Show() error
}

// Config tunes a Panel. The zero value is completed by New.
type Config struct {
	TempSlots  int
	Background leds.Colour
}

// Panel owns the node registry and the command buffer. All state is held by
// the instance (no package globals); the mutex keeps the
// producer-facing calls (Activity, DataTransmission, Enable, …) safe
// against the render loop, since producers run on other goroutines.
type Panel struct {
	mu    sync.Mutex
	strip Strip
	now   timex.Millis

	background leds.Colour
	nodes      [componentCount]leds.Node
	cmds       []Command
	baseLen    int

	nextPos uint16 // startup placement cursor for component nodes
}

// New builds a panel over the given strip. now supplies milliseconds; tests
// inject a fake clock.
func New(strip Strip, now timex.Millis, cfg Config) *Panel {
	slots := cfg.TempSlots
	if slots <= 0 {
		slots = DefaultTempSlots
	}
	p := &Panel{
		strip:      strip,
		now:        now,
		background: cfg.Background,
		baseLen:    strip.Len(),
		cmds:       make([]Command, strip.Len()+slots),
	}
	for c := Clock; c < componentCount; c++ {
		p.nodes[c] = leds.Node{Colour: defaultColours[c], Enabled: true}
	}
	p.BuildBaseFrame()
	return p
}

// BuildBaseFrame rebuilds every base-frame slot with the background colour.
// It is the only writer of the base frame; Render never mutates it.
func (p *Panel) BuildBaseFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < p.baseLen; i++ {
		p.cmds[i] = Command{Pos: uint16(i), Colour: p.background, Duration: 0, Active: true}
	}
}

// Node returns a copy of the component's node state. The bool reports
// whether c names a real component; callers can not accidentally operate on
// a fallback node.
func (p *Panel) Node(c Component) (leds.Node, bool) {
	if !c.valid() {
		logx.Critical("panel: invalid component index %d", uint8(c))
		return leds.Node{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nodes[c], true
}

// Enable makes the component's node visible again. No effect on the base
// frame.
func (p *Panel) Enable(c Component) {
	if !c.valid() {
		logx.Critical("panel: enable: invalid component index %d", uint8(c))
		return
	}
	p.mu.Lock()
	p.nodes[c].Enabled = true
	p.mu.Unlock()
}

// Disable hides the component's node. Its position freezes until re-enabled.
func (p *Panel) Disable(c Component) {
	if !c.valid() {
		logx.Critical("panel: disable: invalid component index %d", uint8(c))
		return
	}
	p.mu.Lock()
	p.nodes[c].Enabled = false
	p.mu.Unlock()
}

// SetColour overrides the component's node colour.
func (p *Panel) SetColour(c Component, colour leds.Colour) {
	if !c.valid() {
		logx.Critical("panel: set_colour: invalid component index %d", uint8(c))
		return
	}
	p.mu.Lock()
	p.nodes[c].Colour = colour
	p.mu.Unlock()
}

// SetPosition moves the component's node.
func (p *Panel) SetPosition(c Component, pos uint16) {
	if !c.valid() {
		logx.Critical("panel: set_position: invalid component index %d", uint8(c))
		return
	}
	p.mu.Lock()
	p.nodes[c].Pos = pos
	p.mu.Unlock()
}

// SetStep changes the per-tick position delta.
func (p *Panel) SetStep(c Component, step int16) {
	if !c.valid() {
		logx.Critical("panel: set_step: invalid component index %d", uint8(c))
		return
	}
	p.mu.Lock()
	p.nodes[c].Step = step
	p.mu.Unlock()
}

// Activity queues a 1 s pulse one pixel ahead of the component's node
// (wrapping inside the node segment) in the component's colour.
//
// The active=false branch is deliberately a no-op: pulses expire on their
// own and callers pair Activity(c, true)/Activity(c, false) around work
// purely out of symmetry. See the design notes before "fixing" this.
func (p *Panel) Activity(c Component, active bool) {
	if !active {
		return
	}
	if !c.valid() {
		logx.Critical("panel: activity: invalid component index %d", uint8(c))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pos := p.nodes[c].Pos + 1
	if pos >= BottomLen {
		pos = 0
	}

	cmd := p.allocateCommand()
	if cmd == nil {
		logx.Warn("panel: %s: dropping activity pulse for %s", errcode.BufferFull, c.String())
		return
	}
	cmd.Pos = pos
	cmd.Colour = p.nodes[c].Colour
	cmd.Duration = ActivityDurationMs
	cmd.StartMs = p.now()
	cmd.Active = true
}

// DataTransmission visualises size transferred units on the top segment,
// starting above the component's node and walking backward (the top segment
// is flipped: bottom 0 maps to 29, bottom 14 maps to 15). At most
// MaxTransmissionLEDs pixels light up; the remainder of the window is
// painted with the background colour so indicators from a previous, larger
// transmission don't linger.
//
// Calling this while the node sits outside the bottom segment is a caller
// configuration error: logged, nothing queued.
func (p *Panel) DataTransmission(c Component, size int) {
	if !c.valid() {
		logx.Critical("panel: data_transmission: invalid component index %d", uint8(c))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	bottomPos := p.nodes[c].Pos
	if bottomPos >= BottomLen {
		logx.Error("panel: %s: data_transmission: %s position %d not in bottom strip", errcode.NotBottomStrip, c.String(), bottomPos)
		return
	}

	topStart := TopStart + (BottomLen - 1 - int(bottomPos))
	shown := size
	if shown > MaxTransmissionLEDs {
		shown = MaxTransmissionLEDs
	}

	now := p.now()
	for i := 0; i < MaxTransmissionLEDs; i++ {
		ledPos := topStart - i
		if ledPos < TopStart || ledPos >= p.baseLen {
			break // walked off the top segment, no wrap
		}

		cmd := p.allocateCommand()
		if cmd == nil {
			logx.Warn("panel: %s: data_transmission for %s", errcode.BufferFull, c.String())
			return
		}
		cmd.Pos = uint16(ledPos)
		if i < shown {
			cmd.Colour = p.nodes[c].Colour
		} else {
			cmd.Colour = p.background
		}
		cmd.Duration = TransmitDurationMs
		cmd.StartMs = now
		cmd.Active = true
	}
}

// Tick advances every enabled node's animation. Disabled nodes are frozen.
func (p *Panel) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	for i := range p.nodes {
		if !p.nodes[i].Enabled {
			continue
		}
		p.nodes[i].Move(now, BottomLen)
	}
}

// Render composites one frame and flushes it:
//
//  1. the persistent base frame, pixel by pixel;
//  2. every enabled node's colour at its position (buffer only, the base
//     frame is never written here);
//  3. every live temporary command, expiring stale ones in place.
//
// Bounds problems are logged and the specific write skipped, leaving that
// pixel stale for a frame; nothing is silently corrected.
func (p *Panel) Render() {
	p.mu.Lock()

	now := p.now()

	for i := 0; i < p.baseLen; i++ {
		if i >= len(p.cmds) {
			logx.Critical("panel: base frame index %d out of command buffer", i)
			continue
		}
		p.strip.SetPixel(i, p.cmds[i].Colour)
	}

	for i := range p.nodes {
		n := &p.nodes[i]
		if !n.Enabled {
			continue
		}
		if int(n.Pos) >= p.baseLen {
			logx.Error("panel: %s: node %s position %d", errcode.OutOfBounds, Component(i).String(), n.Pos)
			continue
		}
		p.strip.SetPixel(int(n.Pos), n.Colour)
	}

	for i := p.baseLen; i < len(p.cmds); i++ {
		cmd := &p.cmds[i]
		if !cmd.Active {
			continue
		}
		if cmd.Duration > 0 && now-cmd.StartMs >= int64(cmd.Duration) {
			cmd.Active = false
			continue
		}
		if int(cmd.Pos) >= p.baseLen {
			logx.Error("panel: %s: command position %d", errcode.OutOfBounds, cmd.Pos)
			cmd.Active = false
			continue
		}
		p.strip.SetPixel(int(cmd.Pos), cmd.Colour)
	}

	p.mu.Unlock()

	if err := p.strip.Show(); err != nil {
		logx.Error("panel: strip flush failed: %v", err)
	}
}

// allocateCommand returns the first free temporary slot, cleared, or nil
// when the pool is exhausted. Callers must treat nil as "effect dropped".
// Caller holds p.mu.
func (p *Panel) allocateCommand() *Command {
	for i := p.baseLen; i < len(p.cmds); i++ {
		if !p.cmds[i].Active {
			p.cmds[i] = Command{}
			return &p.cmds[i]
		}
	}
	return nil
}

// FreeSlots counts inactive temporary slots (diagnostics).
func (p *Panel) FreeSlots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	free := 0
	for i := p.baseLen; i < len(p.cmds); i++ {
		if !p.cmds[i].Active {
			free++
		}
	}
	return free
}
