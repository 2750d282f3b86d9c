package panel

import (
	"time"

	"feedercode-go/leds"
	"feedercode-go/x/logx"
	"feedercode-go/x/mathx"
)

// Startup visual: progress bar colours and pacing between steps. The delay
// exists only so the bar is visible to a human watching the boot.
var (
	progressForeground = leds.DarkBlue
	progressBackground = leds.Green
	startupStepDelay   = 50 * time.Millisecond
)

func (p *Panel) initClock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := &p.nodes[Clock]
	n.Pos = 0
	n.Colour = leds.Yellow
	n.Step = ClockStep
	n.DisableOnComplete = false
	n.Anim.IntervalMs = ClockIntervalMs
	// The clock stays visible for the whole process lifetime.
	n.Enabled = true
}

func (p *Panel) initComponentStatus(c Component, visible bool) {
	if !c.valid() {
		logx.Critical("panel: init: invalid component index %d", uint8(c))
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n := &p.nodes[c]
	n.Pos = p.nextPos
	n.Step = ComponentStep
	n.DisableOnComplete = false
	n.Anim.IntervalMs = ComponentIntervalMs
	n.Enabled = visible
	p.nextPos += 2
}

func (p *Panel) displayProgress(current, maxSteps int) {
	count := mathx.LedsForProgress(current, maxSteps, p.baseLen)
	p.strip.Fill(progressForeground, count, progressBackground)
	if err := p.strip.Show(); err != nil {
		logx.Error("panel: progress flush failed: %v", err)
	}
}

// Initialise runs the startup sequence: base frame, clock, then one
// component node per step with a progress bar, a second base-frame rebuild
// to erase the bar, and one forced render.
func (p *Panel) Initialise(pace bool) {
	step := 0
	maxSteps := int(componentCount)
	wait := func() {
		if pace && startupStepDelay > 0 {
			time.Sleep(startupStepDelay)
		}
	}
	advance := func(what string) {
		step++
		p.displayProgress(step, maxSteps)
		logx.Info("panel: %s: success", what)
		wait()
	}

	p.BuildBaseFrame()
	p.displayProgress(step, maxSteps)
	wait()

	p.initClock()
	advance("clock animation")

	p.initComponentStatus(WifiStatus, false)
	advance("wifi status")
	p.initComponentStatus(Bluetooth, false)
	advance("bluetooth")
	p.initComponentStatus(MotorLeft, false)
	advance("motor left")
	p.initComponentStatus(MotorRight, false)
	advance("motor right")
	p.initComponentStatus(Server, false)
	advance("server")
	p.initComponentStatus(Error, false)
	advance("error")

	// Erase progress artifacts and show the real steady state.
	p.BuildBaseFrame()
	p.Render()
	logx.Info("panel: active components initialised")
}
