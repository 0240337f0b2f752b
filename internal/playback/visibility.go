package playback

import (
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/jonboulle/clockwork"
)

// DefaultHideAfter is the idle window after which controls hide during playback
const DefaultHideAfter = 3 * time.Second

// VisibilityTimer hides the on-screen controls after an idle window while playing.  It has two states, visible and
// hidden.  Pointer activity, pausing and ending all force it back to visible.
//
// Each qualifying activity replaces the scheduled task.  Expiry is posted onto the loop and checked against the
// generation it was scheduled with, so a task that was replaced, stopped or belongs to a previous lesson does nothing.
type VisibilityTimer struct {
	clock      clockwork.Clock
	loop       Loop
	delay      time.Duration
	controller *Controller

	timer   clockwork.Timer
	gen     uint64
	stopped bool
}

// NewVisibilityTimer creates a timer driving the controller's controls visibility
func NewVisibilityTimer(controller *Controller, clock clockwork.Clock, loop Loop, delay time.Duration) *VisibilityTimer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay <= 0 {
		delay = DefaultHideAfter
	}
	return &VisibilityTimer{
		clock:      clock,
		loop:       loop,
		delay:      delay,
		controller: controller,
	}
}

// Visible reports whether controls are currently shown
func (v *VisibilityTimer) Visible() bool {
	return v.controller.State().ControlsVisible
}

// Activity records pointer movement: controls are shown and the idle window restarts
func (v *VisibilityTimer) Activity() {
	if v.stopped {
		return
	}
	v.show()
	v.schedule()
}

// PlaybackChanged reacts to the controller's playing state.  Starting playback begins the idle window; pausing or
// ending shows the controls and cancels it.
func (v *VisibilityTimer) PlaybackChanged(playing bool) {
	if v.stopped {
		return
	}
	v.show()
	if playing {
		v.schedule()
	} else {
		v.cancel()
	}
}

// Reset cancels any pending hide and shows the controls.  Used when the lesson changes.
func (v *VisibilityTimer) Reset() {
	v.cancel()
	if !v.stopped {
		v.show()
	}
}

// Stop tears the timer down.  No callback runs after Stop returns.
func (v *VisibilityTimer) Stop() {
	v.cancel()
	v.stopped = true
}

// Restart re-enables a stopped timer.  Used when the player is mounted again.
func (v *VisibilityTimer) Restart() {
	v.stopped = false
	v.show()
}

func (v *VisibilityTimer) schedule() {
	v.cancel()
	if !v.controller.State().IsPlaying {
		return
	}
	gen := v.gen
	v.timer = v.clock.AfterFunc(v.delay, func() {
		v.loop.Post(func() { v.expire(gen) })
	})
}

func (v *VisibilityTimer) cancel() {
	v.gen++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *VisibilityTimer) expire(gen uint64) {
	if v.stopped || gen != v.gen {
		log.Trace("Discarding stale controls hide", "gen", gen, "current", v.gen)
		return
	}
	v.timer = nil
	if !v.controller.State().IsPlaying {
		return
	}
	v.controller.setControlsVisible(false)
}

func (v *VisibilityTimer) show() {
	if !v.controller.State().ControlsVisible {
		v.controller.setControlsVisible(true)
	}
}
