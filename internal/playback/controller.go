package playback

import (
	"context"
	"math"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/samber/lo"
)

const defaultCommandTimeout = 10 * time.Second

// Options configures a Controller
type Options struct {
	Element MediaElement
	// Runner executes native commands.  Defaults to an AsyncRunner on Loop.
	Runner Runner
	// Loop receives media events and command completions.  Required unless Runner is an InlineRunner and events are
	// delivered on the UI goroutine already.
	Loop Loop

	InitialVolume  float64
	InitialSpeed   float64
	CommandTimeout time.Duration
}

// playIntent separates what the user last asked for from what the element last reported.  seq identifies the most
// recent play/pause command and settled the most recent one whose native operation has completed.
type playIntent struct {
	intent    bool
	confirmed bool
	seq       uint64
	settled   uint64
}

func (p playIntent) inFlight() bool {
	return p.settled != p.seq
}

// Controller is the single source of truth for playback.  It issues commands to the media element and absorbs the
// element's events.  All methods must be called on the loop goroutine.
type Controller struct {
	element MediaElement
	runner  Runner
	loop    Loop
	timeout time.Duration

	state      State
	lastVolume float64
	play       playIntent

	attachment uint64
	detach     func()

	// OnChange is called after every transition with the previous and the new snapshot
	OnChange func(prev, next State)
}

// NewController creates a controller with no lesson loaded
func NewController(opts Options) *Controller {
	volume := lo.Clamp(opts.InitialVolume, 0, 1)
	if opts.InitialVolume == 0 {
		volume = 1
	}
	speed := opts.InitialSpeed
	if !lo.Contains(Speeds, speed) {
		speed = 1
	}
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	loop := opts.Loop
	if loop == nil {
		loop = LoopFunc(func(fn func()) { fn() })
	}
	runner := opts.Runner
	if runner == nil {
		runner = NewAsyncRunner(loop)
	}

	return &Controller{
		element:    opts.Element,
		runner:     runner,
		loop:       loop,
		timeout:    timeout,
		lastVolume: volume,
		state: State{
			Status:          StatusEmpty,
			Volume:          volume,
			PlaybackSpeed:   speed,
			ControlsVisible: true,
		},
	}
}

// State returns the current snapshot
func (c *Controller) State() State {
	return c.state
}

// AudibleVolume is the level heard once unmuted.  While muted it is the last non-zero level.
func (c *Controller) AudibleVolume() float64 {
	if c.state.Volume > 0 {
		return c.state.Volume
	}
	if c.lastVolume > 0 {
		return c.lastVolume
	}
	return 1
}

// Load switches to a lesson.  State is reset before the previous element listener is detached and before the new
// source is attached, so nothing from the old lesson can leak into the new one.
func (c *Controller) Load(lesson domain.Lesson) {
	c.ResetForNewLesson()
	c.detachListener()

	prev := c.state
	src := ResolveSource(lesson)
	c.state.LessonID = lesson.ID
	c.state.LessonTitle = lesson.Title
	c.state.Source = src

	if !src.Playable() {
		log.Warn("Lesson has no playable source", "lesson_id", lesson.ID, "title", lesson.Title)
		c.state.Status = StatusMissingSource
		c.notify(prev)
		return
	}

	c.state.Status = StatusLoading
	c.notify(prev)

	c.attachment++
	gen := c.attachment
	c.detach = c.element.AddListener(func(ev MediaEvent) {
		c.loop.Post(func() { c.handleEvent(gen, ev) })
	})

	log.Info("Attaching lesson source", "lesson_id", lesson.ID, "kind", src.Kind, "mime_type", src.MimeType)
	volume, muted, speed := c.state.Volume, c.state.IsMuted, c.state.PlaybackSpeed
	c.runner.Run(func() error {
		ctx, cancel := c.context()
		defer cancel()
		if err := c.element.Load(ctx, src); err != nil {
			return err
		}
		if err := c.element.SetMuted(ctx, muted); err != nil {
			return err
		}
		if !muted {
			if err := c.element.SetVolume(ctx, volume); err != nil {
				return err
			}
		}
		return c.element.SetPlaybackRate(ctx, speed)
	}, func(err error) {
		if err == nil || gen != c.attachment {
			return
		}
		log.Error("Media element failed to load source", "lesson_id", lesson.ID, "error", err)
		prev := c.state
		c.state.Status = StatusMissingSource
		c.notify(prev)
	})
}

// ResetForNewLesson zeroes the position and stops playback.  Any in-flight play or pause completion becomes stale.
func (c *Controller) ResetForNewLesson() {
	prev := c.state
	c.play.seq++
	c.play.settled = c.play.seq
	c.play.intent = false
	c.play.confirmed = false

	c.state.CurrentTime = 0
	c.state.Duration = 0
	c.state.IsPlaying = false
	c.state.Ended = false
	c.state.SpeedMenuOpen = false
	c.state.ControlsVisible = true
	c.notify(prev)
}

// Close detaches from the media element and pauses it.  The controller keeps its last state for rendering.
func (c *Controller) Close() {
	c.detachListener()
	if c.accepts("close") && c.state.IsPlaying {
		c.runner.Run(func() error {
			ctx, cancel := c.context()
			defer cancel()
			return c.element.Pause(ctx)
		}, nil)
	}
	c.ResetForNewLesson()
}

// Play starts playback.  Playing after the end restarts from the beginning.
func (c *Controller) Play() {
	if !c.accepts("play") {
		return
	}
	c.command(true)
}

// Pause pauses playback
func (c *Controller) Pause() {
	if !c.accepts("pause") {
		return
	}
	c.command(false)
}

// Toggle flips between playing and paused based on the current intent
func (c *Controller) Toggle() {
	if c.state.IsPlaying {
		c.Pause()
	} else {
		c.Play()
	}
}

// Seek moves to t seconds, clamped into [0, duration].  Before metadata resolves the duration is 0, so every seek
// lands on 0.
func (c *Controller) Seek(t float64) {
	if !c.accepts("seek") {
		return
	}
	prev := c.state
	target := c.clampTime(t)
	c.state.CurrentTime = target
	if target < c.state.Duration {
		c.state.Ended = false
	}
	c.notify(prev)

	c.runner.Run(func() error {
		ctx, cancel := c.context()
		defer cancel()
		return c.element.Seek(ctx, target)
	}, c.logFailure("seek"))
}

// Skip seeks relative to the current position
func (c *Controller) Skip(delta float64) {
	c.Seek(c.state.CurrentTime + delta)
}

// SetVolume sets the level, clamped into [0, 1].  A level of 0 counts as muted.
func (c *Controller) SetVolume(v float64) {
	if !c.accepts("set_volume") {
		return
	}
	if math.IsNaN(v) {
		v = 0
	}
	prev := c.state
	v = lo.Clamp(v, 0, 1)
	c.state.Volume = v
	c.state.IsMuted = v == 0
	if v > 0 {
		c.lastVolume = v
	}
	c.notify(prev)
	c.forwardVolume()
}

// ToggleMute swaps between silence and the last non-zero volume
func (c *Controller) ToggleMute() {
	if !c.accepts("toggle_mute") {
		return
	}
	prev := c.state
	if c.state.IsMuted {
		restore := c.lastVolume
		if restore <= 0 {
			restore = 1
		}
		c.state.Volume = restore
		c.state.IsMuted = false
	} else {
		if c.state.Volume > 0 {
			c.lastVolume = c.state.Volume
		}
		c.state.Volume = 0
		c.state.IsMuted = true
	}
	c.notify(prev)
	c.forwardVolume()
}

// SetSpeed applies one of the supported multipliers.  Anything outside Speeds is ignored.
func (c *Controller) SetSpeed(m float64) {
	if !c.accepts("set_speed") {
		return
	}
	if !lo.Contains(Speeds, m) {
		log.Warn("Ignoring unsupported playback speed", "speed", m)
		return
	}
	prev := c.state
	c.state.PlaybackSpeed = m
	c.notify(prev)

	c.runner.Run(func() error {
		ctx, cancel := c.context()
		defer cancel()
		return c.element.SetPlaybackRate(ctx, m)
	}, c.logFailure("set_speed"))
}

// OnTimeUpdate absorbs a position report from the element
func (c *Controller) OnTimeUpdate(t float64) {
	prev := c.state
	c.state.CurrentTime = c.clampTime(t)
	c.notify(prev)
}

// OnLoadedMetadata absorbs the resolved duration
func (c *Controller) OnLoadedMetadata(d float64) {
	prev := c.state
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		d = 0
	}
	c.state.Duration = d
	c.state.CurrentTime = c.clampTime(c.state.CurrentTime)
	if c.state.Status == StatusLoading {
		c.state.Status = StatusReady
	}
	log.Debug("Media metadata loaded", "lesson_id", c.state.LessonID, "duration", d)
	c.notify(prev)
}

// OnPlay absorbs the element's own play notification
func (c *Controller) OnPlay() {
	c.reconcile(true, false)
}

// OnPause absorbs the element's own pause notification
func (c *Controller) OnPause() {
	c.reconcile(false, false)
}

// OnEnded absorbs the end of the media.  The position is pinned to the duration.
func (c *Controller) OnEnded() {
	c.reconcile(false, true)
}

func (c *Controller) handleEvent(gen uint64, ev MediaEvent) {
	if gen != c.attachment {
		log.Trace("Dropping media event from detached source", "type", ev.Type)
		return
	}
	switch ev.Type {
	case MediaTimeUpdate:
		c.OnTimeUpdate(ev.Value)
	case MediaLoadedMetadata:
		c.OnLoadedMetadata(ev.Value)
	case MediaPlay:
		c.OnPlay()
	case MediaPause:
		c.OnPause()
	case MediaEnded:
		c.OnEnded()
	default:
		log.Debug("Ignoring unknown media event", "type", ev.Type)
	}
}

// command records the user's intent, shows it immediately and issues it to the element
func (c *Controller) command(playing bool) {
	prev := c.state
	c.play.intent = playing
	c.play.seq++
	seq := c.play.seq

	restart := playing && c.state.Ended
	if restart {
		c.state.CurrentTime = 0
		c.state.Ended = false
	}
	c.state.IsPlaying = playing
	c.notify(prev)

	c.runner.Run(func() error {
		ctx, cancel := c.context()
		defer cancel()
		if !playing {
			return c.element.Pause(ctx)
		}
		if restart {
			if err := c.element.Seek(ctx, 0); err != nil {
				return err
			}
		}
		return c.element.Play(ctx)
	}, func(err error) {
		c.settle(seq, err)
	})
}

// settle reconciles the completion of a play/pause command.  Completions of superseded commands are discarded so the
// most recent command always wins.
func (c *Controller) settle(seq uint64, err error) {
	if seq != c.play.seq {
		log.Debug("Discarding stale playback completion", "seq", seq, "latest", c.play.seq, "error", err)
		return
	}
	c.play.settled = seq
	if err == nil {
		return
	}

	log.Warn("Media element rejected playback command", "wanted_playing", c.play.intent, "error", err)
	prev := c.state
	c.play.intent = c.play.confirmed
	c.state.IsPlaying = c.play.confirmed
	c.notify(prev)
}

// reconcile records what the element reports.  While a command is in flight the report only updates the confirmed
// value; otherwise it becomes the displayed state too.
func (c *Controller) reconcile(playing, ended bool) {
	prev := c.state
	c.play.confirmed = playing
	if !c.play.inFlight() {
		c.play.intent = playing
		c.state.IsPlaying = playing
	}
	if ended {
		c.state.Ended = true
		c.state.CurrentTime = c.state.Duration
	} else if playing {
		c.state.Ended = false
	}
	c.notify(prev)
}

func (c *Controller) forwardVolume() {
	volume, muted := c.state.Volume, c.state.IsMuted
	c.runner.Run(func() error {
		ctx, cancel := c.context()
		defer cancel()
		if muted {
			return c.element.SetMuted(ctx, true)
		}
		if err := c.element.SetVolume(ctx, volume); err != nil {
			return err
		}
		return c.element.SetMuted(ctx, false)
	}, c.logFailure("volume"))
}

// accepts reports whether commands can reach the element.  With no source every command is a no-op.
func (c *Controller) accepts(op string) bool {
	switch c.state.Status {
	case StatusLoading, StatusReady:
		return true
	default:
		log.Debug("Ignoring command", "op", op, "status", c.state.Status, "reason", ErrNoSource)
		return false
	}
}

func (c *Controller) clampTime(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return lo.Clamp(t, 0, c.state.Duration)
}

func (c *Controller) setControlsVisible(visible bool) {
	prev := c.state
	c.state.ControlsVisible = visible
	c.notify(prev)
}

func (c *Controller) setFullscreen(active bool) {
	prev := c.state
	c.state.IsFullscreen = active
	c.notify(prev)
}

func (c *Controller) setSpeedMenuOpen(open bool) {
	prev := c.state
	c.state.SpeedMenuOpen = open
	c.notify(prev)
}

func (c *Controller) detachListener() {
	c.attachment++
	if c.detach != nil {
		c.detach()
		c.detach = nil
	}
}

func (c *Controller) logFailure(op string) func(error) {
	return func(err error) {
		if err != nil {
			log.Warn("Media command failed", "op", op, "lesson_id", c.state.LessonID, "error", err)
		}
	}
}

func (c *Controller) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *Controller) notify(prev State) {
	if c.OnChange != nil && prev != c.state {
		c.OnChange(prev, c.state)
	}
}
