package playback

import (
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/jonboulle/clockwork"
)

// PlayerConfig wires the player components together
type PlayerConfig struct {
	Element    MediaElement
	Fullscreen FullscreenAPI
	Loop       Loop
	Runner     Runner
	Clock      clockwork.Clock

	InitialVolume float64
	InitialSpeed  float64
	HideAfter     time.Duration
	SkipSeconds   float64
}

// Player bundles the controller with the components that drive it and owns their mount lifecycle
type Player struct {
	Controller *Controller
	Visibility *VisibilityTimer
	Keyboard   *KeyboardRouter
	Fullscreen *FullscreenCoordinator
	SpeedMenu  *SpeedMenu

	loop    Loop
	mounted bool

	// OnChange receives every controller transition after the player has reacted to it
	OnChange func(State)
}

// NewPlayer builds a player.  Nothing is attached until Mount.
func NewPlayer(cfg PlayerConfig) *Player {
	if cfg.Loop == nil {
		cfg.Loop = LoopFunc(func(fn func()) { fn() })
	}
	runner := cfg.Runner
	if runner == nil {
		runner = NewAsyncRunner(cfg.Loop)
	}

	controller := NewController(Options{
		Element:       cfg.Element,
		Runner:        runner,
		Loop:          cfg.Loop,
		InitialVolume: cfg.InitialVolume,
		InitialSpeed:  cfg.InitialSpeed,
	})
	fullscreen := NewFullscreenCoordinator(cfg.Fullscreen, controller, runner)
	speedMenu := NewSpeedMenu(controller)

	p := &Player{
		Controller: controller,
		Visibility: NewVisibilityTimer(controller, cfg.Clock, cfg.Loop, cfg.HideAfter),
		Keyboard:   NewKeyboardRouter(controller, fullscreen, speedMenu, cfg.SkipSeconds),
		Fullscreen: fullscreen,
		SpeedMenu:  speedMenu,
		loop:       cfg.Loop,
	}
	controller.OnChange = p.stateChanged
	return p
}

// Mount attaches the keyboard listener and the fullscreen change signal
func (p *Player) Mount(keys KeySource) {
	if p.mounted {
		return
	}
	p.Visibility.Restart()
	p.Keyboard.Attach(keys)
	p.Fullscreen.Attach(p.loop)
	p.mounted = true
	log.Info("Player mounted")
}

// Unmount clears the timer, removes every listener and detaches from the media element
func (p *Player) Unmount() {
	if !p.mounted {
		return
	}
	p.Visibility.Stop()
	p.Keyboard.Detach()
	p.Fullscreen.Detach()
	p.Controller.Close()
	p.mounted = false
	log.Info("Player unmounted")
}

// Mounted reports whether listeners are attached
func (p *Player) Mounted() bool {
	return p.mounted
}

// SelectLesson switches the active lesson.  The pending hide is cancelled before the controller resets, so a timer
// armed for the old lesson cannot hide controls for the new one.
func (p *Player) SelectLesson(lesson domain.Lesson) {
	log.Info("Lesson selected", "lesson_id", lesson.ID, "title", lesson.Title)
	p.Visibility.Reset()
	p.SpeedMenu.Close()
	p.Controller.Load(lesson)
}

// PointerMoved records pointer activity over the player
func (p *Player) PointerMoved() {
	p.Visibility.Activity()
}

// State returns the controller snapshot
func (p *Player) State() State {
	return p.Controller.State()
}

func (p *Player) stateChanged(prev, next State) {
	if prev.IsPlaying != next.IsPlaying || (next.Ended && !prev.Ended) {
		p.Visibility.PlaybackChanged(next.IsPlaying && !next.Ended)
	}
	if p.OnChange != nil {
		p.OnChange(p.Controller.State())
	}
}
