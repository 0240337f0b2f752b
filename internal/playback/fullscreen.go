package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
)

// FullscreenCoordinator wraps the native fullscreen capability.  The controller's flag only changes once the native
// side confirms a request, and the native change signal always has the last word.
type FullscreenCoordinator struct {
	api        FullscreenAPI
	controller *Controller
	runner     Runner
	timeout    time.Duration

	seq      uint64
	attached uint64
	remove   func()
}

// NewFullscreenCoordinator creates a coordinator.  api may be nil when the platform has no fullscreen support, in
// which case every request is a no-op.
func NewFullscreenCoordinator(api FullscreenAPI, controller *Controller, runner Runner) *FullscreenCoordinator {
	return &FullscreenCoordinator{
		api:        api,
		controller: controller,
		runner:     runner,
		timeout:    defaultCommandTimeout,
	}
}

// Attach subscribes to the native change signal and syncs the flag with the native state
func (f *FullscreenCoordinator) Attach(loop Loop) {
	f.Detach()
	if f.api == nil {
		return
	}
	gen := f.attached
	f.remove = f.api.OnFullscreenChange(func(active bool) {
		loop.Post(func() {
			if gen == f.attached {
				f.nativeChanged(active)
			}
		})
	})
	if active, known := f.api.FullscreenElement(); known {
		f.nativeChanged(active)
	}
}

// Detach removes the change subscription
func (f *FullscreenCoordinator) Detach() {
	f.seq++
	f.attached++
	if f.remove != nil {
		f.remove()
		f.remove = nil
	}
}

// Active returns the current fullscreen state, preferring the native answer when there is one
func (f *FullscreenCoordinator) Active() bool {
	if f.api != nil {
		if active, known := f.api.FullscreenElement(); known {
			return active
		}
	}
	return f.controller.State().IsFullscreen
}

// Enter requests fullscreen
func (f *FullscreenCoordinator) Enter() {
	if f.Active() {
		return
	}
	f.request(true)
}

// Exit leaves fullscreen
func (f *FullscreenCoordinator) Exit() {
	if !f.Active() {
		return
	}
	f.request(false)
}

// Toggle flips the fullscreen state
func (f *FullscreenCoordinator) Toggle() {
	if f.Active() {
		f.Exit()
	} else {
		f.Enter()
	}
}

func (f *FullscreenCoordinator) request(enter bool) {
	if f.api == nil {
		log.Debug("Fullscreen not supported by this media element")
		return
	}
	f.seq++
	seq := f.seq
	f.runner.Run(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		if enter {
			if err := f.api.RequestFullscreen(ctx); err != nil {
				return fmt.Errorf("%w: %w", ErrFullscreenDenied, err)
			}
			return nil
		}
		return f.api.ExitFullscreen(ctx)
	}, func(err error) {
		if seq != f.seq {
			log.Debug("Discarding stale fullscreen completion", "enter", enter)
			return
		}
		if err != nil {
			log.Warn("Fullscreen change rejected", "enter", enter, "error", err)
			return
		}
		f.controller.setFullscreen(enter)
	})
}

func (f *FullscreenCoordinator) nativeChanged(active bool) {
	if f.controller.State().IsFullscreen == active {
		return
	}
	log.Debug("Native fullscreen changed", "active", active)
	f.controller.setFullscreen(active)
}
