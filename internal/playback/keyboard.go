package playback

import "github.com/PizzaHomicide/lectern/internal/log"

// KeyTarget identifies what had focus when a key was pressed
type KeyTarget int

const (
	// TargetDocument means no text entry had focus
	TargetDocument KeyTarget = iota
	// TargetTextInput means the key was typed into a text field
	TargetTextInput
)

// KeyEvent is a single keydown.  Key uses the terminal key names, e.g. " ", "left", "f".
type KeyEvent struct {
	Key    string
	Target KeyTarget
}

// KeyListener handles a key and reports whether it consumed it
type KeyListener func(KeyEvent) bool

// KeySource is the document-level key event source the router attaches to
type KeySource interface {
	AddKeyListener(fn KeyListener) (remove func())
}

// ShortcutAction is a player command reachable from the keyboard
type ShortcutAction string

const (
	ShortcutTogglePlay       ShortcutAction = "toggle_play"
	ShortcutSkipBack         ShortcutAction = "skip_back"
	ShortcutSkipForward      ShortcutAction = "skip_forward"
	ShortcutToggleFullscreen ShortcutAction = "toggle_fullscreen"
	ShortcutToggleMute       ShortcutAction = "toggle_mute"
	ShortcutVolumeUp         ShortcutAction = "volume_up"
	ShortcutVolumeDown       ShortcutAction = "volume_down"
	ShortcutToggleSpeedMenu  ShortcutAction = "toggle_speed_menu"
)

// Shortcut binds keys to an action
type Shortcut struct {
	Action ShortcutAction
	Keys   []string
	Help   string
}

const volumeStep = 0.1

// Shortcuts is the player keyboard surface
var Shortcuts = []Shortcut{
	{Action: ShortcutTogglePlay, Keys: []string{" ", "k"}, Help: "Play/pause"},
	{Action: ShortcutSkipBack, Keys: []string{"left"}, Help: "Back 10 seconds"},
	{Action: ShortcutSkipForward, Keys: []string{"right"}, Help: "Forward 10 seconds"},
	{Action: ShortcutToggleFullscreen, Keys: []string{"f"}, Help: "Toggle fullscreen"},
	{Action: ShortcutToggleMute, Keys: []string{"m"}, Help: "Mute/unmute"},
	{Action: ShortcutVolumeUp, Keys: []string{"+", "="}, Help: "Volume up"},
	{Action: ShortcutVolumeDown, Keys: []string{"-"}, Help: "Volume down"},
	{Action: ShortcutToggleSpeedMenu, Keys: []string{"s"}, Help: "Playback speed"},
}

// ShortcutForKey looks up the action bound to a key
func ShortcutForKey(key string) (ShortcutAction, bool) {
	if key == "space" {
		key = " "
	}
	for _, s := range Shortcuts {
		for _, k := range s.Keys {
			if k == key {
				return s.Action, true
			}
		}
	}
	return "", false
}

// KeyboardRouter translates keystrokes into player commands.  It is attached to a KeySource on mount and must be
// detached on teardown.
type KeyboardRouter struct {
	controller  *Controller
	fullscreen  *FullscreenCoordinator
	speedMenu   *SpeedMenu
	skipSeconds float64

	remove func()
}

// NewKeyboardRouter creates a router.  skipSeconds <= 0 defaults to 10.
func NewKeyboardRouter(controller *Controller, fullscreen *FullscreenCoordinator, speedMenu *SpeedMenu, skipSeconds float64) *KeyboardRouter {
	if skipSeconds <= 0 {
		skipSeconds = 10
	}
	return &KeyboardRouter{
		controller:  controller,
		fullscreen:  fullscreen,
		speedMenu:   speedMenu,
		skipSeconds: skipSeconds,
	}
}

// Attach registers the router with the key source, replacing any earlier registration
func (r *KeyboardRouter) Attach(src KeySource) {
	r.Detach()
	r.remove = src.AddKeyListener(r.HandleKey)
	log.Debug("Keyboard shortcuts attached")
}

// Detach removes the registration.  Safe to call when not attached.
func (r *KeyboardRouter) Detach() {
	if r.remove == nil {
		return
	}
	r.remove()
	r.remove = nil
	log.Debug("Keyboard shortcuts detached")
}

// Attached reports whether the router is currently registered
func (r *KeyboardRouter) Attached() bool {
	return r.remove != nil
}

// HandleKey runs the command bound to the key.  Keys typed into a text field are never treated as shortcuts.
func (r *KeyboardRouter) HandleKey(ev KeyEvent) bool {
	if ev.Target == TargetTextInput {
		return false
	}

	if r.speedMenu != nil && r.speedMenu.Open() {
		if r.speedMenu.HandleKey(ev.Key) {
			return true
		}
	}

	action, ok := ShortcutForKey(ev.Key)
	if !ok {
		return false
	}

	log.Trace("Keyboard shortcut", "key", ev.Key, "action", action)
	switch action {
	case ShortcutTogglePlay:
		r.controller.Toggle()
	case ShortcutSkipBack:
		r.controller.Skip(-r.skipSeconds)
	case ShortcutSkipForward:
		r.controller.Skip(r.skipSeconds)
	case ShortcutToggleFullscreen:
		if r.fullscreen == nil {
			return false
		}
		r.fullscreen.Toggle()
	case ShortcutToggleMute:
		r.controller.ToggleMute()
	case ShortcutVolumeUp:
		r.controller.SetVolume(r.controller.State().EffectiveVolume() + volumeStep)
	case ShortcutVolumeDown:
		r.controller.SetVolume(r.controller.State().EffectiveVolume() - volumeStep)
	case ShortcutToggleSpeedMenu:
		if r.speedMenu == nil {
			return false
		}
		r.speedMenu.Toggle()
	}
	return true
}
