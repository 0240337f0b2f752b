package playback

import "github.com/samber/lo"

// SpeedOption is one row of the speed popover
type SpeedOption struct {
	Speed  float64
	Label  string
	Active bool
}

// SpeedMenu is the transient popover used to pick a playback multiplier.  Its open flag lives in the controller
// state so the view renders from a single snapshot.
type SpeedMenu struct {
	controller *Controller
	cursor     int
}

func NewSpeedMenu(controller *Controller) *SpeedMenu {
	return &SpeedMenu{controller: controller}
}

// Open reports whether the popover is shown
func (m *SpeedMenu) Open() bool {
	return m.controller.State().SpeedMenuOpen
}

// Show opens the popover with the cursor on the active speed
func (m *SpeedMenu) Show() {
	if m.Open() {
		return
	}
	m.cursor = lo.IndexOf(Speeds, m.controller.State().PlaybackSpeed)
	if m.cursor < 0 {
		m.cursor = lo.IndexOf(Speeds, 1.0)
	}
	m.controller.setSpeedMenuOpen(true)
}

// Close hides the popover
func (m *SpeedMenu) Close() {
	if m.Open() {
		m.controller.setSpeedMenuOpen(false)
	}
}

// Toggle opens or closes the popover
func (m *SpeedMenu) Toggle() {
	if m.Open() {
		m.Close()
	} else {
		m.Show()
	}
}

// Select applies a speed and closes the popover.  With no source the controller ignores the speed.
func (m *SpeedMenu) Select(speed float64) {
	m.controller.SetSpeed(speed)
	m.Close()
}

// Cursor is the index of the highlighted option
func (m *SpeedMenu) Cursor() int {
	return m.cursor
}

// Options lists the supported speeds with the active one marked
func (m *SpeedMenu) Options() []SpeedOption {
	active := m.controller.State().PlaybackSpeed
	return lo.Map(Speeds, func(speed float64, _ int) SpeedOption {
		return SpeedOption{Speed: speed, Label: FormatSpeed(speed), Active: speed == active}
	})
}

// HandleKey navigates the open popover.  Returns true when the key was consumed.
func (m *SpeedMenu) HandleKey(key string) bool {
	switch key {
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down":
		if m.cursor < len(Speeds)-1 {
			m.cursor++
		}
	case "enter":
		m.Select(Speeds[m.cursor])
	case "esc", "s":
		m.Close()
	default:
		return false
	}
	return true
}
