package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/PizzaHomicide/lectern/internal/playback"
	"github.com/PizzaHomicide/lectern/internal/service"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/styles"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var volumeIcons = map[playback.VolumeIcon]string{
	playback.VolumeMuted: "🔇",
	playback.VolumeLow:   "🔉",
	playback.VolumeHigh:  "🔊",
}

// PlayerModel renders the player pane from the controller's state snapshot.  It never mutates player state; keys
// reach the player through its shortcut router.
type PlayerModel struct {
	player        *playback.Player
	lessons       *service.LessonService
	progress      progress.Model
	width, height int
}

// NewPlayerModel creates the player pane
func NewPlayerModel(player *playback.Player, lessons *service.LessonService) *PlayerModel {
	return &PlayerModel{
		player:   player,
		lessons:  lessons,
		progress: progress.New(progress.WithSolidFill(string(styles.Accent)), progress.WithoutPercentage()),
	}
}

func (m *PlayerModel) ViewType() View {
	return ViewCourse
}

func (m *PlayerModel) Init() tea.Cmd {
	return nil
}

// Update has nothing to do.  The view is a pure function of player state.
func (m *PlayerModel) Update(tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// Resize updates the pane dimensions
func (m *PlayerModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.progress.Width = max(width-4, 10)
}

// View renders the player pane
func (m *PlayerModel) View() string {
	state := m.player.State()

	var b strings.Builder
	title := state.LessonTitle
	if title == "" {
		title = "No lesson selected"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(util.TruncateString(title, m.width)))
	b.WriteString("\n")

	switch state.Status {
	case playback.StatusEmpty:
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("Select a lesson to start watching"))
		return b.String()
	case playback.StatusMissingSource:
		b.WriteString("\n")
		b.WriteString(styles.Error.Render("This lesson has no video"))
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("Pick another lesson from the list"))
		return b.String()
	}

	b.WriteString(m.renderSource(state.Source))
	b.WriteString("\n\n")

	if state.Status == playback.StatusLoading {
		b.WriteString(styles.Muted.Render("Loading video..."))
		b.WriteString("\n")
	}

	if state.ControlsVisible {
		b.WriteString(m.renderControls(state))
	} else {
		b.WriteString(styles.Muted.Render("Move the mouse over the terminal to show controls"))
	}

	if state.Ended {
		b.WriteString("\n\n")
		b.WriteString(m.renderEnded(state))
	}

	if state.SpeedMenuOpen {
		b.WriteString("\n\n")
		b.WriteString(m.renderSpeedMenu())
	}
	return b.String()
}

func (m *PlayerModel) renderSource(src playback.Source) string {
	if src.Kind == playback.SourceExternal {
		return styles.Url.Render(util.TruncateString(src.URI, m.width))
	}
	return styles.Muted.Render(fmt.Sprintf("Embedded video (%s)", src.MimeType))
}

func (m *PlayerModel) renderControls(state playback.State) string {
	playIcon := "▶"
	if state.IsPlaying {
		playIcon = "⏸"
	}

	clock := fmt.Sprintf("%s / %s", util.FormatClock(state.CurrentTime), util.FormatClock(state.Duration))
	volume := fmt.Sprintf("%s %3d%%", volumeIcons[state.Icon()], int(math.Round(state.EffectiveVolume()*100)))

	status := []string{playIcon, clock, volume, playback.FormatSpeed(state.PlaybackSpeed)}
	if state.IsFullscreen {
		status = append(status, "⛶ fullscreen")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.progress.ViewAs(state.Progress()),
		strings.Join(status, "   "),
	)
}

func (m *PlayerModel) renderEnded(state playback.State) string {
	if next, ok := m.lessons.Next(state.LessonID); ok {
		return fmt.Sprintf("Lesson complete.  Press n for %s", util.TruncateString(next.Title, max(m.width-30, 10)))
	}
	return "Lesson complete.  That was the last lesson in the course."
}

func (m *PlayerModel) renderSpeedMenu() string {
	menu := m.player.SpeedMenu
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Playback speed"))
	for i, option := range menu.Options() {
		label := option.Label
		if option.Active {
			label += " ✓"
		}
		b.WriteString("\n")
		if i == menu.Cursor() {
			b.WriteString("> " + styles.Selected.Render(label))
		} else {
			b.WriteString("  " + label)
		}
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Accent).
		Padding(0, 1).
		Render(b.String())
}
