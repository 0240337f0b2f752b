package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/lectern/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// slowLoadThreshold is how long a load runs before the elapsed time is shown
const slowLoadThreshold = 3 * time.Second

// LoadingModel displays a loading indicator while the course outline is fetched
type LoadingModel struct {
	width, height int
	title         string // Optional title for the loading box
	message       string // Primary message displayed with the spinner
	contextInfo   string // Optional additional context, e.g. the endpoint being contacted
	spinner       spinner.Model
	startTime     time.Time
	now           func() time.Time
}

// NewLoadingModel creates a new loading model with the required message
func NewLoadingModel(message string) *LoadingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Accent)

	return &LoadingModel{
		message:   message,
		spinner:   s,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// WithTitle adds an optional title to the loading box
func (m *LoadingModel) WithTitle(title string) *LoadingModel {
	m.title = title
	return m
}

// WithContextInfo adds additional context information
func (m *LoadingModel) WithContextInfo(info string) *LoadingModel {
	m.contextInfo = info
	return m
}

// ViewType returns the type of view
func (m *LoadingModel) ViewType() View {
	return ViewLoading
}

// Init starts the spinner
func (m *LoadingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update only advances the spinner
func (m *LoadingModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}
	return m, nil
}

// View renders the loading state
func (m *LoadingModel) View() string {
	// Not too wide, not too narrow
	contentWidth := min(m.width-20, 80)
	if contentWidth < 40 {
		contentWidth = min(m.width-4, 40)
	}

	spinnerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9D86FF")).
		Bold(true).
		PaddingRight(1)
	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true)
	centerStyle := lipgloss.NewStyle().
		Width(contentWidth - 6). // Account for padding
		Align(lipgloss.Center)
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Italic(true).
		Width(contentWidth - 6).
		Align(lipgloss.Center)

	var content strings.Builder
	content.WriteString(centerStyle.Render(spinnerStyle.Render(m.spinner.View()) + " " + messageStyle.Render(m.message)))

	if m.contextInfo != "" {
		content.WriteString("\n\n")
		content.WriteString(infoStyle.Render(m.contextInfo))
	}

	if elapsed := m.GetElapsedTime(); elapsed >= slowLoadThreshold {
		content.WriteString("\n\n")
		content.WriteString(infoStyle.Render(fmt.Sprintf("Still waiting after %s.  Press ctrl+c to quit.", elapsed.Truncate(time.Second))))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#9D86FF")).
		Padding(2, 3).
		Width(contentWidth).
		Render(content.String())

	if m.title == "" {
		return styles.CenteredView(m.width, m.height, box)
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Accent).
		Padding(0, 2).
		Align(lipgloss.Center).
		Width(contentWidth).
		Render(m.title)
	return styles.CenteredView(m.width, m.height, lipgloss.JoinVertical(lipgloss.Center, header, box))
}

// Resize updates the dimensions of the loading model
func (m *LoadingModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// GetElapsedTime returns the time elapsed since loading started
func (m *LoadingModel) GetElapsedTime() time.Duration {
	return m.now().Sub(m.startTime)
}
