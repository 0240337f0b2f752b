package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/service"
	kb "github.com/PizzaHomicide/lectern/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/styles"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

const (
	courseLoadTimeout  = 30 * time.Second
	lessonFetchTimeout = 15 * time.Second
)

// LessonListModel shows the course outline and turns a selection into a fetched lesson
type LessonListModel struct {
	lessons       *service.LessonService
	width, height int
	loading       bool
	loadError     error
	fetchError    error
	spinner       spinner.Model
	cursor        int
	offset        int
	visible       []domain.Lesson // Lessons after applying the search filter

	searchMode  bool
	searchInput textinput.Model

	activeID  string // Lesson currently handed to the player
	pendingID string // Lesson being fetched.  Only its result is accepted.
}

// NewLessonListModel creates a lesson list backed by the lesson service
func NewLessonListModel(lessons *service.LessonService) *LessonListModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Accent)

	ti := textinput.New()
	ti.Placeholder = "Search lessons..."
	ti.CharLimit = 100
	ti.Width = 30

	return &LessonListModel{
		lessons:     lessons,
		loading:     true,
		spinner:     s,
		searchInput: ti,
	}
}

func (m *LessonListModel) ViewType() View {
	return ViewCourse
}

// Init starts fetching the course outline
func (m *LessonListModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCourseCmd())
}

func (m *LessonListModel) fetchCourseCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), courseLoadTimeout)
		defer cancel()

		if err := m.lessons.LoadCourse(ctx); err != nil {
			log.Error("Failed to load course", "error", err)
			return CourseErrorMsg{Error: err}
		}
		return CourseLoadedMsg{}
	}
}

func (m *LessonListModel) fetchLessonCmd(lessonID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lessonFetchTimeout)
		defer cancel()

		lesson, err := m.lessons.Fetch(ctx, lessonID)
		if err != nil {
			log.Error("Failed to fetch lesson", "lesson_id", lessonID, "error", err)
			return LessonFetchErrorMsg{LessonID: lessonID, Error: err}
		}
		return LessonFetchedMsg{Lesson: lesson}
	}
}

// Update handles messages and updates the model
func (m *LessonListModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searchMode {
			return m, m.handleSearchModeKeyMsg(msg)
		}
		return m, m.handleKeyPress(msg)

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case CourseLoadedMsg:
		m.loading = false
		m.loadError = nil
		m.applySearch()
		log.Info("Course outline loaded", "lessons", len(m.visible))

	case CourseErrorMsg:
		m.loading = false
		m.loadError = msg.Error

	case LessonFetchErrorMsg:
		if msg.LessonID == m.pendingID {
			m.pendingID = ""
			m.fetchError = msg.Error
		}
	}
	return m, nil
}

func (m *LessonListModel) handleSearchModeKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextSearchMode) {
	case kb.ActionBack:
		// Cancels search, clearing the filter
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.applySearch()
		return Handled("search:exit")
	case kb.ActionSearchComplete:
		m.searchMode = false
		m.searchInput.Blur()
		return Handled("search:apply")
	}

	// Let the text input model handle other keys and filter as we type
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applySearch()
	return cmd
}

func (m *LessonListModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextLessonList) {
	case kb.ActionMoveUp:
		m.moveCursor(-1)
		return Handled("cursor_move:up")
	case kb.ActionMoveDown:
		m.moveCursor(1)
		return Handled("cursor_move:down")
	case kb.ActionPageUp:
		m.moveCursor(-m.pageSize())
		return Handled("cursor_move:page_up")
	case kb.ActionPageDown:
		m.moveCursor(m.pageSize())
		return Handled("cursor_move:page_down")
	case kb.ActionMoveTop:
		m.moveCursor(-len(m.visible))
		return Handled("cursor_move:top")
	case kb.ActionMoveBottom:
		m.moveCursor(len(m.visible))
		return Handled("cursor_move:bottom")
	case kb.ActionSelectLesson:
		lesson := m.selectedLesson()
		if lesson == nil {
			return Handled("select_lesson:none_selected")
		}
		return m.open(*lesson)
	case kb.ActionNextLesson:
		return m.openRelative(m.lessons.Next, "next")
	case kb.ActionPreviousLesson:
		return m.openRelative(m.lessons.Previous, "previous")
	case kb.ActionRefreshCourse:
		if m.loading {
			return Handled("refresh:in_progress")
		}
		m.loading = true
		m.loadError = nil
		return tea.Batch(m.spinner.Tick, m.fetchCourseCmd())
	case kb.ActionEnableSearch:
		m.searchMode = true
		return tea.Batch(m.searchInput.Focus(), Handled("search:enable"))
	}
	return nil
}

func (m *LessonListModel) openRelative(step func(string) (domain.Lesson, bool), direction string) tea.Cmd {
	if m.activeID == "" {
		return Handled(direction + "_lesson:none_active")
	}
	lesson, ok := step(m.activeID)
	if !ok {
		log.Debug("No lesson in that direction", "direction", direction, "lesson_id", m.activeID)
		return Handled(direction + "_lesson:end_of_course")
	}
	return m.open(lesson)
}

// open starts fetching a lesson.  Any earlier fetch still in flight is superseded.
func (m *LessonListModel) open(lesson domain.Lesson) tea.Cmd {
	log.Info("Opening lesson", "lesson_id", lesson.ID, "title", lesson.Title)
	m.pendingID = lesson.ID
	m.fetchError = nil
	return m.fetchLessonCmd(lesson.ID)
}

// Accept records a fetched lesson as the active one.  It returns false for a result that was superseded by a later
// selection, which must not reach the player.
func (m *LessonListModel) Accept(lesson domain.Lesson) bool {
	if lesson.ID != m.pendingID {
		return false
	}
	m.pendingID = ""
	m.activeID = lesson.ID
	if _, idx, ok := lo.FindIndexOf(m.visible, func(l domain.Lesson) bool { return l.ID == lesson.ID }); ok {
		m.cursor = idx
		m.clampOffset()
	}
	return true
}

// SearchFocused reports whether keys are being typed into the search box
func (m *LessonListModel) SearchFocused() bool {
	return m.searchMode
}

// ActiveLessonID is the lesson last handed to the player
func (m *LessonListModel) ActiveLessonID() string {
	return m.activeID
}

func (m *LessonListModel) applySearch() {
	m.visible = m.lessons.Search(strings.TrimSpace(m.searchInput.Value()))
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
	m.clampOffset()
}

func (m *LessonListModel) selectedLesson() *domain.Lesson {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return &m.visible[m.cursor]
}

func (m *LessonListModel) moveCursor(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor = lo.Clamp(m.cursor+delta, 0, len(m.visible)-1)
	m.clampOffset()
}

// pageSize is the number of lesson rows that fit in the list
func (m *LessonListModel) pageSize() int {
	return max(m.height-6, 1)
}

func (m *LessonListModel) clampOffset() {
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	m.offset = lo.Clamp(m.offset, 0, max(len(m.visible)-page, 0))
}

// Resize updates the model with new dimensions
func (m *LessonListModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = max(width-14, 10)
	m.clampOffset()
}

// View renders the lesson list
func (m *LessonListModel) View() string {
	var b strings.Builder

	title := "Lessons"
	if course := m.lessons.Course(); course != nil && course.Title != "" {
		title = course.Title
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(util.TruncateString(title, m.width)))
	b.WriteString("\n")

	if m.searchMode || m.searchInput.Value() != "" {
		b.WriteString(styles.SearchStatus.Render("Search: " + m.searchInput.View()))
	}
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading course...")
		return b.String()
	case m.loadError != nil:
		b.WriteString(styles.Error.Render(loadErrorText(m.loadError)))
		b.WriteString("\n\n")
		b.WriteString(styles.Muted.Render("Press r to retry"))
		return b.String()
	case len(m.visible) == 0:
		b.WriteString(styles.Muted.Render("No lessons match"))
		return b.String()
	}

	end := min(m.offset+m.pageSize(), len(m.visible))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i, m.visible[i]))
		b.WriteString("\n")
	}

	if m.fetchError != nil {
		b.WriteString(styles.Error.Render(util.TruncateString("Unable to open lesson: "+m.fetchError.Error(), m.width)))
	}
	return b.String()
}

func (m *LessonListModel) renderRow(i int, lesson domain.Lesson) string {
	marker := "  "
	switch lesson.ID {
	case m.pendingID:
		marker = m.spinner.View() + " "
	case m.activeID:
		marker = "▶ "
	}

	duration := ""
	if lesson.Duration > 0 {
		duration = util.FormatClock(lesson.Duration)
	}
	titleWidth := max(m.width-lipgloss.Width(marker)-lipgloss.Width(duration)-2, 4)
	text := fmt.Sprintf("%s%-*s %s", marker, titleWidth, util.TruncateString(lesson.Title, titleWidth), duration)

	if i == m.cursor {
		return styles.Selected.Render(text)
	}
	return text
}

func loadErrorText(err error) string {
	if errors.Is(err, service.ErrNoCourse) {
		return "No course configured.  Set lms.course_id in the config file."
	}
	return "Unable to load course: " + err.Error()
}
