package models

import (
	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/playback"
	"github.com/PizzaHomicide/lectern/internal/service"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/lectern/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Dependencies are the services the app model drives
type Dependencies struct {
	Config  *config.Config
	Lessons *service.LessonService
	Player  *playback.Player
}

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	activeView    View  // Track the current active 'main view'
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	// Models used for various views
	loadingModel    *LoadingModel
	lessonListModel *LessonListModel
	playerModel     *PlayerModel
	helpModel       *HelpModel

	lessons *service.LessonService
	player  *playback.Player
	keys    *keyDispatcher
}

// NewAppModel creates a new instance of the main application model
func NewAppModel(deps Dependencies) AppModel {
	return AppModel{
		activeView:  ViewLoading,
		activeModal: ModalNone,
		loadingModel: NewLoadingModel("Loading course...").
			WithTitle("Lectern").
			WithContextInfo(deps.Config.LMS.Endpoint),
		lessonListModel: NewLessonListModel(deps.Lessons),
		playerModel:     NewPlayerModel(deps.Player, deps.Lessons),
		helpModel:       NewHelpModel(ViewLoading),
		lessons:         deps.Lessons,
		player:          deps.Player,
		keys:            newKeyDispatcher(),
	}
}

// Init mounts the player and starts loading the course.  bubbletea calls it on the event loop goroutine, which is
// the goroutine every player callback is posted to.
func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising Lectern TUI")
	m.player.Mount(m.keys)
	return tea.Batch(m.loadingModel.Init(), m.lessonListModel.Init())
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DispatchMsg:
		if msg.Fn != nil {
			msg.Fn()
		}
		return m, nil

	case HandledMsg:
		log.Trace("Input handled", "source", msg.Source)
		return m, nil

	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextGlobal) {
		case kb.ActionQuit:
			log.Info("Quit command received.  Shutting down...")
			m.player.Unmount()
			return m, tea.Quit
		case kb.ActionToggleHelp:
			log.Debug("Help requested", "active_view", m.activeView)
			// Disable/toggle modal if one already active
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
			m.helpModel = NewHelpModel(m.activeView)
			m.helpModel.Resize(m.width, m.height)
			m.activeModal = ModalHelp
			return m, nil
		case kb.ActionBack:
			// Handle closing modal when esc is pressed if any is active
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
		}

		if m.activeModal == ModalHelp {
			return m.updateHelpModal(msg)
		}
		if m.activeView == ViewCourse {
			return m.handleCourseKey(msg)
		}
		return m, nil

	case tea.MouseMsg:
		if m.activeModal == ModalHelp {
			return m.updateHelpModal(msg)
		}
		if msg.Action == tea.MouseActionMotion {
			m.player.PointerMoved()
		}
		return m, nil

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		// Propagate new window size to all views so they are aware and can render correctly
		listWidth, playerWidth, paneHeight := m.paneSizes()
		m.loadingModel.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)
		// Panes pad their content by one column either side
		m.lessonListModel.Resize(listWidth-2, paneHeight)
		m.playerModel.Resize(playerWidth-2, paneHeight)
		return m, nil

	case spinner.TickMsg:
		// Each spinner ignores ticks addressed to the other
		var loadingCmd tea.Cmd
		if m.activeView == ViewLoading {
			_, loadingCmd = m.loadingModel.Update(msg)
		}
		_, listCmd := m.lessonListModel.Update(msg)
		return m, tea.Batch(loadingCmd, listCmd)

	case CourseLoadedMsg:
		if m.activeView == ViewLoading {
			log.Info("Course ready", "elapsed", m.loadingModel.GetElapsedTime())
			m.activeView = ViewCourse
		}
		return m.updateLessonList(msg)

	case CourseErrorMsg:
		m.activeView = ViewCourse
		return m.updateLessonList(msg)

	case LessonFetchedMsg:
		if !m.lessonListModel.Accept(msg.Lesson) {
			log.Debug("Discarding superseded lesson fetch", "lesson_id", msg.Lesson.ID)
			return m, nil
		}
		m.player.SelectLesson(msg.Lesson)
		return m, nil

	case LessonFetchErrorMsg:
		return m.updateLessonList(msg)
	}

	return m, nil
}

// handleCourseKey offers the key to the player's shortcut router first.  Keys typed into the search box are tagged
// as text input so the router leaves them alone.
func (m AppModel) handleCourseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := playback.TargetDocument
	if m.lessonListModel.SearchFocused() {
		target = playback.TargetTextInput
	}
	if m.keys.dispatch(playback.KeyEvent{Key: msg.String(), Target: target}) {
		return m, nil
	}
	return m.updateLessonList(msg)
}

func (m AppModel) View() string {
	// If there is an active modal it takes precedence
	if m.activeModal == ModalHelp {
		return m.helpModel.View()
	}

	switch m.activeView {
	case ViewLoading:
		return m.loadingModel.View()
	case ViewCourse:
		return m.courseView()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}

func (m AppModel) courseView() string {
	listWidth, playerWidth, paneHeight := m.paneSizes()

	header := styles.Header(m.width, "Lectern")
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Pane(listWidth, paneHeight, m.lessonListModel.View(), m.lessonListModel.SearchFocused()),
		styles.Pane(playerWidth, paneHeight, m.playerModel.View(), !m.lessonListModel.SearchFocused()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, panes, components.KeyBindingsBar(m.width, m.footerBindings()))
}

func (m AppModel) footerBindings() []components.KeyBinding {
	if m.lessonListModel.SearchFocused() {
		return []components.KeyBinding{
			{Key: "enter", Desc: "Apply search"},
			{Key: "esc", Desc: "Clear search"},
		}
	}
	if m.player.State().SpeedMenuOpen {
		return []components.KeyBinding{
			{Key: "↑/↓", Desc: "Choose speed"},
			{Key: "enter", Desc: "Apply"},
			{Key: "esc", Desc: "Close"},
		}
	}
	return []components.KeyBinding{
		{Key: "enter", Desc: "Open lesson"},
		{Key: "space", Desc: "Play/pause"},
		{Key: "←/→", Desc: "Skip"},
		{Key: "f", Desc: "Fullscreen"},
		{Key: "s", Desc: "Speed"},
		{Key: "/", Desc: "Search"},
		{Key: "ctrl+h", Desc: "Help"},
	}
}

// paneSizes splits the window between the lesson list and the player, leaving room for borders, header and footer
func (m AppModel) paneSizes() (listWidth, playerWidth, height int) {
	listWidth = max(m.width*2/5-4, 20)
	playerWidth = max(m.width-listWidth-8, 20)
	height = max(m.height-6, 5)
	return listWidth, playerWidth, height
}

// updateLessonList delegates message processing to the lesson list model
func (m AppModel) updateLessonList(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.lessonListModel.Update(msg)
	m.lessonListModel = model.(*LessonListModel)
	return m, cmd
}

func (m AppModel) updateHelpModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.helpModel.Update(msg)
	m.helpModel = model.(*HelpModel)
	return m, cmd
}
