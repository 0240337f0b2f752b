package models

import (
	"github.com/PizzaHomicide/lectern/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

// CourseLoadedMsg is sent when the course outline has been fetched
type CourseLoadedMsg struct{}

// CourseErrorMsg is sent when the course outline could not be fetched
type CourseErrorMsg struct {
	Error error
}

// LessonFetchedMsg carries a complete lesson record ready to be played
type LessonFetchedMsg struct {
	Lesson domain.Lesson
}

// LessonFetchErrorMsg is sent when a lesson record could not be fetched
type LessonFetchErrorMsg struct {
	LessonID string
	Error    error
}

// DispatchMsg runs a callback on the UI goroutine.  It is how player timers and media events reach the model.
type DispatchMsg struct {
	Fn func()
}

// HandledMsg signals that a key press was consumed and nothing further needs to happen
type HandledMsg struct {
	Source string
}

// Handled returns a command reporting the source that consumed an input
func Handled(source string) tea.Cmd {
	return func() tea.Msg {
		return HandledMsg{Source: source}
	}
}
