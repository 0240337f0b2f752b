package keybindings

import (
	"strings"

	"github.com/PizzaHomicide/lectern/internal/playback"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
)

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionToggleHelp Action = "toggle_help"
	ActionBack       Action = "back" // General purpose "go back" or "cancel"

	// Navigation actions
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionPageUp     Action = "page_up"
	ActionPageDown   Action = "page_down"
	ActionMoveTop    Action = "move_top"
	ActionMoveBottom Action = "move_bottom"

	// Lesson list actions
	ActionSelectLesson   Action = "select_lesson"
	ActionNextLesson     Action = "next_lesson"
	ActionPreviousLesson Action = "previous_lesson"
	ActionRefreshCourse  Action = "refresh_course"

	// Search mode actions
	ActionEnableSearch   Action = "enable_search"
	ActionSearchComplete Action = "search_complete"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal     ContextName = "global"
	ContextLessonList ContextName = "lesson_list"
	ContextPlayer     ContextName = "player"
	ContextSearchMode ContextName = "search_mode"
	ContextHelp       ContextName = "help"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal:     globalBindings,
	ContextLessonList: lessonListBindings,
	ContextPlayer:     playerBindings,
	ContextSearchMode: searchModeBindings,
	ContextHelp:       helpBindings,
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// navigationBindings contains general navigation bindings for consistent navigation across the app.  Letter keys are
// left out since the player claims them while the lesson list has focus.
var navigationBindings = []Binding{
	{
		Action: ActionMoveUp,
		KeyMap: KeyMap{
			Primary: "up",
			Help:    "Move cursor up",
		},
	},
	{
		Action: ActionMoveDown,
		KeyMap: KeyMap{
			Primary: "down",
			Help:    "Move cursor down",
		},
	},
	{
		Action: ActionPageUp,
		KeyMap: KeyMap{
			Primary: "pgup",
			Help:    "Move up one page",
		},
	},
	{
		Action: ActionPageDown,
		KeyMap: KeyMap{
			Primary: "pgdown",
			Help:    "Move down one page",
		},
	},
	{
		Action: ActionMoveTop,
		KeyMap: KeyMap{
			Primary: "home",
			Help:    "Move top of view",
		},
	},
	{
		Action: ActionMoveBottom,
		KeyMap: KeyMap{
			Primary: "end",
			Help:    "Move bottom of view",
		},
	},
}

// globalBindings contains key bindings that work across all views
var globalBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary: "ctrl+c",
			Help:    "Quit application",
		},
	},
	{
		Action: ActionToggleHelp,
		KeyMap: KeyMap{
			Primary: "ctrl+h",
			Help:    "Toggle help screen",
		},
	},
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Go back/cancel current action",
		},
	},
}

// helpBindings contains key bindings specific to the help view
var helpBindings = withNavigation([]Binding{})

// lessonListBindings contains key bindings specific to the lesson list
var lessonListBindings = withNavigation([]Binding{
	{
		Action: ActionSelectLesson,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Open the selected lesson",
		},
	},
	{
		Action: ActionNextLesson,
		KeyMap: KeyMap{
			Primary: "n",
			Help:    "Open the next lesson",
		},
	},
	{
		Action: ActionPreviousLesson,
		KeyMap: KeyMap{
			Primary: "p",
			Help:    "Open the previous lesson",
		},
	},
	{
		Action: ActionRefreshCourse,
		KeyMap: KeyMap{
			Primary: "r",
			Help:    "Refresh course outline",
		},
	},
	{
		Action: ActionEnableSearch,
		KeyMap: KeyMap{
			Primary:   "/",
			Secondary: "ctrl+f",
			Help:      "Search lessons",
		},
	},
})

// playerBindings mirrors the player's own shortcut table so help and footers stay in sync with it
var playerBindings = lo.Map(playback.Shortcuts, func(s playback.Shortcut, _ int) Binding {
	km := KeyMap{Primary: s.Keys[0], Help: s.Help}
	if len(s.Keys) > 1 {
		km.Secondary = s.Keys[1]
	}
	return Binding{Action: Action(s.Action), KeyMap: km}
})

// searchModeBindings contains key bindings specific for when search mode is active
var searchModeBindings = []Binding{
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary:   "esc",
			Secondary: "ctrl+f",
			Help:      "Exit search mode and remove the filter",
		},
	},
	{
		Action: ActionSearchComplete,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Apply the search filter and return control to the lesson list",
		},
	},
}

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetBindingByKey returns the action and help text for a given key
func GetBindingByKey(key string, bindings []Binding) (Action, string) {
	for _, binding := range bindings {
		if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
			return binding.Action, binding.KeyMap.Help
		}
	}
	return "", ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		action, _ := GetBindingByKey(keyMsg.String(), bindings)
		return action
	}
	return ""
}

// FormatKeyHelp formats a key binding for display in help text
func FormatKeyHelp(binding Binding) string {
	if binding.KeyMap.Secondary != "" {
		return KeyLabel(binding.KeyMap.Primary) + "/" + KeyLabel(binding.KeyMap.Secondary) + ": " + binding.KeyMap.Help
	}
	return KeyLabel(binding.KeyMap.Primary) + ": " + binding.KeyMap.Help
}

// GetHelpText generates formatted help text for a set of bindings
func GetHelpText(title string, bindings []Binding) string {
	var b strings.Builder
	b.WriteString("## " + title + "\n\n")
	for _, binding := range bindings {
		b.WriteString("* " + FormatKeyHelp(binding) + "\n")
	}
	return b.String()
}

// withNavigation is a helper function to include navigation bindings in other binding sets
func withNavigation(bindings []Binding) []Binding {
	return append(append([]Binding{}, navigationBindings...), bindings...)
}

// KeyLabel is the printable name of a key.  bubbletea reports the space bar as a literal space.
func KeyLabel(key string) string {
	if key == " " {
		return "space"
	}
	return key
}
