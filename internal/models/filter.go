package models

// StatCategory is one of the named stat-card filters.
type StatCategory string

const (
	StatNone        StatCategory = ""
	StatCheckpoints StatCategory = "Checkpoints"
	StatUrgent      StatCategory = "Urgent"
	StatLateStart   StatCategory = "LateStart"
	StatDelayed     StatCategory = "Delayed"
	StatCompleted   StatCategory = "Completed"
)

// ParseStatCategory returns the category for a name, StatNone when unknown.
func ParseStatCategory(s string) StatCategory {
	switch StatCategory(s) {
	case StatCheckpoints, StatUrgent, StatLateStart, StatDelayed, StatCompleted:
		return StatCategory(s)
	}
	return StatNone
}

// TeamAll is the team filter value that passes every task.
const TeamAll = "All"

// FilterState is the UI-owned filter selection.
type FilterState struct {
	Team            string       `json:"team"`
	Project         string       `json:"project"`
	Stat            StatCategory `json:"stat"`
	Query           string       `json:"query"`
	HideCompleted   bool         `json:"hideCompleted"`
	HighlightUrgent bool         `json:"highlightUrgent"`
}

// Preferences are the toggles that survive between sessions.
type Preferences struct {
	HighlightUrgent bool `json:"highlightUrgent"`
	HideCompleted   bool `json:"hideCompleted"`
}

// DefaultPreferences mirror a first visit: both toggles on.
func DefaultPreferences() Preferences {
	return Preferences{HighlightUrgent: true, HideCompleted: true}
}
