package derived

import (
	"project-tracker/internal/config"
	"project-tracker/internal/models"
	"project-tracker/internal/validation"
)

// Highlight is the row state shown in the list.
type Highlight string

const (
	HighlightNone      Highlight = ""
	HighlightDelayed   Highlight = "delayed"
	HighlightLateStart Highlight = "late-start"
	HighlightUrgent    Highlight = "urgent"
	HighlightDone      Highlight = "done"
)

// RowHighlight picks the strongest state a task qualifies for:
// delayed, then late start, then high priority pending, then done.
func RowHighlight(t models.Task, today string) Highlight {
	switch {
	case validation.IsOverdue(t, today):
		return HighlightDelayed
	case validation.ShouldHaveStarted(t, today):
		return HighlightLateStart
	case isUrgent(t):
		return HighlightUrgent
	case t.Status == models.StatusDone:
		return HighlightDone
	}
	return HighlightNone
}

// Badge is the status pill of a task.
type Badge struct {
	Status models.TaskStatus `json:"status"`
	Label  string            `json:"label"`
	Urgent bool              `json:"urgent,omitempty"`
}

// StatusBadge derives the badge with the overdue rule applied.
func StatusBadge(p config.Palette, t models.Task, today string) Badge {
	s := validation.EffectiveStatus(t, today)
	b := Badge{Status: s, Label: p.StatusLabel(s)}
	if s == models.StatusTodo && t.Priority == models.PriorityHigh {
		b.Urgent = true
		if p.UrgentLabel != "" {
			b.Label = p.UrgentLabel
		}
	}
	return b
}
