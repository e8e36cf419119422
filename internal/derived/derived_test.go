package derived

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-tracker/internal/config"
	"project-tracker/internal/models"
)

const today = "2025-06-01"

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "1", Task: "Chip layout", Team: "晶片", Project: "CKSX", Owner: "Amy", Date: "2025-01-01", Status: models.StatusTodo, Priority: models.PriorityMedium},
		{ID: "2", Task: "Frame review", Team: "機構", Project: "Jamstec", Owner: "Ben", Date: "2025-06-10", Duration: 15, Status: models.StatusTodo, Priority: models.PriorityHigh, IsCheckpoint: true},
		{ID: "3", Task: "Firmware", Team: "軟體", Project: "CKSX", Owner: "Cai", Date: "2025-07-01", Duration: 5, Status: models.StatusInProgress, Priority: models.PriorityHigh, Notes: "needs bench"},
		{ID: "4", Task: "Report", Team: "軟體", Project: "Internal", Owner: "Amy", Date: "2025-05-01", Status: models.StatusDone, Priority: models.PriorityLow},
		{ID: "5", Task: "Leak triage", Team: "流道", Project: "Other", Owner: "Dee", Date: "2025-08-01", Status: models.StatusPending, IssuePool: true},
		{ID: "6", Task: "Sort out", Team: "issue", Owner: "Eve", Status: models.StatusTodo},
	}
}

func ids(tasks []models.Task) []models.TaskID {
	out := []models.TaskID{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func newEngine() *Engine {
	s := config.DefaultSettings()
	return NewEngine(s.Palette, s.Vocabulary.Teams)
}

func TestFilter(t *testing.T) {
	tests := map[string]struct {
		filter models.FilterState
		expIDs []models.TaskID
	}{
		"No filter should return everything.": {
			expIDs: []models.TaskID{"1", "2", "3", "4", "5", "6"},
		},
		"Team filter should match the team.": {
			filter: models.FilterState{Team: "軟體"},
			expIDs: []models.TaskID{"3", "4"},
		},
		"Issue team should include issue pool tasks.": {
			filter: models.FilterState{Team: "Issue"},
			expIDs: []models.TaskID{"5", "6"},
		},
		"Project filter should match the project.": {
			filter: models.FilterState{Team: models.TeamAll, Project: "CKSX"},
			expIDs: []models.TaskID{"1", "3"},
		},
		"Urgent stat should keep high priority unfinished tasks.": {
			filter: models.FilterState{Stat: models.StatUrgent},
			expIDs: []models.TaskID{"2", "3"},
		},
		"Delayed stat should keep overdue tasks.": {
			filter: models.FilterState{Stat: models.StatDelayed},
			expIDs: []models.TaskID{"1"},
		},
		"LateStart stat should keep Todo tasks past their start.": {
			filter: models.FilterState{Stat: models.StatLateStart},
			expIDs: []models.TaskID{"2"},
		},
		"Checkpoints stat should keep checkpoints.": {
			filter: models.FilterState{Stat: models.StatCheckpoints},
			expIDs: []models.TaskID{"2"},
		},
		"Completed stat should keep done tasks.": {
			filter: models.FilterState{Stat: models.StatCompleted},
			expIDs: []models.TaskID{"4"},
		},
		"Free text should search several fields.": {
			filter: models.FilterState{Query: "amy"},
			expIDs: []models.TaskID{"1", "4"},
		},
		"Free text should search notes.": {
			filter: models.FilterState{Query: "BENCH"},
			expIDs: []models.TaskID{"3"},
		},
		"Prefix search should only look at that field.": {
			filter: models.FilterState{Query: "task:re"},
			expIDs: []models.TaskID{"2", "3", "4"},
		},
		"Prefix pic should search owners.": {
			filter: models.FilterState{Query: "PIC:cai"},
			expIDs: []models.TaskID{"3"},
		},
		"Hide completed should drop done tasks.": {
			filter: models.FilterState{Team: "軟體", HideCompleted: true},
			expIDs: []models.TaskID{"3"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := newEngine().Filter(sampleTasks(), test.filter, today)
			assert.Equal(t, test.expIDs, ids(got))
		})
	}
}

func TestFilterOrderIndependence(t *testing.T) {
	tasks := sampleTasks()
	for _, team := range []string{models.TeamAll, "軟體", "issue", "機構"} {
		for _, q := range []string{"", "amy", "team:軟", "re"} {
			a := []models.Task{}
			for _, tk := range tasks {
				if p := TeamPredicate(team); p == nil || p(tk) {
					a = append(a, tk)
				}
			}
			a2 := []models.Task{}
			for _, tk := range a {
				if p := SearchPredicate(q); p == nil || p(tk) {
					a2 = append(a2, tk)
				}
			}

			b := []models.Task{}
			for _, tk := range tasks {
				if p := SearchPredicate(q); p == nil || p(tk) {
					b = append(b, tk)
				}
			}
			b2 := []models.Task{}
			for _, tk := range b {
				if p := TeamPredicate(team); p == nil || p(tk) {
					b2 = append(b2, tk)
				}
			}

			assert.Equal(t, ids(a2), ids(b2), "team=%s query=%s", team, q)
		}
	}
}

func TestComputeStats(t *testing.T) {
	tasks := sampleTasks()

	all := ComputeStats(tasks, models.TeamAll, today)
	assert.Equal(t, Stats{Total: 6, Checkpoints: 1, PendingHigh: 2, Completed: 1, LateStart: 1, Delayed: 1}, all)

	team := ComputeStats(tasks, "軟體", today)
	assert.Equal(t, Stats{Total: 2, PendingHigh: 1, Completed: 1}, team)

	assert.Equal(t, Stats{}, ComputeStats(tasks, models.TeamAll, ""))
}

func TestStatsIgnoreStatFilter(t *testing.T) {
	e := newEngine()
	a := e.Compute(Input{Tasks: sampleTasks(), Today: today})
	b := e.Compute(Input{Tasks: sampleTasks(), Today: today, Filter: models.FilterState{Stat: models.StatCompleted, Query: "x"}})
	assert.Equal(t, a.Stats, b.Stats)
}

func TestDelayedExample(t *testing.T) {
	tasks := []models.Task{{ID: "1", Date: "2025-01-01", Status: models.StatusTodo}}

	st := newEngine().Compute(Input{Tasks: tasks, Today: today, Filter: models.FilterState{Stat: models.StatDelayed}})
	require.Len(t, st.Visible, 1)
	assert.Equal(t, 1, st.Stats.Delayed)
	assert.Equal(t, HighlightDelayed, RowHighlight(tasks[0], today))
}

func TestChart(t *testing.T) {
	e := newEngine()

	got := e.Chart(sampleTasks(), nil)
	assert.Equal(t, []ChartEntry{
		{Name: "晶片", Value: 1, Color: "#3b82f6"},
		{Name: "機構", Value: 1, Color: "#8b5cf6"},
		{Name: "軟體", Value: 2, Color: "#10b981"},
		{Name: "流道", Value: 1, Color: "#06b6d4"},
		{Name: "issue", Value: 1, Color: "#ef4444"},
	}, got)

	got = e.Chart([]models.Task{{Team: "Robotics"}}, []string{"Robotics", "Empty"})
	assert.Equal(t, []ChartEntry{{Name: "Robotics", Value: 1, Color: "#64748b"}}, got)
}

func TestAlerts(t *testing.T) {
	got := Alerts(sampleTasks(), today, "timeout - using local backup (2025-05-31T10:00:00Z)")
	require.Len(t, got, 2)
	assert.Equal(t, AlertDanger, got[0].Type)
	assert.Equal(t, "1 tasks are overdue", got[0].Message)
	assert.Equal(t, AlertWarning, got[1].Type)

	assert.Empty(t, Alerts(nil, today, ""))
}

func TestToggleStat(t *testing.T) {
	s := ToggleStat(models.StatNone, models.StatUrgent)
	assert.Equal(t, models.StatUrgent, s)
	s = ToggleStat(s, models.StatDelayed)
	assert.Equal(t, models.StatDelayed, s)
	s = ToggleStat(s, models.StatDelayed)
	assert.Equal(t, models.StatNone, s)
}

func TestRowHighlightPriority(t *testing.T) {
	tests := map[string]struct {
		task models.Task
		exp  Highlight
	}{
		"Overdue and urgent should be delayed.": {
			task: models.Task{Date: "2025-05-01", Status: models.StatusTodo, Priority: models.PriorityHigh},
			exp:  HighlightDelayed,
		},
		"Late start and urgent should be late start.": {
			task: models.Task{Date: "2025-06-05", Duration: 10, Status: models.StatusTodo, Priority: models.PriorityHigh},
			exp:  HighlightLateStart,
		},
		"Urgent but not started yet should be urgent.": {
			task: models.Task{Date: "2025-09-05", Duration: 1, Status: models.StatusTodo, Priority: models.PriorityHigh},
			exp:  HighlightUrgent,
		},
		"Done should be dimmed.": {
			task: models.Task{Date: "2025-05-01", Status: models.StatusDone, Priority: models.PriorityHigh},
			exp:  HighlightDone,
		},
		"Nothing special should have no highlight.": {
			task: models.Task{Date: "2025-09-05", Status: models.StatusInProgress},
			exp:  HighlightNone,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, RowHighlight(test.task, today))
		})
	}
}

func TestComputeHighlightsFollowToggle(t *testing.T) {
	e := newEngine()
	off := e.Compute(Input{Tasks: sampleTasks(), Today: today})
	assert.Empty(t, off.Highlights)

	on := e.Compute(Input{Tasks: sampleTasks(), Today: today, Filter: models.FilterState{HighlightUrgent: true}})
	assert.Equal(t, HighlightDelayed, on.Highlights["1"])
	assert.Equal(t, HighlightLateStart, on.Highlights["2"])
	assert.Equal(t, HighlightUrgent, on.Highlights["3"])
	assert.Equal(t, HighlightDone, on.Highlights["4"])
}

func TestStatusBadge(t *testing.T) {
	p := config.DefaultSettings().Palette

	b := StatusBadge(p, models.Task{Date: "2025-01-01", Status: models.StatusInProgress}, today)
	assert.Equal(t, Badge{Status: models.StatusDelayed, Label: "Delayed"}, b)

	b = StatusBadge(p, models.Task{Date: "2025-09-01", Status: models.StatusTodo, Priority: models.PriorityHigh}, today)
	assert.Equal(t, Badge{Status: models.StatusTodo, Label: "Urgent", Urgent: true}, b)

	b = StatusBadge(p, models.Task{Date: "2025-01-01", Status: models.StatusClosed}, today)
	assert.Equal(t, Badge{Status: models.StatusClosed, Label: "Won't do"}, b)
}
