package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-tracker/internal/config"
	"project-tracker/internal/models"
	"project-tracker/internal/normalize"
)

func newConverter(t *testing.T) *Converter {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	return New(normalize.New(loc, nil), config.DefaultSettings().Converter)
}

func TestMapStatus(t *testing.T) {
	tests := map[string]models.TaskStatus{
		"Done":        models.StatusDone,
		"closed":      models.StatusDone,
		"REPORT":      models.StatusDone,
		"Completed":   models.StatusDone,
		"in-progress": models.StatusInProgress,
		"In Progress": models.StatusInProgress,
		"ongoing":     models.StatusInProgress,
		"Active":      models.StatusInProgress,
		"InProgress":  models.StatusInProgress,
		"":            models.StatusTodo,
		"whatever":    models.StatusTodo,
	}
	for in, exp := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, exp, MapStatus(in))
		})
	}
}

func TestMapPriority(t *testing.T) {
	tests := map[string]models.TaskPriority{
		"P0":       models.PriorityHigh,
		"p1":       models.PriorityHigh,
		"Critical": models.PriorityHigh,
		"urgent":   models.PriorityHigh,
		"High":     models.PriorityHigh,
		"p3":       models.PriorityLow,
		"P4":       models.PriorityLow,
		"low":      models.PriorityLow,
		"p2":       models.PriorityMedium,
		"":         models.PriorityMedium,
	}
	for in, exp := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, exp, MapPriority(in))
		})
	}
}

func TestConvertExternalToTask(t *testing.T) {
	tests := map[string]struct {
		rows      []map[string]any
		expTasks  []models.Task
		expErrors int
		expStats  Stats
	}{
		"A full row should be converted.": {
			rows: []map[string]any{{
				"ID": 12.0, "Task": "Spec review", "Team": "軟體", "Project": "CKSX",
				"PIC": "Amy", "Start Date": "2025-01-01", "End Date": "2025-01-05",
				"Status": "ongoing", "Priority": "P2", "Dependencies": "10,11",
				"Note": "n", "Verification": "v", "Purpose": "p",
			}},
			expTasks: []models.Task{{
				ID: "12", Task: "Spec review", Team: "軟體", Project: "CKSX", Category: "Unassigned",
				Owner: "Amy", StartDate: "2025-01-01", Date: "2025-01-05", Duration: 4,
				Status: models.StatusInProgress, Priority: models.PriorityMedium,
				IsCheckpoint: true, Dependency: "10,11", Notes: "n", Verification: "v", Purpose: "p",
			}},
			expStats: Stats{Total: 1, Converted: 1},
		},

		"Missing start should fall back to the end date and defaults should apply.": {
			rows: []map[string]any{{"ID": "7", "Task": "Wiring", "End Date": 45658.0}},
			expTasks: []models.Task{{
				ID: "7", Task: "Wiring", Team: "Other", Category: "Unassigned", Owner: "Unassigned",
				StartDate: "2025-01-01", Date: "2025-01-01", Duration: 0,
				Status: models.StatusTodo, Priority: models.PriorityMedium,
			}},
			expStats: Stats{Total: 1, Converted: 1},
		},

		"Rows missing ID or Task should be skipped and reported.": {
			rows: []map[string]any{
				{"Task": "No id"},
				{"ID": 2.0},
				{"ID": 3.0, "Task": "Ok", "Priority": "P0"},
			},
			expTasks: []models.Task{{
				ID: "3", Task: "Ok", Team: "Other", Category: "Unassigned", Owner: "Unassigned",
				Status: models.StatusTodo, Priority: models.PriorityHigh, IsCheckpoint: true,
			}},
			expErrors: 2,
			expStats:  Stats{Total: 3, Converted: 1, Failed: 2},
		},

		"Duplicate ids should keep the first row.": {
			rows: []map[string]any{
				{"ID": 1.0, "Task": "First"},
				{"ID": "1", "Task": "Second"},
			},
			expTasks: []models.Task{{
				ID: "1", Task: "First", Team: "Other", Category: "Unassigned", Owner: "Unassigned",
				Status: models.StatusTodo, Priority: models.PriorityMedium,
			}},
			expErrors: 1,
			expStats:  Stats{Total: 2, Converted: 1, Failed: 1},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			c := newConverter(t)

			res := c.ConvertExternalToTask(test.rows)

			assert.Equal(test.expTasks, res.Data)
			assert.Len(res.Errors, test.expErrors)
			assert.Equal(test.expStats, res.Stats)
			assert.Equal(test.expErrors == 0, res.Success)
		})
	}
}

func TestConvertExternalEmptyBatch(t *testing.T) {
	res := newConverter(t).ConvertExternalToTask(nil)
	assert.True(t, res.Success)
	assert.Empty(t, res.Data)
	assert.Equal(t, Stats{}, res.Stats)
}

func TestCheckpointKeywords(t *testing.T) {
	c := newConverter(t)
	assert.True(t, c.IsCheckpoint(map[string]any{"Task": "Q3 里程碑"}))
	assert.True(t, c.IsCheckpoint(map[string]any{"Task": "x", "Purpose": "Release candidate"}))
	assert.False(t, c.IsCheckpoint(map[string]any{"Task": "Assemble frame"}))
}

func TestRoundTrip(t *testing.T) {
	require := require.New(t)
	c := newConverter(t)

	tasks := []models.Task{
		{
			ID: "4", Task: "Pump test", Team: "流道", Project: "Jamstec", Category: "Testing",
			Owner: "Ben", StartDate: "2025-02-01", Date: "2025-02-11", Duration: 10,
			Status: models.StatusDone, Priority: models.PriorityLow,
			Dependency: "1,2", Notes: "ok", Verification: "log", IssueDate: "2025-01-20",
		},
		{
			ID: "B-7", Task: "Housing", Team: "機構", Project: "Internal", Category: "Design",
			Owner: "Cai", StartDate: "2025-03-01", Date: "2025-03-04", Duration: 3,
			Status: models.StatusInProgress, Priority: models.PriorityMedium,
		},
	}

	res := c.ConvertExternalToTask(ConvertTaskToExternal(tasks))
	require.True(res.Success)
	require.Equal(tasks, res.Data)
}

func TestRoundTripLossyFields(t *testing.T) {
	require := require.New(t)
	c := newConverter(t)

	in := models.Task{
		ID: "9", Task: "Retire rig", Team: "QA", Project: "Internal", Category: "Ops",
		Owner: "Dee", StartDate: "2025-04-01", Date: "2025-04-02", Duration: 1,
		Status: models.StatusClosed, Priority: models.PriorityMedium, IssuePool: true,
	}

	res := c.ConvertExternalToTask(ConvertTaskToExternal([]models.Task{in}))
	require.True(res.Success)
	require.Len(res.Data, 1)

	// The external status column folds Closed into Done and has no issue pool column.
	out := res.Data[0]
	require.Equal(models.StatusDone, out.Status)
	require.False(out.IssuePool)

	out.Status, out.IssuePool = in.Status, in.IssuePool
	require.Equal(in, out)
}

func TestNormalize(t *testing.T) {
	c := newConverter(t)

	t.Run("External rows should be converted.", func(t *testing.T) {
		res, kind := c.Normalize([]map[string]any{{"ID": 1.0, "Task": "A"}})
		assert.Equal(t, KindExternal, kind)
		assert.Len(t, res.Data, 1)
	})

	t.Run("Internal rows should be coerced.", func(t *testing.T) {
		res, kind := c.Normalize([]map[string]any{{
			"id": 5.0, "task": "B", "team": "QA", "date": "2025-01-02T16:00:00.000Z",
			"duration": "3", "status": "Pending", "priority": "P0",
			"isCheckpoint": "TRUE", "issuePool": true,
		}})
		require.Len(t, res.Data, 1)
		assert.Equal(t, KindInternal, kind)

		got := res.Data[0]
		assert.Equal(t, models.TaskID("5"), got.ID)
		assert.Equal(t, "QA", got.Category)
		assert.Equal(t, "2025-01-03", got.Date)
		assert.Equal(t, 3, got.Duration)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Equal(t, models.PriorityHigh, got.Priority)
		assert.True(t, got.IsCheckpoint)
		assert.True(t, got.IssuePool)
	})

	t.Run("Internal rows without id should be reported.", func(t *testing.T) {
		res, _ := c.Normalize([]map[string]any{{"task": "x"}})
		assert.False(t, res.Success)
		assert.Empty(t, res.Data)
	})
}
