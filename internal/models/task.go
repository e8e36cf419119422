package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	StatusTodo       TaskStatus = "Todo"
	StatusInProgress TaskStatus = "InProgress"
	StatusPending    TaskStatus = "Pending"
	StatusDone       TaskStatus = "Done"
	StatusClosed     TaskStatus = "Closed"
	StatusDelayed    TaskStatus = "Delayed"
)

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "High"
	PriorityMedium TaskPriority = "Medium"
	PriorityLow    TaskPriority = "Low"
)

// TaskID is a task identifier. Spreadsheets hand out integers, manual entries may
// carry strings, so both are accepted on the wire.
type TaskID string

// Int returns the integer value of the id, or false when it is not an integer.
func (id TaskID) Int() (int, bool) {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0, false
	}
	return n, true
}

// MarshalJSON emits integers as JSON numbers so the spreadsheet keeps numeric ids.
func (id TaskID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int(); ok {
		return json.Marshal(n)
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts numbers and strings.
func (id *TaskID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = TaskIDFromAny(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*id = TaskID(strings.TrimSpace(s))
	return nil
}

// TaskIDFromAny coerces a loosely typed value into a TaskID. Whole numbers lose
// their fractional zero ("12.0" -> "12").
func TaskIDFromAny(v any) TaskID {
	switch t := v.(type) {
	case nil:
		return ""
	case TaskID:
		return t
	case string:
		return TaskID(strings.TrimSpace(t))
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return TaskID(strconv.FormatInt(n, 10))
		}
		if f, err := t.Float64(); err == nil && f == float64(int64(f)) {
			return TaskID(strconv.FormatInt(int64(f), 10))
		}
		return TaskID(t.String())
	case float64:
		if t == float64(int64(t)) {
			return TaskID(strconv.FormatInt(int64(t), 10))
		}
		return TaskID(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return TaskID(strconv.Itoa(t))
	case int64:
		return TaskID(strconv.FormatInt(t, 10))
	default:
		b, _ := json.Marshal(t)
		return TaskID(strings.Trim(string(b), `"`))
	}
}

// Task represents a tracked task
type Task struct {
	ID           TaskID       `json:"id"`
	Task         string       `json:"task"`
	Team         string       `json:"team"`
	Project      string       `json:"project"`
	Category     string       `json:"category"`
	Owner        string       `json:"owner"`
	Date         string       `json:"date"`
	StartDate    string       `json:"startDate,omitempty"`
	Duration     int          `json:"duration"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	IsCheckpoint bool         `json:"isCheckpoint"`
	IssuePool    bool         `json:"issuePool"`
	Dependency   string       `json:"dependency"`
	Notes        string       `json:"notes"`
	Verification string       `json:"verification"`
	Purpose      string       `json:"purpose,omitempty"`
	IssueDate    string       `json:"issueDate,omitempty"`
}

// CloneTasks returns a copy of the slice so callers can't mutate the owner's collection.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return []Task{}
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
