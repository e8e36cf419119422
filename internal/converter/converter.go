// Package converter maps spreadsheet rows and remote payloads into tasks and back.
package converter

import (
	"fmt"
	"strconv"
	"strings"

	"project-tracker/internal/config"
	"project-tracker/internal/models"
	"project-tracker/internal/normalize"
)

// Stats summarises a conversion batch.
type Stats struct {
	Total     int `json:"total"`
	Converted int `json:"converted"`
	Failed    int `json:"failed"`
}

// Result is the outcome of a conversion batch. Success is true only when no row
// failed; Data holds every row that could be converted either way.
type Result struct {
	Success bool          `json:"success"`
	Data    []models.Task `json:"data"`
	Errors  []string      `json:"errors"`
	Stats   Stats         `json:"stats"`
}

// Converter turns records into tasks using an injected normalizer.
type Converter struct {
	norm     *normalize.Normalizer
	defaults config.ConverterDefaults
}

// New returns a Converter.
func New(norm *normalize.Normalizer, defaults config.ConverterDefaults) *Converter {
	if norm == nil {
		norm = normalize.New(nil, nil)
	}
	return &Converter{norm: norm, defaults: defaults}
}

var statusTable = map[string]models.TaskStatus{
	"done":        models.StatusDone,
	"closed":      models.StatusDone,
	"report":      models.StatusDone,
	"completed":   models.StatusDone,
	"in-progress": models.StatusInProgress,
	"in progress": models.StatusInProgress,
	"inprogress":  models.StatusInProgress,
	"ongoing":     models.StatusInProgress,
	"active":      models.StatusInProgress,
	"pending":     models.StatusPending,
	"delayed":     models.StatusDelayed,
}

// MapStatus maps a free-form status token, defaulting to Todo.
func MapStatus(raw string) models.TaskStatus {
	if s, ok := statusTable[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return models.StatusTodo
}

var priorityTable = map[string]models.TaskPriority{
	"p0":       models.PriorityHigh,
	"p1":       models.PriorityHigh,
	"high":     models.PriorityHigh,
	"critical": models.PriorityHigh,
	"urgent":   models.PriorityHigh,
	"p3":       models.PriorityLow,
	"p4":       models.PriorityLow,
	"low":      models.PriorityLow,
}

// MapPriority maps a free-form priority token, defaulting to Medium.
func MapPriority(raw string) models.TaskPriority {
	if p, ok := priorityTable[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return p
	}
	return models.PriorityMedium
}

// IsCheckpoint flags P0/P1 rows and rows whose task or purpose mentions a
// milestone keyword.
func (c *Converter) IsCheckpoint(row map[string]any) bool {
	priority := strings.ToLower(c.norm.FieldString(row, normalize.FieldPriority))
	if priority == "p0" || priority == "p1" {
		return true
	}
	task := strings.ToLower(c.norm.FieldString(row, normalize.FieldTask))
	purpose := strings.ToLower(c.norm.FieldString(row, normalize.FieldPurpose))
	for _, kw := range c.defaults.CheckpointKeywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(task, kw) || strings.Contains(purpose, kw) {
			return true
		}
	}
	return false
}

func (c *Converter) validateRow(row map[string]any, index int) []string {
	var errs []string
	id := c.norm.FieldString(row, normalize.FieldID)
	if id == "" {
		errs = append(errs, fmt.Sprintf("row %d: missing ID", index+1))
	}
	if c.norm.FieldString(row, normalize.FieldTask) == "" {
		errs = append(errs, fmt.Sprintf("row %d (ID: %s): missing Task", index+1, id))
	}
	return errs
}

// ConvertExternalToTask converts import-schema rows. Row errors skip the row and
// never abort the batch.
func (c *Converter) ConvertExternalToTask(rows []map[string]any) Result {
	res := Result{Data: []models.Task{}, Errors: []string{}}
	seen := map[models.TaskID]bool{}

	for i, row := range rows {
		if errs := c.validateRow(row, i); len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			continue
		}

		idRaw, _ := c.norm.FieldValue(row, normalize.FieldID)
		id := models.TaskIDFromAny(idRaw)
		if seen[id] {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d (ID: %s): duplicate ID", i+1, id))
			continue
		}
		seen[id] = true

		endRaw, _ := c.norm.FieldValue(row, normalize.FieldEndDate)
		startRaw, _ := c.norm.FieldValue(row, normalize.FieldStartDate)
		issueRaw, _ := c.norm.FieldValue(row, normalize.FieldIssueDate)
		end := c.norm.Date(endRaw)
		start := c.norm.Date(startRaw)
		if start == "" {
			start = end
		}

		duration := 0
		if start != "" && end != "" {
			duration, _ = normalize.DaysBetween(start, end)
		}

		res.Data = append(res.Data, models.Task{
			ID:           id,
			Team:         c.stringOr(row, normalize.FieldTeam, c.defaults.Team),
			Project:      c.norm.FieldString(row, normalize.FieldProject),
			Category:     c.stringOr(row, normalize.FieldCategory, c.defaults.Category),
			Task:         c.norm.FieldString(row, normalize.FieldTask),
			Owner:        c.stringOr(row, normalize.FieldPIC, c.defaults.Owner),
			Date:         end,
			StartDate:    start,
			Duration:     duration,
			Status:       MapStatus(c.norm.FieldString(row, normalize.FieldStatus)),
			Priority:     MapPriority(c.norm.FieldString(row, normalize.FieldPriority)),
			IsCheckpoint: c.IsCheckpoint(row),
			Dependency:   c.norm.FieldString(row, normalize.FieldDependencies),
			Notes:        c.norm.FieldString(row, normalize.FieldNote),
			Verification: c.norm.FieldString(row, normalize.FieldVerification),
			IssueDate:    c.norm.Date(issueRaw),
			Purpose:      c.norm.FieldString(row, normalize.FieldPurpose),
		})
	}

	return finish(res, len(rows))
}

func (c *Converter) stringOr(row map[string]any, field, fallback string) string {
	if v := c.norm.FieldString(row, field); v != "" {
		return v
	}
	return fallback
}

func finish(res Result, total int) Result {
	res.Stats = Stats{
		Total:     total,
		Converted: len(res.Data),
		Failed:    total - len(res.Data),
	}
	res.Success = len(res.Errors) == 0
	return res
}

// ExternalColumns is the column order of exported sheets.
var ExternalColumns = []string{
	normalize.FieldID,
	normalize.FieldProject,
	normalize.FieldTeam,
	normalize.FieldCategory,
	normalize.FieldPurpose,
	normalize.FieldTask,
	normalize.FieldPIC,
	normalize.FieldIssueDate,
	normalize.FieldStartDate,
	normalize.FieldEndDate,
	normalize.FieldStatus,
	normalize.FieldPriority,
	normalize.FieldDependencies,
	normalize.FieldNote,
	normalize.FieldVerification,
}

// ConvertTaskToExternal projects tasks onto the import schema.
func ConvertTaskToExternal(tasks []models.Task) []map[string]any {
	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		var id any = string(t.ID)
		if n, ok := t.ID.Int(); ok {
			id = n
		}
		out = append(out, map[string]any{
			normalize.FieldID:           id,
			normalize.FieldProject:      t.Project,
			normalize.FieldTeam:         t.Team,
			normalize.FieldCategory:     t.Category,
			normalize.FieldPurpose:      t.Purpose,
			normalize.FieldTask:         t.Task,
			normalize.FieldPIC:          t.Owner,
			normalize.FieldIssueDate:    t.IssueDate,
			normalize.FieldStartDate:    t.StartDate,
			normalize.FieldEndDate:      t.Date,
			normalize.FieldStatus:       string(t.Status),
			normalize.FieldPriority:     string(t.Priority),
			normalize.FieldDependencies: t.Dependency,
			normalize.FieldNote:         t.Notes,
			normalize.FieldVerification: t.Verification,
		})
	}
	return out
}

// NormalizeInternal coerces a record that already uses the tracker field names.
func (c *Converter) NormalizeInternal(fields map[string]any) models.Task {
	str := func(k string) string { return normalize.AsString(fields[k]) }

	team := str("team")
	category := str("category")
	if category == "" {
		category = team
	}
	if category == "" {
		category = c.defaults.Category
	}

	status := models.TaskStatus(str("status"))
	if !knownStatus(status) {
		status = MapStatus(string(status))
	}
	priority := models.TaskPriority(str("priority"))
	if priority != models.PriorityHigh && priority != models.PriorityMedium && priority != models.PriorityLow {
		priority = MapPriority(string(priority))
	}

	return models.Task{
		ID:           models.TaskIDFromAny(fields["id"]),
		Task:         str("task"),
		Team:         team,
		Project:      str("project"),
		Category:     category,
		Owner:        str("owner"),
		Date:         c.norm.Date(fields["date"]),
		StartDate:    c.norm.Date(fields["startDate"]),
		Duration:     asInt(fields["duration"]),
		Status:       status,
		Priority:     priority,
		IsCheckpoint: asBool(fields["isCheckpoint"]),
		IssuePool:    asBool(fields["issuePool"]),
		Dependency:   str("dependency"),
		Notes:        str("notes"),
		Verification: str("verification"),
		Purpose:      str("purpose"),
		IssueDate:    c.norm.Date(fields["issueDate"]),
	}
}

// Normalize turns a remote payload into tasks, running the import conversion only
// when the payload is in the external schema. The first row decides the schema.
func (c *Converter) Normalize(rows []map[string]any) (Result, RecordKind) {
	if len(rows) == 0 {
		return finish(Result{Data: []models.Task{}, Errors: []string{}}, 0), KindInternal
	}
	if Classify(rows[0]).Kind == KindExternal {
		return c.ConvertExternalToTask(rows), KindExternal
	}

	res := Result{Data: []models.Task{}, Errors: []string{}}
	seen := map[models.TaskID]bool{}
	for i, row := range rows {
		t := c.NormalizeInternal(row)
		if t.ID == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: missing id", i+1))
			continue
		}
		if seen[t.ID] {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d (ID: %s): duplicate ID", i+1, t.ID))
			continue
		}
		seen[t.ID] = true
		res.Data = append(res.Data, t)
	}
	return finish(res, len(rows)), KindInternal
}

func knownStatus(s models.TaskStatus) bool {
	switch s {
	case models.StatusTodo, models.StatusInProgress, models.StatusPending,
		models.StatusDone, models.StatusClosed, models.StatusDelayed:
		return true
	}
	return false
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
	}
	return 0
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	}
	return false
}
