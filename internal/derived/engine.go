// Package derived computes the dashboard's derived state (visible tasks, stat
// cards, chart series, alerts and row highlights) from the task collection and
// the filter selection. Everything here is pure.
package derived

import (
	"fmt"

	"project-tracker/internal/config"
	"project-tracker/internal/models"
	"project-tracker/internal/validation"
)

// Stats are the stat-card counters over the team-filtered set.
type Stats struct {
	Total       int `json:"total"`
	Checkpoints int `json:"checkpoints"`
	PendingHigh int `json:"pendingHigh"`
	Completed   int `json:"completed"`
	LateStart   int `json:"lateStart"`
	Delayed     int `json:"delayed"`
}

// ChartEntry is one team slice of the workload chart.
type ChartEntry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// AlertLevel is the severity of a dashboard alert.
type AlertLevel string

const (
	AlertDanger  AlertLevel = "danger"
	AlertWarning AlertLevel = "warning"
)

// Alert is a banner message.
type Alert struct {
	Type    AlertLevel `json:"type"`
	Message string     `json:"message"`
}

// Input is everything a recomputation depends on.
type Input struct {
	Tasks  []models.Task
	Filter models.FilterState
	Today  string
	// Teams overrides the configured team list for the chart, e.g. with the
	// remote master data.
	Teams []string
	// OfflineReason is set while the controller runs on a backup.
	OfflineReason string
}

// State is the derived view of a task collection.
type State struct {
	Visible    []models.Task               `json:"visible"`
	Stats      Stats                       `json:"stats"`
	Chart      []ChartEntry                `json:"chart"`
	Alerts     []Alert                     `json:"alerts"`
	Highlights map[models.TaskID]Highlight `json:"highlights"`
	Today      string                      `json:"today"`
}

// Engine holds the injected lookup tables.
type Engine struct {
	palette config.Palette
	teams   []string
}

// NewEngine returns an Engine using the palette for chart colors and teams as
// the default chart series.
func NewEngine(palette config.Palette, teams []string) *Engine {
	return &Engine{palette: palette, teams: teams}
}

// Palette returns the injected palette.
func (e *Engine) Palette() config.Palette { return e.palette }

// Compute runs the whole pipeline.
func (e *Engine) Compute(in Input) State {
	visible := e.Filter(in.Tasks, in.Filter, in.Today)

	highlights := make(map[models.TaskID]Highlight, len(visible))
	if in.Filter.HighlightUrgent {
		for _, t := range visible {
			if h := RowHighlight(t, in.Today); h != HighlightNone {
				highlights[t.ID] = h
			}
		}
	}

	return State{
		Visible:    visible,
		Stats:      ComputeStats(in.Tasks, in.Filter.Team, in.Today),
		Chart:      e.Chart(in.Tasks, in.Teams),
		Alerts:     Alerts(in.Tasks, in.Today, in.OfflineReason),
		Highlights: highlights,
		Today:      in.Today,
	}
}

// ComputeStats counts over the tasks of a team (or all tasks), ignoring every
// other filter.
func ComputeStats(tasks []models.Task, team, today string) Stats {
	var s Stats
	if today == "" {
		return s
	}
	for _, t := range tasks {
		if team != "" && team != models.TeamAll && t.Team != team {
			continue
		}
		s.Total++
		if t.IsCheckpoint {
			s.Checkpoints++
		}
		if isUrgent(t) {
			s.PendingHigh++
		}
		if t.Status == models.StatusDone {
			s.Completed++
		}
		if validation.ShouldHaveStarted(t, today) {
			s.LateStart++
		}
		if validation.IsOverdue(t, today) {
			s.Delayed++
		}
	}
	return s
}

// Chart returns one entry per team with at least one task, in team order.
func (e *Engine) Chart(tasks []models.Task, teams []string) []ChartEntry {
	if len(teams) == 0 {
		teams = e.teams
	}
	counts := map[string]int{}
	for _, t := range tasks {
		if t.Team != "" {
			counts[t.Team]++
		}
	}

	out := []ChartEntry{}
	for _, team := range teams {
		if n := counts[team]; n > 0 {
			out = append(out, ChartEntry{Name: team, Value: n, Color: e.palette.TeamColor(team)})
		}
	}
	return out
}

// Alerts returns the overdue and offline banners.
func Alerts(tasks []models.Task, today, offlineReason string) []Alert {
	out := []Alert{}
	if today == "" {
		return out
	}
	overdue := 0
	for _, t := range tasks {
		if validation.IsOverdue(t, today) {
			overdue++
		}
	}
	if overdue > 0 {
		out = append(out, Alert{Type: AlertDanger, Message: fmt.Sprintf("%d tasks are overdue", overdue)})
	}
	if offlineReason != "" {
		out = append(out, Alert{Type: AlertWarning, Message: fmt.Sprintf("offline (%s)", offlineReason)})
	}
	return out
}

// ToggleStat selects a stat category, clearing it when it is already active.
func ToggleStat(current, clicked models.StatCategory) models.StatCategory {
	if current == clicked {
		return models.StatNone
	}
	return clicked
}
