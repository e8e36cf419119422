package derived

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"project-tracker/internal/models"
	"project-tracker/internal/validation"
)

var prefixQuery = regexp.MustCompile(`(?is)^(project|owner|pic|team|task|note|category):(.*)$`)

// Predicate selects tasks.
type Predicate func(models.Task) bool

// Filter applies team, project, stat category, search and hide-completed in
// that order. Every stage is a per-task predicate, so the order does not change
// the result.
func (e *Engine) Filter(tasks []models.Task, f models.FilterState, today string) []models.Task {
	stages := []Predicate{
		TeamPredicate(f.Team),
		ProjectPredicate(f.Project),
		StatPredicate(f.Stat, today),
		SearchPredicate(f.Query),
	}
	if f.HideCompleted {
		stages = append(stages, func(t models.Task) bool { return t.Status != models.StatusDone })
	}

	out := []models.Task{}
	for _, t := range tasks {
		if all(stages, t) {
			out = append(out, t)
		}
	}
	return out
}

func all(ps []Predicate, t models.Task) bool {
	for _, p := range ps {
		if p != nil && !p(t) {
			return false
		}
	}
	return true
}

// TeamPredicate matches a team. The issue team also matches issue-pool tasks.
func TeamPredicate(team string) Predicate {
	if team == "" || team == models.TeamAll {
		return nil
	}
	if team == "issue" || team == "Issue" {
		return func(t models.Task) bool {
			return t.Team == "issue" || t.Team == "Issue" || t.IssuePool
		}
	}
	return func(t models.Task) bool { return t.Team == team }
}

// ProjectPredicate matches a project exactly.
func ProjectPredicate(project string) Predicate {
	if project == "" || project == models.TeamAll {
		return nil
	}
	return func(t models.Task) bool { return t.Project == project }
}

// StatPredicate matches a named stat category.
func StatPredicate(stat models.StatCategory, today string) Predicate {
	switch stat {
	case models.StatCheckpoints:
		return func(t models.Task) bool { return t.IsCheckpoint }
	case models.StatUrgent:
		return isUrgent
	case models.StatCompleted:
		return func(t models.Task) bool { return t.Status == models.StatusDone }
	case models.StatLateStart:
		return func(t models.Task) bool { return validation.ShouldHaveStarted(t, today) }
	case models.StatDelayed:
		return func(t models.Task) bool { return validation.IsOverdue(t, today) }
	}
	return nil
}

// SearchPredicate matches the free-text query. "field:value" searches a single
// field, anything else searches task, owner, team, project, notes and category.
func SearchPredicate(query string) Predicate {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	if m := prefixQuery.FindStringSubmatch(query); m != nil {
		value := fold(m[2])
		var field func(models.Task) string
		switch strings.ToLower(m[1]) {
		case "project":
			field = func(t models.Task) string { return t.Project }
		case "owner", "pic":
			field = func(t models.Task) string { return t.Owner }
		case "team":
			field = func(t models.Task) string { return t.Team }
		case "task":
			field = func(t models.Task) string { return t.Task }
		case "note":
			field = func(t models.Task) string { return t.Notes }
		case "category":
			field = func(t models.Task) string { return t.Category }
		}
		return func(t models.Task) bool { return contains(field(t), value) }
	}

	value := fold(query)
	return func(t models.Task) bool {
		for _, s := range []string{t.Task, t.Owner, t.Notes, t.Category, t.Team, t.Project} {
			if contains(s, value) {
				return true
			}
		}
		return false
	}
}

func isUrgent(t models.Task) bool {
	return t.Status != models.StatusDone && t.Priority == models.PriorityHigh
}

func contains(s, foldedNeedle string) bool {
	return s != "" && strings.Contains(fold(s), foldedNeedle)
}

// fold builds a Caser per call, Casers are not safe for concurrent use.
func fold(s string) string { return cases.Fold().String(s) }
