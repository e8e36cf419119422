package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	"project-tracker/internal/models"
	"project-tracker/internal/normalize"
)

const (
	maxTaskLength   = 100
	maxDuration     = 365
	rangeYears      = 5
	maxDependencies = 10
)

// Validator checks single tasks against the field rules. Dates are resolved
// with the injected normalizer and clock.
type Validator struct {
	norm *normalize.Normalizer
	now  func() time.Time
}

// New returns a Validator. A nil clock means time.Now.
func New(norm *normalize.Normalizer, now func() time.Time) *Validator {
	if norm == nil {
		norm = normalize.New(nil, nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Validator{norm: norm, now: now}
}

// Today returns the reference date in the normalizer's location.
func (v *Validator) Today() string {
	return normalize.Today(v.now(), v.norm.Location())
}

// ValidateTask never fails; it returns the violations found.
func (v *Validator) ValidateTask(t models.Task) Issues {
	var issues Issues

	switch n := utf8.RuneCountInString(t.Task); {
	case isBlank(t.Task):
		issues = append(issues, errorf("task", "task description is required"))
	case n > maxTaskLength:
		issues = append(issues, errorf("task", "task description must be at most %d characters, got %d", maxTaskLength, n))
	}

	end := v.norm.Date(t.Date)
	if end == "" {
		issues = append(issues, errorf("date", "completion date %q is not a valid date", t.Date))
	} else {
		// End minus duration never passes the end once duration is checked, so only
		// a stored start can.
		if start := v.norm.Date(t.StartDate); start != "" && start > end {
			issues = append(issues, warnf("startDate", "start date %s is after completion date %s", start, end))
		}

		now := v.now().In(v.norm.Location())
		lo := now.AddDate(-rangeYears, 0, 0).Format(normalize.DateLayout)
		hi := now.AddDate(rangeYears, 0, 0).Format(normalize.DateLayout)
		if end < lo || end > hi {
			issues = append(issues, warnf("date", "completion date %s is more than %d years away", end, rangeYears))
		}
	}

	switch {
	case t.Duration < 0:
		issues = append(issues, errorf("duration", "duration must not be negative"))
	case t.Duration > maxDuration:
		issues = append(issues, warnf("duration", "duration of %d days exceeds %d days", t.Duration, maxDuration))
	}

	if isBlank(t.Owner) {
		issues = append(issues, errorf("owner", "owner is required"))
	}

	return issues
}

// IsOverdue is the single overdue rule used by stats, filters, badges and
// highlighting: a stored Delayed status, or an end date strictly before today
// while the task is neither Done nor Closed. Tasks without a date are never
// overdue by date.
func IsOverdue(t models.Task, today string) bool {
	if t.Status == models.StatusDone || t.Status == models.StatusClosed {
		return false
	}
	if t.Status == models.StatusDelayed {
		return true
	}
	return t.Date != "" && t.Date < today
}

// EffectiveStatus is the status shown to users: Delayed when overdue.
func EffectiveStatus(t models.Task, today string) models.TaskStatus {
	if IsOverdue(t, today) {
		return models.StatusDelayed
	}
	return t.Status
}

// ShouldHaveStarted reports a Todo task whose computed start has passed while
// its end date has not.
func ShouldHaveStarted(t models.Task, today string) bool {
	if t.Status != models.StatusTodo || t.Date == "" {
		return false
	}
	start := normalize.StartDate(t.Date, t.StartDate, t.Duration)
	return start != "" && start <= today && t.Date >= today
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
