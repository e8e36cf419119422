// Package validation checks task fields and dependency graphs before a save.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Severity tells whether an issue blocks a save.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single human readable violation.
type Issue struct {
	Severity Severity `json:"severity"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
}

// String prefixes the message with its severity marker.
func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// Issues is the list returned by the validators. Empty means valid.
type Issues []Issue

func (is Issues) filter(s Severity) Issues {
	var out Issues
	for _, i := range is {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Blocking returns the issues that prevent a save.
func (is Issues) Blocking() Issues { return is.filter(SeverityError) }

// Warnings returns the advisory issues.
func (is Issues) Warnings() Issues { return is.filter(SeverityWarning) }

// HasBlocking reports whether any issue prevents a save.
func (is Issues) HasBlocking() bool { return len(is.Blocking()) > 0 }

// Messages renders every issue with its severity marker.
func (is Issues) Messages() []string {
	out := make([]string, 0, len(is))
	for _, i := range is {
		out = append(out, i.String())
	}
	return out
}

func (is Issues) Error() string { return strings.Join(is.Messages(), "; ") }

func errorf(field, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Field: field, Message: fmt.Sprintf(format, args...)}
}

func warnf(field, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrCycleFound is wrapped by CycleError.
var ErrCycleFound = errors.New("circular dependency detected")

// CycleError reports the task whose dependencies loop back to it.
type CycleError struct {
	TaskID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: task %s", ErrCycleFound, e.TaskID)
}

func (e *CycleError) Unwrap() error { return ErrCycleFound }
