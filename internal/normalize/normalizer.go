package normalize

import (
	"fmt"
	"strings"
	"time"
)

// FieldAliases maps a canonical import field name to the header spellings it may
// appear under.
type FieldAliases map[string][]string

// Canonical import field names.
const (
	FieldID           = "ID"
	FieldProject      = "Project"
	FieldTeam         = "Team"
	FieldCategory     = "Category"
	FieldPurpose      = "Purpose"
	FieldTask         = "Task"
	FieldPIC          = "PIC"
	FieldIssueDate    = "Issue Date"
	FieldStartDate    = "Start Date"
	FieldEndDate      = "End Date"
	FieldStatus       = "Status"
	FieldPriority     = "Priority"
	FieldDependencies = "Dependencies"
	FieldNote         = "Note"
	FieldVerification = "Verification"
)

// DefaultAliases are the header spellings seen in the tracker spreadsheets.
func DefaultAliases() FieldAliases {
	return FieldAliases{
		FieldID:           {"ID", "id", "Id"},
		FieldProject:      {"Project", "project"},
		FieldTeam:         {"Team", "team"},
		FieldCategory:     {"Category", "category"},
		FieldPurpose:      {"Purpose", "purpose"},
		FieldTask:         {"Task", "task"},
		FieldPIC:          {"PIC", "pic", "Owner", "owner"},
		FieldIssueDate:    {"Issue Date", "Issue date", "issue date", "IssueDate"},
		FieldStartDate:    {"Start Date", "Start date", "start date", "StartDate"},
		FieldEndDate:      {"End Date", "End date", "end date", "Due Date", "Due date", "due date", "DueDate"},
		FieldStatus:       {"Status", "status"},
		FieldPriority:     {"Priority", "priority"},
		FieldDependencies: {"Dependencies", "dependencies", "Dependency", "dependency"},
		FieldNote:         {"Note", "note", "Notes", "notes"},
		FieldVerification: {"Verification", "verification"},
	}
}

// Normalizer resolves field aliases and dates in a fixed location.
type Normalizer struct {
	loc     *time.Location
	aliases FieldAliases
}

// New returns a Normalizer. A nil location means UTC, nil aliases the defaults.
func New(loc *time.Location, aliases FieldAliases) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Normalizer{loc: loc, aliases: aliases}
}

// Location returns the location dates are resolved in.
func (n *Normalizer) Location() *time.Location { return n.loc }

// FieldValue returns the first non-empty value found under any alias of the
// canonical name. Unknown canonical names are looked up verbatim.
func (n *Normalizer) FieldValue(record map[string]any, canonical string) (any, bool) {
	aliases, ok := n.aliases[canonical]
	if !ok {
		aliases = []string{canonical}
	}
	for _, alias := range aliases {
		v, ok := record[alias]
		if !ok || isEmpty(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

// FieldString is FieldValue rendered as a trimmed string, "" when absent.
func (n *Normalizer) FieldString(record map[string]any, canonical string) string {
	v, ok := n.FieldValue(record, canonical)
	if !ok {
		return ""
	}
	return AsString(v)
}

// AsString renders a loosely typed cell value.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

var defaultNormalizer = New(time.UTC, nil)

// NormalizeDate normalizes a date in UTC with the default aliases.
func NormalizeDate(v any) string { return defaultNormalizer.Date(v) }

// GetFieldValue resolves a field with the default aliases.
func GetFieldValue(record map[string]any, canonical string) (any, bool) {
	return defaultNormalizer.FieldValue(record, canonical)
}
