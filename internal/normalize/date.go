// Package normalize turns the loosely typed values found in spreadsheets and remote
// payloads into canonical task field values.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date representation.
const DateLayout = "2006-01-02"

const (
	// Spreadsheet serial dates count days from 1899-12-30.
	serialMin = 1
	serialMax = 2958465 // 9999-12-31
)

var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Layouts with a time zone are converted to the normalizer location before the
// calendar date is taken.
var zonedLayouts = []string{
	time.RFC3339,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

var localLayouts = []string{
	DateLayout,
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/1/2 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006, 3:04:05 PM",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon Jan 02 2006",
	"Mon, 02 Jan 2006",
}

// Date normalizes any date-like value into YYYY-MM-DD. Unparseable input returns
// an empty string, which callers treat as "unset".
func (n *Normalizer) Date(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.In(n.loc).Format(DateLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return n.Date(*t)
	case float64:
		return fromSerial(t)
	case float32:
		return fromSerial(float64(t))
	case int:
		return fromSerial(float64(t))
	case int64:
		return fromSerial(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return ""
		}
		return fromSerial(f)
	case string:
		return n.dateFromString(t)
	}
	return ""
}

func (n *Normalizer) dateFromString(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(f)
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(n.loc).Format(DateLayout)
		}
	}
	// Browser date strings carry a zone name suffix: "... GMT+0800 (Taipei Standard Time)".
	if i := strings.Index(s, " ("); i > 0 {
		if t, err := time.Parse(zonedLayouts[1], s[:i]); err == nil {
			return t.In(n.loc).Format(DateLayout)
		}
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t.Format(DateLayout)
		}
	}

	// Locale strings such as "2025/1/2 上午10:00:00": keep the date token only.
	if fields := strings.Fields(s); len(fields) > 1 {
		head := strings.TrimSuffix(fields[0], ",")
		for _, layout := range localLayouts[:8] {
			if t, err := time.ParseInLocation(layout, head, n.loc); err == nil {
				return t.Format(DateLayout)
			}
		}
	}

	return ""
}

func fromSerial(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	days := math.Floor(f)
	if days < serialMin || days > serialMax {
		return ""
	}
	return serialEpoch.AddDate(0, 0, int(days)).Format(DateLayout)
}

// ParseDate parses a canonical date. The bool is false for empty or invalid input.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddDays shifts a canonical date by n days. Invalid input returns "".
func AddDays(date string, n int) string {
	t, ok := ParseDate(date)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// DaysBetween returns the calendar-day difference end-start, floored at 0.
// The bool is false when either side is not a valid date.
func DaysBetween(start, end string) (int, bool) {
	s, ok := ParseDate(start)
	if !ok {
		return 0, false
	}
	e, ok := ParseDate(end)
	if !ok {
		return 0, false
	}
	days := int(e.Sub(s).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}

// StartDate returns the effective start of a task: end minus duration. The
// explicit start is only used when the task has no valid end date.
func StartDate(end, explicitStart string, duration int) string {
	if _, ok := ParseDate(end); ok {
		return AddDays(end, -duration)
	}
	if _, ok := ParseDate(explicitStart); ok {
		return explicitStart
	}
	return ""
}

// Today returns the canonical date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}
