// Package views builds the List, Calendar and Gantt view models from derived
// state. The HTTP API serves them as JSON and the terminal dashboard renders them
// as text.
package views

import (
	"sort"
	"time"

	"project-tracker/internal/config"
	"project-tracker/internal/derived"
	"project-tracker/internal/models"
	"project-tracker/internal/normalize"
	"project-tracker/internal/validation"
)

// ListRow is one line of the task list.
type ListRow struct {
	Task      models.Task       `json:"task"`
	StartDate string            `json:"startDate"`
	Badge     derived.Badge     `json:"badge"`
	Highlight derived.Highlight `json:"highlight"`
	TeamColor string            `json:"teamColor"`
}

// List turns the visible tasks into rows. Highlights are only set when the
// urgent highlighting toggle is on.
func List(st derived.State, p config.Palette, highlightUrgent bool) []ListRow {
	rows := make([]ListRow, 0, len(st.Visible))
	for _, t := range st.Visible {
		row := ListRow{
			Task:      t,
			StartDate: normalize.StartDate(t.Date, t.StartDate, t.Duration),
			Badge:     derived.StatusBadge(p, t, st.Today),
			TeamColor: p.TeamColor(t.Team),
		}
		if highlightUrgent {
			row.Highlight = derived.RowHighlight(t, st.Today)
		}
		rows = append(rows, row)
	}
	return rows
}

// CalendarCell is one day of a month grid. Leading cells before the first day
// of the month are blank (Day 0).
type CalendarCell struct {
	Day   int           `json:"day"`
	Date  string        `json:"date,omitempty"`
	Tasks []models.Task `json:"tasks,omitempty"`
}

// CalendarMonth is a Sunday-first month grid.
type CalendarMonth struct {
	Year  int            `json:"year"`
	Month time.Month     `json:"month"`
	Cells []CalendarCell `json:"cells"`
}

// Weeks splits the grid in rows of seven cells.
func (c CalendarMonth) Weeks() [][]CalendarCell {
	var out [][]CalendarCell
	for i := 0; i < len(c.Cells); i += 7 {
		end := i + 7
		if end > len(c.Cells) {
			end = len(c.Cells)
		}
		out = append(out, c.Cells[i:end])
	}
	return out
}

// Calendar places tasks on their completion date, honouring the search query.
func Calendar(tasks []models.Task, year int, month time.Month, query string) CalendarMonth {
	match := derived.SearchPredicate(query)
	byDate := map[string][]models.Task{}
	for _, t := range tasks {
		if t.Date == "" || (match != nil && !match(t)) {
			continue
		}
		byDate[t.Date] = append(byDate[t.Date], t)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()

	cal := CalendarMonth{Year: year, Month: month}
	for i := 0; i < int(first.Weekday()); i++ {
		cal.Cells = append(cal.Cells, CalendarCell{})
	}
	for d := 1; d <= last; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format(normalize.DateLayout)
		cal.Cells = append(cal.Cells, CalendarCell{Day: d, Date: date, Tasks: byDate[date]})
	}
	return cal
}

const (
	ganttLeadDays  = 5
	ganttTrailDays = 15
)

// GanttRow is a task bar. Offset and Span are in days from the chart start.
type GanttRow struct {
	Task   models.Task       `json:"task"`
	Start  string            `json:"start"`
	Offset int               `json:"offset"`
	Span   int               `json:"span"`
	Color  string            `json:"color"`
	Status models.TaskStatus `json:"status"`
}

// GanttEdge links a dependency row to its dependent row.
type GanttEdge struct {
	From    models.TaskID `json:"from"`
	To      models.TaskID `json:"to"`
	FromRow int           `json:"fromRow"`
	ToRow   int           `json:"toRow"`
}

// MonthHeader is a month segment of the timeline.
type MonthHeader struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	StartDay int        `json:"startDay"`
	Days     int        `json:"days"`
}

// GanttChart is the timeline layout.
type GanttChart struct {
	Start       string        `json:"start"`
	TotalDays   int           `json:"totalDays"`
	TodayOffset int           `json:"todayOffset"`
	Rows        []GanttRow    `json:"rows"`
	Edges       []GanttEdge   `json:"edges"`
	Months      []MonthHeader `json:"months"`
}

// Gantt lays out dated tasks of a team sorted by start, with a window from five
// days before the earliest start to fifteen days after the latest end.
func Gantt(tasks []models.Task, p config.Palette, team, query, today string) GanttChart {
	teamMatch := derived.TeamPredicate(team)
	search := derived.SearchPredicate(query)

	type bar struct {
		task       models.Task
		start, end time.Time
	}
	var bars []bar
	for _, t := range tasks {
		if (teamMatch != nil && !teamMatch(t)) || (search != nil && !search(t)) {
			continue
		}
		end, ok := normalize.ParseDate(t.Date)
		if !ok {
			continue
		}
		start, ok := normalize.ParseDate(normalize.StartDate(t.Date, t.StartDate, t.Duration))
		if !ok {
			start = end
		}
		bars = append(bars, bar{task: t, start: start, end: end})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].start.Before(bars[j].start) })

	lo, ok := normalize.ParseDate(today)
	if !ok {
		lo = time.Now().UTC().Truncate(24 * time.Hour)
	}
	hi := lo
	if len(bars) > 0 {
		lo, hi = bars[0].start, bars[0].end
		for _, b := range bars {
			if b.start.Before(lo) {
				lo = b.start
			}
			if b.end.After(hi) {
				hi = b.end
			}
		}
	}
	lo = lo.AddDate(0, 0, -ganttLeadDays)
	hi = hi.AddDate(0, 0, ganttTrailDays)

	chart := GanttChart{
		Start:     lo.Format(normalize.DateLayout),
		TotalDays: dayDiff(lo, hi),
		Rows:      []GanttRow{},
		Edges:     []GanttEdge{},
	}
	if t, ok := normalize.ParseDate(today); ok {
		chart.TodayOffset = dayDiff(lo, t)
	}

	index := map[models.TaskID]int{}
	for i, b := range bars {
		index[b.task.ID] = i
		span := dayDiff(b.start, b.end)
		if span < 1 {
			span = 1
		}
		chart.Rows = append(chart.Rows, GanttRow{
			Task:   b.task,
			Start:  b.start.Format(normalize.DateLayout),
			Offset: dayDiff(lo, b.start),
			Span:   span,
			Color:  p.TeamColor(b.task.Team),
			Status: validation.EffectiveStatus(b.task, today),
		})
	}
	for i, b := range bars {
		for _, dep := range validation.ParseDependencies(b.task.Dependency) {
			j, ok := index[models.TaskID(dep)]
			if !ok {
				continue
			}
			chart.Edges = append(chart.Edges, GanttEdge{From: bars[j].task.ID, To: b.task.ID, FromRow: j, ToRow: i})
		}
	}
	chart.Months = monthHeaders(lo, chart.TotalDays)
	return chart
}

func monthHeaders(start time.Time, days int) []MonthHeader {
	var out []MonthHeader
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		if n := len(out); n > 0 && out[n-1].Month == d.Month() && out[n-1].Year == d.Year() {
			out[n-1].Days++
			continue
		}
		out = append(out, MonthHeader{Year: d.Year(), Month: d.Month(), StartDay: i, Days: 1})
	}
	return out
}

func dayDiff(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
