package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"project-tracker/internal/derived"
	"project-tracker/internal/models"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
	urgentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f97316"))
	todayStyle   = lipgloss.NewStyle().Reverse(true)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

var highlightStyles = map[derived.Highlight]lipgloss.Style{
	derived.HighlightDelayed:   dangerStyle,
	derived.HighlightLateStart: warningStyle,
	derived.HighlightUrgent:    urgentStyle,
	derived.HighlightDone:      faintStyle,
}

// RenderStats draws the stat cards.
func RenderStats(s derived.Stats) string {
	cards := []string{
		cardStyle.Render(fmt.Sprintf("Total\n%d", s.Total)),
		cardStyle.Render(fmt.Sprintf("Checkpoints\n%d", s.Checkpoints)),
		cardStyle.Render(fmt.Sprintf("Urgent\n%d", s.PendingHigh)),
		cardStyle.Render(fmt.Sprintf("Late start\n%d", s.LateStart)),
		cardStyle.Render(fmt.Sprintf("Delayed\n%d", s.Delayed)),
		cardStyle.Render(fmt.Sprintf("Completed\n%d", s.Completed)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// RenderAlerts draws the alert banners, one per line.
func RenderAlerts(alerts []derived.Alert) string {
	lines := make([]string, 0, len(alerts))
	for _, a := range alerts {
		style := warningStyle
		if a.Type == derived.AlertDanger {
			style = dangerStyle
		}
		lines = append(lines, style.Render("! "+a.Message))
	}
	return strings.Join(lines, "\n")
}

// RenderList draws the task table. cursor marks the selected row, -1 for none.
func RenderList(rows []ListRow, cursor int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-6s %-32s %-10s %-12s %-10s %-12s", "ID", "Task", "Team", "Owner", "Due", "Status")))
	b.WriteString("\n")
	for i, r := range rows {
		mark := "  "
		if i == cursor {
			mark = "> "
		}
		flag := ""
		if r.Task.IsCheckpoint {
			flag = "◆ "
		}
		line := fmt.Sprintf("%s%-6s %-32s %-10s %-12s %-10s %-12s",
			mark, r.Task.ID, truncate(flag+r.Task.Task, 32), truncate(r.Task.Team, 10),
			truncate(r.Task.Owner, 12), r.Task.Date, r.Badge.Label)
		if style, ok := highlightStyles[r.Highlight]; ok {
			line = style.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString(faintStyle.Render("  no tasks match the current filters"))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderCalendar draws a month grid with the number of tasks due each day.
func RenderCalendar(c CalendarMonth, today string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %d", c.Month, c.Year)))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(" Sun    Mon    Tue    Wed    Thu    Fri    Sat"))
	b.WriteString("\n")
	for _, week := range c.Weeks() {
		for _, cell := range week {
			if cell.Day == 0 {
				b.WriteString("       ")
				continue
			}
			txt := fmt.Sprintf("%2d", cell.Day)
			if n := len(cell.Tasks); n > 0 {
				txt += fmt.Sprintf("(%d)", n)
			}
			txt = fmt.Sprintf(" %-6s", txt)
			if cell.Date == today {
				txt = todayStyle.Render(txt)
			}
			b.WriteString(txt)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderGantt draws one bar per row, scaled to width columns.
func RenderGantt(g GanttChart, width int) string {
	if width <= 0 {
		width = 60
	}
	scale := 1.0
	if g.TotalDays > width {
		scale = float64(width) / float64(g.TotalDays)
	}
	col := func(day int) int { return int(float64(day) * scale) }

	var b strings.Builder
	header := make([]byte, col(g.TotalDays)+1)
	for i := range header {
		header[i] = ' '
	}
	for _, m := range g.Months {
		label := m.Month.String()[:3]
		at := col(m.StartDay)
		for i := 0; i < len(label) && at+i < len(header); i++ {
			header[at+i] = label[i]
		}
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-24s %s", "", string(header))))
	b.WriteString("\n")

	for _, r := range g.Rows {
		span := col(r.Span)
		if span < 1 {
			span = 1
		}
		glyph := "█"
		if r.Task.IsCheckpoint {
			glyph = "◆"
		}
		bar := strings.Repeat(" ", col(r.Offset)) +
			lipgloss.NewStyle().Foreground(lipgloss.Color(r.Color)).Render(strings.Repeat(glyph, span))
		if r.Status == models.StatusDelayed {
			bar += dangerStyle.Render(" !")
		}
		b.WriteString(fmt.Sprintf("%-24s %s\n", truncate(string(r.Task.ID)+" "+r.Task.Task, 24), bar))
	}
	if len(g.Edges) > 0 {
		b.WriteString(faintStyle.Render(fmt.Sprintf("%d dependency links", len(g.Edges))))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
