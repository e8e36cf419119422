// Package ui is the terminal dashboard.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"project-tracker/internal/datasource"
	"project-tracker/internal/derived"
	"project-tracker/internal/log"
	"project-tracker/internal/models"
	"project-tracker/internal/normalize"
	"project-tracker/internal/views"
)

// Source is what the dashboard reads from. *datasource.Controller satisfies it.
type Source interface {
	Tasks() []models.Task
	Status() datasource.Status
	Today() string
	Load(ctx context.Context) datasource.Status
}

// PreferenceStore persists the toggles.
type PreferenceStore interface {
	Preferences(ctx context.Context) (models.Preferences, error)
	SavePreferences(ctx context.Context, p models.Preferences) error
}

// View is one of the dashboard views.
type View int

const (
	ViewList View = iota
	ViewCalendar
	ViewGantt
)

func (v View) String() string {
	switch v {
	case ViewCalendar:
		return "Calendar"
	case ViewGantt:
		return "Gantt"
	default:
		return "List"
	}
}

var statKeys = map[string]models.StatCategory{
	"1": models.StatCheckpoints,
	"2": models.StatUrgent,
	"3": models.StatLateStart,
	"4": models.StatDelayed,
	"5": models.StatCompleted,
}

// Config is the configuration of the dashboard model.
type Config struct {
	Source      Source
	Engine      *derived.Engine
	Preferences PreferenceStore
	// Teams are cycled through by the team filter, after "All".
	Teams           []string
	RefreshInterval time.Duration
	Logger          log.Logger
}

func (c *Config) defaults() error {
	if c.Source == nil {
		return fmt.Errorf("source is required")
	}
	if c.Engine == nil {
		return fmt.Errorf("engine is required")
	}
	if c.Preferences == nil {
		return fmt.Errorf("preference store is required")
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "ui.Model"})
	return nil
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	src      Source
	engine   *derived.Engine
	prefs    PreferenceStore
	teams    []string
	interval time.Duration
	logger   log.Logger

	filter    models.FilterState
	view      View
	cursor    int
	month     time.Time
	searching bool
	input     string
	width     int
	showHelp  bool
	loading   bool

	state  derived.State
	rows   []views.ListRow
	status datasource.Status
}

type tickMsg time.Time

type loadedMsg datasource.Status

// NewModel returns a dashboard model on the current collection.
func NewModel(ctx context.Context, cfg Config) (*Model, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid ui config: %w", err)
	}
	p, err := cfg.Preferences.Preferences(ctx)
	if err != nil {
		cfg.Logger.Warningf("could not read preferences: %s", err)
		p = models.DefaultPreferences()
	}

	m := &Model{
		src:      cfg.Source,
		engine:   cfg.Engine,
		prefs:    cfg.Preferences,
		teams:    append([]string{models.TeamAll}, cfg.Teams...),
		interval: cfg.RefreshInterval,
		logger:   cfg.Logger,
		filter: models.FilterState{
			Team:            models.TeamAll,
			Project:         models.TeamAll,
			HideCompleted:   p.HideCompleted,
			HighlightUrgent: p.HighlightUrgent,
		},
		width: 100,
	}
	if today, ok := normalize.ParseDate(m.src.Today()); ok {
		m.month = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	m.refresh()
	return m, nil
}

// Run starts the dashboard and blocks until the user quits or ctx is done.
func Run(ctx context.Context, cfg Config) error {
	m, err := NewModel(ctx, cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// Filter returns the active filter.
func (m *Model) Filter() models.FilterState { return m.filter }

// CurrentView returns the active view.
func (m *Model) CurrentView() View { return m.view }

// Rows returns the list rows of the last recomputation.
func (m *Model) Rows() []views.ListRow { return m.rows }

func (m *Model) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.interval)
	case loadedMsg:
		m.loading = false
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.filter.Query = strings.TrimSpace(m.input)
		m.refresh()
	case tea.KeyEsc:
		m.searching = false
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if stat, ok := statKeys[key]; ok {
		m.filter.Stat = derived.ToggleStat(m.filter.Stat, stat)
		m.refresh()
		return m, nil
	}

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "tab":
		m.view = (m.view + 1) % 3
	case "t":
		m.filter.Team = m.nextTeam()
		m.refresh()
	case "/":
		m.searching = true
		m.input = m.filter.Query
	case "esc":
		m.filter.Query = ""
		m.filter.Stat = models.StatNone
		m.refresh()
	case "h":
		m.filter.HideCompleted = !m.filter.HideCompleted
		m.savePreferences()
		m.refresh()
	case "u":
		m.filter.HighlightUrgent = !m.filter.HighlightUrgent
		m.savePreferences()
		m.refresh()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "left", "[":
		m.month = m.month.AddDate(0, -1, 0)
	case "right", "]":
		m.month = m.month.AddDate(0, 1, 0)
	case "r", "f5":
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.reloadCmd()
	}
	return m, nil
}

func (m *Model) nextTeam() string {
	for i, t := range m.teams {
		if t == m.filter.Team {
			return m.teams[(i+1)%len(m.teams)]
		}
	}
	return models.TeamAll
}

func (m *Model) savePreferences() {
	p := models.Preferences{HighlightUrgent: m.filter.HighlightUrgent, HideCompleted: m.filter.HideCompleted}
	if err := m.prefs.SavePreferences(context.Background(), p); err != nil {
		m.logger.Warningf("could not save preferences: %s", err)
	}
}

func (m *Model) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg(m.src.Load(context.Background()))
	}
}

// refresh recomputes the derived state from the source.
func (m *Model) refresh() {
	m.status = m.src.Status()
	in := derived.Input{
		Tasks:  m.src.Tasks(),
		Filter: m.filter,
		Today:  m.src.Today(),
	}
	if m.status.Offline {
		in.OfflineReason = m.status.Error
		if in.OfflineReason == "" {
			in.OfflineReason = string(m.status.Source)
		}
	}
	m.state = m.engine.Compute(in)
	m.rows = views.List(m.state, m.engine.Palette(), m.filter.HighlightUrgent)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) View() string {
	var b strings.Builder
	writeTitle(&b, m.view, m.status)

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	if alerts := views.RenderAlerts(m.state.Alerts); alerts != "" {
		b.WriteString(alerts + "\n")
	}
	b.WriteString(views.RenderStats(m.state.Stats) + "\n")
	writeFilter(&b, m.filter, m.searching, m.input)

	switch m.view {
	case ViewCalendar:
		cal := views.Calendar(m.state.Visible, m.month.Year(), m.month.Month(), "")
		b.WriteString(views.RenderCalendar(cal, m.state.Today))
	case ViewGantt:
		g := views.Gantt(m.state.Visible, m.engine.Palette(), models.TeamAll, "", m.state.Today)
		b.WriteString(views.RenderGantt(g, m.width))
	default:
		b.WriteString(views.RenderList(m.rows, m.cursor))
	}

	b.WriteString("\n? help  q quit\n")
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func writeTitle(b *strings.Builder, v View, st datasource.Status) {
	title := fmt.Sprintf("Project Tracker - %s", v)
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n")

	state := string(st.State)
	if st.FileName != "" {
		state += " (" + st.FileName + ")"
	}
	b.WriteString(fmt.Sprintf("%s  %d tasks  source: %s\n\n", state, st.Count, st.Source))
}

func writeFilter(b *strings.Builder, f models.FilterState, searching bool, input string) {
	parts := []string{"team: " + f.Team}
	if f.Stat != models.StatNone {
		parts = append(parts, "stat: "+string(f.Stat))
	}
	if searching {
		parts = append(parts, "search: "+input+"_")
	} else if f.Query != "" {
		parts = append(parts, "search: "+f.Query)
	}
	if f.HideCompleted {
		parts = append(parts, "hiding done")
	}
	b.WriteString(strings.Join(parts, "  |  ") + "\n\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString(`Keys

  tab        switch view (list, calendar, gantt)
  1-5        toggle checkpoints, urgent, late start, delayed, completed
  t          next team
  /          search, field:value searches one field
  esc        clear search and stat
  h          hide completed tasks
  u          highlight urgent rows
  j/k        move
  [ ]        previous / next month
  r          reload from the source
  ?          close help
`)
}
