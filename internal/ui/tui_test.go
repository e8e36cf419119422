package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-tracker/internal/config"
	"project-tracker/internal/datasource"
	"project-tracker/internal/derived"
	"project-tracker/internal/models"
)

type fakeSource struct {
	tasks []models.Task
	loads int
}

func (f *fakeSource) Tasks() []models.Task { return models.CloneTasks(f.tasks) }
func (f *fakeSource) Today() string        { return "2025-06-01" }
func (f *fakeSource) Status() datasource.Status {
	return datasource.Status{State: datasource.StateReady, Source: datasource.SourceRemote, Count: len(f.tasks)}
}
func (f *fakeSource) Load(context.Context) datasource.Status {
	f.loads++
	return f.Status()
}

type memPrefs struct {
	p     models.Preferences
	saves int
}

func (m *memPrefs) Preferences(context.Context) (models.Preferences, error) { return m.p, nil }
func (m *memPrefs) SavePreferences(_ context.Context, p models.Preferences) error {
	m.p = p
	m.saves++
	return nil
}

func newModel(t *testing.T) (*Model, *fakeSource, *memPrefs) {
	t.Helper()
	src := &fakeSource{tasks: []models.Task{
		{ID: "1", Task: "Board bring-up", Team: "晶片", Owner: "Ann", Date: "2025-05-20", Status: models.StatusTodo, Priority: models.PriorityHigh},
		{ID: "2", Task: "Firmware", Team: "軟體", Owner: "Bob", Date: "2025-06-20", Status: models.StatusInProgress, Priority: models.PriorityLow, IsCheckpoint: true},
		{ID: "3", Task: "Release", Team: "軟體", Owner: "Cid", Date: "2025-05-01", Status: models.StatusDone},
	}}
	prefs := &memPrefs{p: models.DefaultPreferences()}
	settings := config.DefaultSettings()

	m, err := NewModel(context.Background(), Config{
		Source:      src,
		Engine:      derived.NewEngine(settings.Palette, settings.Vocabulary.Teams),
		Preferences: prefs,
		Teams:       []string{"晶片", "軟體"},
	})
	require.NoError(t, err)
	return m, src, prefs
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func rowIDs(m *Model) []models.TaskID {
	var ids []models.TaskID
	for _, r := range m.Rows() {
		ids = append(ids, r.Task.ID)
	}
	return ids
}

func TestModelFilters(t *testing.T) {
	tests := map[string]struct {
		keys   []string
		expIDs []models.TaskID
	}{
		"Completed tasks should be hidden by default.": {
			expIDs: []models.TaskID{"1", "2"},
		},
		"Toggling hide completed should show them.": {
			keys:   []string{"h"},
			expIDs: []models.TaskID{"1", "2", "3"},
		},
		"The checkpoint stat should filter.": {
			keys:   []string{"1"},
			expIDs: []models.TaskID{"2"},
		},
		"Pressing the same stat twice should clear it.": {
			keys:   []string{"1", "1"},
			expIDs: []models.TaskID{"1", "2"},
		},
		"The team filter should cycle.": {
			keys:   []string{"t", "t"},
			expIDs: []models.TaskID{"2"},
		},
		"Search should apply on enter.": {
			keys:   []string{"/", "o", "w", "n", "e", "r", ":", "a", "n", "n", "enter"},
			expIDs: []models.TaskID{"1"},
		},
		"Escape should cancel a search being typed.": {
			keys:   []string{"/", "x", "esc"},
			expIDs: []models.TaskID{"1", "2"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m, _, _ := newModel(t)
			press(m, test.keys...)
			assert.Equal(t, test.expIDs, rowIDs(m))
		})
	}
}

func TestModelPersistsToggles(t *testing.T) {
	m, _, prefs := newModel(t)
	press(m, "u", "h")

	assert.Equal(t, 2, prefs.saves)
	assert.Equal(t, models.Preferences{HighlightUrgent: false, HideCompleted: false}, prefs.p)
	assert.False(t, m.Filter().HighlightUrgent)
}

func TestModelViews(t *testing.T) {
	m, _, _ := newModel(t)
	assert.Equal(t, ViewList, m.CurrentView())
	assert.Contains(t, m.View(), "Board bring-up")

	press(m, "tab")
	assert.Equal(t, ViewCalendar, m.CurrentView())
	assert.Contains(t, m.View(), "June 2025")

	press(m, "tab")
	assert.Equal(t, ViewGantt, m.CurrentView())

	press(m, "tab")
	assert.Equal(t, ViewList, m.CurrentView())
}

func TestModelReload(t *testing.T) {
	m, src, _ := newModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, 1, src.loads)

	// A second reload is ignored until the first one lands.
	_, again := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, again)

	m.Update(msg)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.NotNil(t, cmd)
}

func TestModelQuit(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
