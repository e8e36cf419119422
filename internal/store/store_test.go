package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-tracker/internal/models"
	"project-tracker/internal/testutil"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	s := New(db)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC) }
	return s
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.LoadBackup(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	tasks := []models.Task{{ID: "1", Task: "A", Date: "2025-06-02"}, {ID: "x-2", Task: "B"}}
	require.NoError(t, s.SaveBackup(ctx, tasks, "api"))
	require.NoError(t, s.SaveBackup(ctx, tasks[:1], "plan.xlsx"))

	got, err := s.LoadBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, tasks[:1], got.Tasks)
	assert.Equal(t, "plan.xlsx", got.Source)
	assert.True(t, got.SavedAt.Equal(time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)))
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	p, err := s.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), p)

	require.NoError(t, s.SavePreferences(ctx, models.Preferences{HighlightUrgent: false, HideCompleted: true}))
	p, err = s.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Preferences{HighlightUrgent: false, HideCompleted: true}, p)
}

func TestCredential(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	c, err := s.Credential(ctx)
	require.NoError(t, err)
	assert.Empty(t, c)

	require.NoError(t, s.SaveCredential(ctx, "k-123"))
	c, err = s.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k-123", c)

	require.NoError(t, s.ClearCredential(ctx))
	c, err = s.Credential(ctx)
	require.NoError(t, err)
	assert.Empty(t, c)
}
