package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")

	db, err := Open(path, logger.Silent)
	require.NoError(t, err)

	for _, table := range []string{"backups", "settings", "operations"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("", logger.Silent)
	assert.Error(t, err)
}
