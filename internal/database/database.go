package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"project-tracker/internal/models"
)

// Models are the tables of the local store.
var Models = []any{
	&models.Backup{},
	&models.Setting{},
	&models.Operation{},
}

// Open opens the local SQLite store and migrates it. The pure Go driver keeps
// the binary free of cgo.
func Open(path string, level logger.LogLevel) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the store tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
