// Package store is the local key-value state of the tracker: the offline task
// backup, the UI preferences and the saved access credential.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"project-tracker/internal/models"
)

const (
	backupKey        = "tasks"
	prefHighlightKey = "highlightUrgent"
	prefHideDoneKey  = "hideCompleted"
	credentialKey    = "credential"
)

// Backup is a restored task collection.
type Backup struct {
	Tasks   []models.Task
	Source  string
	SavedAt time.Time
}

// Store persists local state in the SQLite database.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New returns a Store on a migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SaveBackup replaces the backup with tasks, stamped with the current time.
func (s *Store) SaveBackup(ctx context.Context, tasks []models.Task, source string) error {
	data, err := json.Marshal(models.CloneTasks(tasks))
	if err != nil {
		return fmt.Errorf("could not encode backup: %w", err)
	}
	rec := models.Backup{
		Key:     backupKey,
		Data:    string(data),
		Source:  source,
		SavedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("could not save backup: %w", err)
	}
	return nil
}

// LoadBackup returns the last backup or models.ErrNotFound.
func (s *Store) LoadBackup(ctx context.Context) (Backup, error) {
	var rec models.Backup
	if err := s.db.WithContext(ctx).First(&rec, "key = ?", backupKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Backup{}, models.ErrNotFound
		}
		return Backup{}, fmt.Errorf("could not load backup: %w", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal([]byte(rec.Data), &tasks); err != nil {
		return Backup{}, fmt.Errorf("corrupt backup: %w", err)
	}
	return Backup{Tasks: models.CloneTasks(tasks), Source: rec.Source, SavedAt: rec.SavedAt}, nil
}

// Preferences returns the saved toggles, both true when never saved.
func (s *Store) Preferences(ctx context.Context) (models.Preferences, error) {
	p := models.DefaultPreferences()

	var recs []models.Setting
	err := s.db.WithContext(ctx).
		Where("key IN ?", []string{prefHighlightKey, prefHideDoneKey}).
		Find(&recs).Error
	if err != nil {
		return p, fmt.Errorf("could not load preferences: %w", err)
	}

	for _, r := range recs {
		v, err := strconv.ParseBool(r.Value)
		if err != nil {
			continue
		}
		switch r.Key {
		case prefHighlightKey:
			p.HighlightUrgent = v
		case prefHideDoneKey:
			p.HideCompleted = v
		}
	}
	return p, nil
}

// SavePreferences stores both toggles.
func (s *Store) SavePreferences(ctx context.Context, p models.Preferences) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.set(tx, prefHighlightKey, strconv.FormatBool(p.HighlightUrgent)); err != nil {
			return err
		}
		return s.set(tx, prefHideDoneKey, strconv.FormatBool(p.HideCompleted))
	})
}

// Credential returns the saved access key, "" when none.
func (s *Store) Credential(ctx context.Context) (string, error) {
	var rec models.Setting
	err := s.db.WithContext(ctx).First(&rec, "key = ?", credentialKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("could not load credential: %w", err)
	}
	return rec.Value, nil
}

// SaveCredential remembers the access key.
func (s *Store) SaveCredential(ctx context.Context, key string) error {
	return s.set(s.db.WithContext(ctx), credentialKey, key)
}

// ClearCredential forgets the access key.
func (s *Store) ClearCredential(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Delete(&models.Setting{}, "key = ?", credentialKey).Error; err != nil {
		return fmt.Errorf("could not clear credential: %w", err)
	}
	return nil
}

func (s *Store) set(db *gorm.DB, key, value string) error {
	rec := models.Setting{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	if err := db.Save(&rec).Error; err != nil {
		return fmt.Errorf("could not save setting %s: %w", key, err)
	}
	return nil
}
