// Package outbox queues remote mutations in the local store and delivers them
// in order with retries. Each operation carries a ULID the remote can use to
// drop replays.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"project-tracker/internal/models"
)

// Queue is the persisted operation list.
type Queue struct {
	db  *gorm.DB
	now func() time.Time
}

// NewQueue returns a Queue on a migrated database.
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

// Enqueue stores a mutation of a task. Deletes only carry the task id.
func (q *Queue) Enqueue(ctx context.Context, action models.OperationAction, task models.Task) (models.Operation, error) {
	var payload any = task
	if action == models.ActionDelete {
		payload = map[string]any{"id": task.ID}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return models.Operation{}, fmt.Errorf("could not encode operation payload: %w", err)
	}

	op := models.Operation{
		ID:        ulid.Make().String(),
		Action:    action,
		TaskID:    string(task.ID),
		Payload:   string(data),
		State:     models.OperationPending,
		CreatedAt: q.now().UTC(),
		UpdatedAt: q.now().UTC(),
	}
	if err := q.db.WithContext(ctx).Create(&op).Error; err != nil {
		return models.Operation{}, fmt.Errorf("could not enqueue operation: %w", err)
	}
	return op, nil
}

// Pending returns the operations waiting for delivery, oldest first.
func (q *Queue) Pending(ctx context.Context) ([]models.Operation, error) {
	return q.list(ctx, models.OperationPending)
}

// Failed returns the operations that ran out of attempts, oldest first.
func (q *Queue) Failed(ctx context.Context) ([]models.Operation, error) {
	return q.list(ctx, models.OperationFailed)
}

func (q *Queue) list(ctx context.Context, state models.OperationState) ([]models.Operation, error) {
	var ops []models.Operation
	if err := q.db.WithContext(ctx).Where("state = ?", state).Order("id ASC").Find(&ops).Error; err != nil {
		return nil, fmt.Errorf("could not list operations: %w", err)
	}
	return ops, nil
}

// Complete removes a delivered operation.
func (q *Queue) Complete(ctx context.Context, id string) error {
	if err := q.db.WithContext(ctx).Delete(&models.Operation{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("could not complete operation %s: %w", id, err)
	}
	return nil
}

// RecordFailure counts a failed attempt. Once maxAttempts is reached the
// operation is parked as failed and true is returned.
func (q *Queue) RecordFailure(ctx context.Context, op *models.Operation, cause error, maxAttempts int) (bool, error) {
	op.Attempts++
	op.LastError = cause.Error()
	op.UpdatedAt = q.now().UTC()
	gaveUp := maxAttempts > 0 && op.Attempts >= maxAttempts
	if gaveUp {
		op.State = models.OperationFailed
	}

	err := q.db.WithContext(ctx).Model(&models.Operation{}).Where("id = ?", op.ID).Updates(map[string]any{
		"attempts":   op.Attempts,
		"last_error": op.LastError,
		"state":      op.State,
		"updated_at": op.UpdatedAt,
	}).Error
	if err != nil {
		return gaveUp, fmt.Errorf("could not record failure of operation %s: %w", op.ID, err)
	}
	return gaveUp, nil
}

// Retry puts a failed operation back in the pending list.
func (q *Queue) Retry(ctx context.Context, id string) error {
	res := q.db.WithContext(ctx).Model(&models.Operation{}).
		Where("id = ? AND state = ?", id, models.OperationFailed).
		Updates(map[string]any{"state": models.OperationPending, "attempts": 0, "updated_at": q.now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("could not retry operation %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("operation %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Get returns one operation.
func (q *Queue) Get(ctx context.Context, id string) (models.Operation, error) {
	var op models.Operation
	err := q.db.WithContext(ctx).First(&op, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return op, fmt.Errorf("operation %s: %w", id, models.ErrNotFound)
	}
	return op, err
}
