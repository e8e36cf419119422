package models

import "time"

// Backup is the last successfully loaded task collection kept for offline use.
type Backup struct {
	Key     string    `json:"key" gorm:"primaryKey"`
	Data    string    `json:"data" gorm:"type:text;not null"`
	Source  string    `json:"source"`
	SavedAt time.Time `json:"savedAt" gorm:"column:saved_at"`
}

// TableName specifies the table name for Backup Model
func (Backup) TableName() string {
	return "backups"
}

// Setting is a key-value pair of the local store (preferences, credential).
type Setting struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Setting Model
func (Setting) TableName() string {
	return "settings"
}

// OperationAction is the remote mutation verb.
type OperationAction string

const (
	ActionUpsert OperationAction = "upsert"
	ActionUpdate OperationAction = "update"
	ActionDelete OperationAction = "delete"
)

// OperationState tracks an outbox entry.
type OperationState string

const (
	OperationPending OperationState = "pending"
	OperationFailed  OperationState = "failed"
)

// Operation is a queued remote mutation. ID is a ULID so ordering follows creation.
type Operation struct {
	ID        string          `json:"id" gorm:"primaryKey"`
	Action    OperationAction `json:"action" gorm:"not null"`
	TaskID    string          `json:"taskId" gorm:"column:task_id;index"`
	Payload   string          `json:"payload" gorm:"type:text"`
	State     OperationState  `json:"state" gorm:"not null;default:'pending';index"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"lastError" gorm:"column:last_error"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for Operation Model
func (Operation) TableName() string {
	return "operations"
}
