package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskType identifies which automation a queued task triggers
type TaskType string

const (
	TaskTypeEmailReply    TaskType = "email_reply"
	TaskTypeWhatsAppReply TaskType = "whatsapp_reply"
	TaskTypeAnalysis      TaskType = "analysis"
)

// TaskStatus tracks the lifecycle of a queued task.
// Transitions are forward-only: queued -> processing -> done|error.
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusError      TaskStatus = "error"
)

// AutoTask represents a pending outbound communication task.
// Created by lead/response events, consumed by the queue worker.
type AutoTask struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uint      `gorm:"index" json:"user_id"`

	Type   TaskType   `gorm:"type:varchar(30);not null;index" json:"type"`
	Status TaskStatus `gorm:"type:varchar(20);not null;default:'queued';index" json:"status"`

	// Payload is opaque to storage; its shape depends on Type
	Payload map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"payload"`
	Result  map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"result,omitempty"`

	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *AutoTask) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
