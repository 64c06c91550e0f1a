package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminder log statuses
const (
	ReminderStatusSent   = "sent"
	ReminderStatusFailed = "failed"
)

// ReminderLog is the append-only reminder history, one row per
// (lead, template, channel) send attempt. Eligibility reads the latest
// successful row per pairing, so templates targeting the same lead no
// longer see each other's sends.
type ReminderLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	LeadID     uint      `gorm:"not null;index:idx_reminder_lead_template" json:"lead_id"`
	TemplateID uint      `gorm:"not null;index:idx_reminder_lead_template" json:"template_id"`

	Channel      string `gorm:"type:varchar(20)" json:"channel"`
	Status       string `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	SentAt    time.Time `json:"sent_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
