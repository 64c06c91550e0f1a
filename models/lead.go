package models

import (
	"time"

	"gorm.io/gorm"
)

// Lead is a respondent record created from questionnaire activity.
// The reminder engine mutates only LastReminderSentAt; leads are never
// deleted by the automation subsystem.
type Lead struct {
	gorm.Model
	UserID          uint `gorm:"not null;index" json:"user_id"`
	QuestionnaireID uint `gorm:"not null;index" json:"questionnaire_id"`

	DistributionToken string `gorm:"index" json:"distribution_token"`

	Status    string `gorm:"index" json:"status"`
	SubStatus string `json:"sub_status"`

	// Answers maps question ID (as string) to the raw answer value
	Answers map[string]string `gorm:"type:jsonb;serializer:json" json:"answers"`

	// Legacy single-field dedup signal, still written for the dashboard.
	// ReminderLog rows are the authoritative per-template history.
	LastReminderSentAt *time.Time `json:"last_reminder_sent_at,omitempty"`
}
