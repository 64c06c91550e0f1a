package models

import "gorm.io/gorm"

// Message types for automation templates
const (
	MessageTypePersonal = "personal"
	MessageTypeAI       = "ai"
)

// Reminder frequency values authored in the template editor
const (
	FrequencyCustomDays   = "custom-days"
	FrequencyEveryFewDays = "every-few-days"
)

// AutomationTemplate is a reusable message definition with an optional
// reminder policy. Authored by the business owner; the dispatch engine
// treats it as read-only.
type AutomationTemplate struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name        string `gorm:"not null" json:"name"`
	MessageType string `gorm:"type:varchar(20);default:'personal'" json:"message_type"` // personal, ai

	Subject string `json:"subject"`
	Body    string `gorm:"type:text" json:"body"`

	// Optional call-to-action and media shown in the rendered email
	LinkURL       string `json:"link_url"`
	LinkLabel     string `json:"link_label"`
	AttachmentURL string `json:"attachment_url"`

	// Reminder policy
	IncludeReminder   bool   `gorm:"default:false" json:"include_reminder"`
	ReminderDays      int    `gorm:"default:1" json:"reminder_days"`
	ReminderTime      string `gorm:"type:varchar(5)" json:"reminder_time"` // HH:MM, hour granularity
	ReminderStatus    string `json:"reminder_status"`
	ReminderSubStatus string `json:"reminder_sub_status"`
	ReminderFrequency string `gorm:"type:varchar(30);default:'custom-days'" json:"reminder_frequency"`
}
