package models

import "gorm.io/gorm"

// User is the business owner owning questionnaires, templates and
// leads. Profile fields feed the {{businessName}} token and the email
// layout branding.
type User struct {
	gorm.Model
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`

	Company string `json:"company"`
	LogoURL string `json:"logo_url"`
	ReplyTo string `json:"reply_to"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}
