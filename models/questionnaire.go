package models

import "gorm.io/gorm"

// Semantic roles a question can be tagged with. Contact extraction
// looks these up instead of relying on question position alone.
const (
	RoleContactName  = "contact_name"
	RoleContactEmail = "contact_email"
	RoleContactPhone = "contact_phone"
)

// Questionnaire is a branded form a business owner shares with leads.
type Questionnaire struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Title    string `gorm:"not null" json:"title"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Questions []Question `gorm:"foreignKey:QuestionnaireID" json:"questions,omitempty"`
}

// Question is a single entry in a questionnaire's ordered question list.
type Question struct {
	gorm.Model
	QuestionnaireID uint `gorm:"not null;index" json:"questionnaire_id"`

	Position int    `gorm:"not null" json:"position"` // 1-based
	Label    string `gorm:"not null" json:"label"`
	Role     string `gorm:"type:varchar(30)" json:"role"` // contact_name, contact_email, contact_phone, or empty
}
