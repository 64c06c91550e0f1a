package models

import "gorm.io/gorm"

// Delivery channels available on a template mapping
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
)

// TemplateMapping binds one automation template to the channels it
// should be delivered on. Order matters: mappings are applied in the
// order the owner arranged them.
type TemplateMapping struct {
	TemplateID uint     `json:"template_id"`
	Channels   []string `json:"channels"`
}

// Distribution is a named channel/token through which a questionnaire
// is shared. Leads carry the token of the distribution they arrived on.
type Distribution struct {
	gorm.Model
	UserID          uint `gorm:"not null;index" json:"user_id"`
	QuestionnaireID uint `gorm:"not null;index" json:"questionnaire_id"`

	Name    string `json:"name"`
	Channel string `gorm:"type:varchar(20)" json:"channel"` // whatsapp, email, sms, qr, social
	Token   string `gorm:"uniqueIndex;not null" json:"token"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	TemplateMappings []TemplateMapping `gorm:"type:jsonb;serializer:json" json:"template_mappings"`
}
