package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hoogi/models"
	"hoogi/utils"
)

type TemplateController struct {
	DB     *gorm.DB
	Logger logrus.FieldLogger
}

func NewTemplateController(db *gorm.DB, logger logrus.FieldLogger) *TemplateController {
	return &TemplateController{
		DB:     db,
		Logger: logger,
	}
}

type templateInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=personal ai"`
	Subject     string `json:"subject" validate:"omitempty,max=500"`
	Body        string `json:"body" validate:"required"`

	LinkURL       string `json:"link_url"`
	LinkLabel     string `json:"link_label" validate:"omitempty,max=100"`
	AttachmentURL string `json:"attachment_url"`

	IncludeReminder   bool   `json:"include_reminder"`
	ReminderDays      int    `json:"reminder_days" validate:"omitempty,min=1,max=365"`
	ReminderTime      string `json:"reminder_time" validate:"omitempty,len=5"`
	ReminderStatus    string `json:"reminder_status"`
	ReminderSubStatus string `json:"reminder_sub_status"`
	ReminderFrequency string `json:"reminder_frequency" validate:"omitempty,oneof=custom-days every-few-days"`
}

// CreateTemplate creates a new automation template
func (tc *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input templateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	tmpl := models.AutomationTemplate{
		UserID:            user.ID,
		Name:              input.Name,
		MessageType:       defaultString(input.MessageType, models.MessageTypePersonal),
		Subject:           input.Subject,
		Body:              input.Body,
		LinkURL:           input.LinkURL,
		LinkLabel:         input.LinkLabel,
		AttachmentURL:     input.AttachmentURL,
		IncludeReminder:   input.IncludeReminder,
		ReminderDays:      input.ReminderDays,
		ReminderTime:      input.ReminderTime,
		ReminderStatus:    input.ReminderStatus,
		ReminderSubStatus: input.ReminderSubStatus,
		ReminderFrequency: defaultString(input.ReminderFrequency, models.FrequencyCustomDays),
	}
	if tmpl.ReminderDays == 0 {
		tmpl.ReminderDays = 1
	}

	if err := tc.DB.Create(&tmpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create template", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(tmpl))
}

// GetTemplates returns all templates owned by the current user
func (tc *TemplateController) GetTemplates(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var templates []models.AutomationTemplate
	if err := tc.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&templates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch templates", err)
	}

	return c.JSON(utils.SuccessResponse(templates))
}

// GetTemplate returns a single template by id
func (tc *TemplateController) GetTemplate(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var tmpl models.AutomationTemplate
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&tmpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	return c.JSON(utils.SuccessResponse(tmpl))
}

// UpdateTemplate updates an existing template
func (tc *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var tmpl models.AutomationTemplate
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&tmpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	var input templateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	tmpl.Name = input.Name
	tmpl.MessageType = defaultString(input.MessageType, tmpl.MessageType)
	tmpl.Subject = input.Subject
	tmpl.Body = input.Body
	tmpl.LinkURL = input.LinkURL
	tmpl.LinkLabel = input.LinkLabel
	tmpl.AttachmentURL = input.AttachmentURL
	tmpl.IncludeReminder = input.IncludeReminder
	tmpl.ReminderTime = input.ReminderTime
	tmpl.ReminderStatus = input.ReminderStatus
	tmpl.ReminderSubStatus = input.ReminderSubStatus
	if input.ReminderDays > 0 {
		tmpl.ReminderDays = input.ReminderDays
	}
	if input.ReminderFrequency != "" {
		tmpl.ReminderFrequency = input.ReminderFrequency
	}

	if err := tc.DB.Save(&tmpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update template", err)
	}

	return c.JSON(utils.SuccessResponse(tmpl))
}

// DeleteTemplate soft-deletes a template
func (tc *TemplateController) DeleteTemplate(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	result := tc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).Delete(&models.AutomationTemplate{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete template", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
