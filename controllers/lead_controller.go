package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hoogi/models"
	"hoogi/utils"
)

type LeadController struct {
	DB     *gorm.DB
	Logger logrus.FieldLogger
}

func NewLeadController(db *gorm.DB, logger logrus.FieldLogger) *LeadController {
	return &LeadController{
		DB:     db,
		Logger: logger,
	}
}

// CreateLead records a questionnaire response and enqueues the
// automation tasks mapped to the lead's distribution. This is the
// event producer feeding the task queue.
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		QuestionnaireID   uint              `json:"questionnaire_id" validate:"required"`
		DistributionToken string            `json:"distribution_token"`
		Status            string            `json:"status" validate:"omitempty,max=50"`
		SubStatus         string            `json:"sub_status" validate:"omitempty,max=50"`
		Answers           map[string]string `json:"answers" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var questionnaire models.Questionnaire
	if err := lc.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ? AND user_id = ?", input.QuestionnaireID, user.ID).
		First(&questionnaire).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Questionnaire not found", nil)
	}

	lead := models.Lead{
		UserID:            user.ID,
		QuestionnaireID:   questionnaire.ID,
		DistributionToken: input.DistributionToken,
		Status:            input.Status,
		SubStatus:         input.SubStatus,
		Answers:           input.Answers,
	}

	if err := lc.DB.Create(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create lead", err)
	}

	enqueued := lc.enqueueAutomations(&lead, &questionnaire, user)

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"lead":           lead,
		"tasks_enqueued": enqueued,
	}))
}

// enqueueAutomations creates one AutoTask per (template, channel) the
// lead's distribution maps. Failures are logged, never surfaced to the
// respondent.
func (lc *LeadController) enqueueAutomations(lead *models.Lead, questionnaire *models.Questionnaire, owner *models.User) int {
	if lead.DistributionToken == "" {
		return 0
	}

	var dist models.Distribution
	if err := lc.DB.Where("token = ? AND is_active = ?", lead.DistributionToken, true).First(&dist).Error; err != nil {
		lc.Logger.WithField("token", lead.DistributionToken).WithError(err).
			Warn("lead arrived on unknown or inactive distribution")
		return 0
	}

	contact := utils.ExtractContact(questionnaire.Questions, lead.Answers)

	enqueued := 0
	for _, mapping := range dist.TemplateMappings {
		var tmpl models.AutomationTemplate
		if err := lc.DB.First(&tmpl, mapping.TemplateID).Error; err != nil {
			lc.Logger.WithField("template", mapping.TemplateID).WithError(err).
				Warn("distribution references missing template")
			continue
		}

		if tmpl.MessageType == models.MessageTypeAI {
			// AI replies run through the analysis pipeline
			if lc.createTask(lead, models.TaskTypeAnalysis, map[string]interface{}{
				"lead_id":     lead.ID,
				"template_id": tmpl.ID,
			}) {
				enqueued++
			}
			continue
		}

		subject := utils.RenderTokens(tmpl.Subject, contact, owner)
		body := utils.RenderTokens(tmpl.Body, contact, owner)

		for _, channel := range mapping.Channels {
			switch channel {
			case models.ChannelEmail:
				if contact.Email == "" {
					continue
				}
				html, err := utils.BuildMessageHTML(utils.MessageEmailData{
					BusinessName:  owner.Company,
					LogoURL:       owner.LogoURL,
					Body:          utils.BodyHTML(body),
					AttachmentURL: tmpl.AttachmentURL,
					LinkURL:       utils.EnsureScheme(tmpl.LinkURL),
					LinkLabel:     tmpl.LinkLabel,
					Year:          lead.CreatedAt.Year(),
				})
				if err != nil {
					lc.Logger.WithError(err).Error("failed to render auto-reply email")
					continue
				}
				if lc.createTask(lead, models.TaskTypeEmailReply, map[string]interface{}{
					"to":       contact.Email,
					"subject":  subject,
					"html":     html,
					"text":     body,
					"reply_to": owner.ReplyTo,
				}) {
					enqueued++
				}

			case models.ChannelWhatsApp:
				if contact.Phone == "" {
					continue
				}
				if lc.createTask(lead, models.TaskTypeWhatsAppReply, map[string]interface{}{
					"to_phone": contact.Phone,
					"body":     body,
				}) {
					enqueued++
				}
			}
		}
	}

	return enqueued
}

func (lc *LeadController) createTask(lead *models.Lead, taskType models.TaskType, payload map[string]interface{}) bool {
	task := models.AutoTask{
		UserID:  lead.UserID,
		Type:    taskType,
		Status:  models.TaskStatusQueued,
		Payload: payload,
	}
	if err := lc.DB.Create(&task).Error; err != nil {
		lc.Logger.WithField("lead", lead.ID).WithError(err).Error("failed to enqueue automation task")
		return false
	}
	return true
}

// GetLeads returns a paginated list of leads with optional status filter
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit > 100 {
		limit = 100
	}

	query := lc.DB.Where("user_id = ?", user.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if qid := c.Query("questionnaire_id"); qid != "" {
		query = query.Where("questionnaire_id = ?", qid)
	}

	var total int64
	query.Model(&models.Lead{}).Count(&total)

	var leads []models.Lead
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&leads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch leads", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    leads,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// GetLead returns a single lead by id
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var lead models.Lead
	if err := lc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	return c.JSON(utils.SuccessResponse(lead))
}
