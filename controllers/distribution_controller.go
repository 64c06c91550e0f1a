package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hoogi/models"
	"hoogi/utils"
)

type DistributionController struct {
	DB     *gorm.DB
	Logger logrus.FieldLogger
}

func NewDistributionController(db *gorm.DB, logger logrus.FieldLogger) *DistributionController {
	return &DistributionController{
		DB:     db,
		Logger: logger,
	}
}

type mappingInput struct {
	TemplateID uint     `json:"template_id" validate:"required"`
	Channels   []string `json:"channels" validate:"required,min=1,dive,oneof=email whatsapp sms"`
}

// CreateDistribution creates a share channel for a questionnaire.
// The token is generated server-side and embedded in the share link.
func (dc *DistributionController) CreateDistribution(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		QuestionnaireID  uint           `json:"questionnaire_id" validate:"required"`
		Name             string         `json:"name" validate:"required,max=200"`
		Channel          string         `json:"channel" validate:"required,oneof=whatsapp email sms qr social"`
		TemplateMappings []mappingInput `json:"template_mappings" validate:"omitempty,dive"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var questionnaire models.Questionnaire
	if err := dc.DB.Where("id = ? AND user_id = ?", input.QuestionnaireID, user.ID).First(&questionnaire).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Questionnaire not found", nil)
	}

	dist := models.Distribution{
		UserID:          user.ID,
		QuestionnaireID: questionnaire.ID,
		Name:            input.Name,
		Channel:         input.Channel,
		Token:           strings.ReplaceAll(uuid.NewString(), "-", ""),
		IsActive:        true,
	}
	for _, m := range input.TemplateMappings {
		dist.TemplateMappings = append(dist.TemplateMappings, models.TemplateMapping{
			TemplateID: m.TemplateID,
			Channels:   m.Channels,
		})
	}

	if err := dc.DB.Create(&dist).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create distribution", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(dist))
}

// GetDistributions lists the current user's distributions
func (dc *DistributionController) GetDistributions(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var dists []models.Distribution
	if err := dc.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&dists).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch distributions", err)
	}

	return c.JSON(utils.SuccessResponse(dists))
}

// UpdateDistribution updates mappings and the active flag
func (dc *DistributionController) UpdateDistribution(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var dist models.Distribution
	if err := dc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&dist).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Distribution not found", nil)
	}

	var input struct {
		Name             *string        `json:"name" validate:"omitempty,max=200"`
		IsActive         *bool          `json:"is_active"`
		TemplateMappings []mappingInput `json:"template_mappings" validate:"omitempty,dive"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.Name != nil {
		dist.Name = *input.Name
	}
	if input.IsActive != nil {
		dist.IsActive = *input.IsActive
	}
	if input.TemplateMappings != nil {
		dist.TemplateMappings = nil
		for _, m := range input.TemplateMappings {
			dist.TemplateMappings = append(dist.TemplateMappings, models.TemplateMapping{
				TemplateID: m.TemplateID,
				Channels:   m.Channels,
			})
		}
	}

	if err := dc.DB.Save(&dist).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update distribution", err)
	}

	return c.JSON(utils.SuccessResponse(dist))
}
