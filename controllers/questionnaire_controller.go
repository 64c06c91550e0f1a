package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hoogi/models"
	"hoogi/utils"
)

type QuestionnaireController struct {
	DB     *gorm.DB
	Logger logrus.FieldLogger
}

func NewQuestionnaireController(db *gorm.DB, logger logrus.FieldLogger) *QuestionnaireController {
	return &QuestionnaireController{
		DB:     db,
		Logger: logger,
	}
}

// CreateQuestionnaire creates a questionnaire with its ordered questions
func (qc *QuestionnaireController) CreateQuestionnaire(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Title     string `json:"title" validate:"required,max=300"`
		Questions []struct {
			Label string `json:"label" validate:"required"`
			Role  string `json:"role" validate:"omitempty,oneof=contact_name contact_email contact_phone"`
		} `json:"questions" validate:"required,min=1,dive"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	questionnaire := models.Questionnaire{
		UserID:   user.ID,
		Title:    input.Title,
		IsActive: true,
	}
	for i, q := range input.Questions {
		questionnaire.Questions = append(questionnaire.Questions, models.Question{
			Position: i + 1,
			Label:    q.Label,
			Role:     q.Role,
		})
	}

	if err := qc.DB.Create(&questionnaire).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create questionnaire", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(questionnaire))
}

// GetQuestionnaires lists the current user's questionnaires
func (qc *QuestionnaireController) GetQuestionnaires(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var questionnaires []models.Questionnaire
	if err := qc.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&questionnaires).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch questionnaires", err)
	}

	return c.JSON(utils.SuccessResponse(questionnaires))
}

// GetQuestionnaire returns a questionnaire with its ordered questions
func (qc *QuestionnaireController) GetQuestionnaire(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var questionnaire models.Questionnaire
	if err := qc.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ? AND user_id = ?", c.Params("id"), user.ID).
		First(&questionnaire).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Questionnaire not found", nil)
	}

	return c.JSON(utils.SuccessResponse(questionnaire))
}
