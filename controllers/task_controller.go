package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hoogi/models"
	"hoogi/utils"
	"hoogi/worker"
)

type TaskController struct {
	DB     *gorm.DB
	Queue  *worker.QueueWorker
	Logger logrus.FieldLogger
}

func NewTaskController(db *gorm.DB, queue *worker.QueueWorker, logger logrus.FieldLogger) *TaskController {
	return &TaskController{
		DB:     db,
		Queue:  queue,
		Logger: logger,
	}
}

// GetTasks lists automation tasks, optionally filtered by status
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit > 200 {
		limit = 200
	}

	query := tc.DB.Where("user_id = ?", user.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []models.AutoTask
	if err := query.Order("created_at DESC").Limit(limit).Find(&tasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tasks", err)
	}

	return c.JSON(utils.SuccessResponse(tasks))
}

// ProcessQueue triggers one queue drain on demand, in addition to the
// background ticker. Used for manual testing and ops.
func (tc *TaskController) ProcessQueue(c *fiber.Ctx) error {
	processed, err := tc.Queue.ProcessQueue(c.Context())
	if err != nil {
		tc.Logger.WithError(err).Error("manual queue processing failed")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process queue", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"processed": processed,
	}))
}
