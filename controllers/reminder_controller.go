package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"hoogi/worker"
)

type ReminderController struct {
	Reminders *worker.ReminderWorker
	Logger    logrus.FieldLogger
}

func NewReminderController(reminders *worker.ReminderWorker, logger logrus.FieldLogger) *ReminderController {
	return &ReminderController{
		Reminders: reminders,
		Logger:    logger,
	}
}

// RunReminders triggers a reminder sweep on demand. The hourly ticker
// covers normal operation; this endpoint exists for ops and testing.
func (rc *ReminderController) RunReminders(c *fiber.Ctx) error {
	sent, err := rc.Reminders.RunOnce(c.Context())
	if err != nil {
		rc.Logger.WithError(err).Error("manual reminder run failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":       "Reminders processed",
		"remindersSent": sent,
	})
}
