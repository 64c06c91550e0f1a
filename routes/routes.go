package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "hoogi/controllers"
	"hoogi/middleware"
	"hoogi/worker"
)

// SetupRoutes registers every HTTP endpoint. All business routes live
// under /api/v1 and require a valid JWT.
func SetupRoutes(app *fiber.App, db *gorm.DB, queue *worker.QueueWorker, reminders *worker.ReminderWorker, log *logrus.Logger) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	templateController := controller.NewTemplateController(db, log.WithField("component", "templates"))
	questionnaireController := controller.NewQuestionnaireController(db, log.WithField("component", "questionnaires"))
	distributionController := controller.NewDistributionController(db, log.WithField("component", "distributions"))
	leadController := controller.NewLeadController(db, log.WithField("component", "leads"))
	taskController := controller.NewTaskController(db, queue, log.WithField("component", "tasks"))
	reminderController := controller.NewReminderController(reminders, log.WithField("component", "reminders"))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Template routes
	template := api.Group("/templates")
	template.Post("/", templateController.CreateTemplate)
	template.Get("/", templateController.GetTemplates)
	template.Get("/:id", templateController.GetTemplate)
	template.Put("/:id", templateController.UpdateTemplate)
	template.Delete("/:id", templateController.DeleteTemplate)

	// Questionnaire routes
	questionnaire := api.Group("/questionnaires")
	questionnaire.Post("/", questionnaireController.CreateQuestionnaire)
	questionnaire.Get("/", questionnaireController.GetQuestionnaires)
	questionnaire.Get("/:id", questionnaireController.GetQuestionnaire)

	// Distribution routes
	distribution := api.Group("/distributions")
	distribution.Post("/", distributionController.CreateDistribution)
	distribution.Get("/", distributionController.GetDistributions)
	distribution.Put("/:id", distributionController.UpdateDistribution)

	// Lead routes
	lead := api.Group("/leads")
	lead.Post("/", leadController.CreateLead)
	lead.Get("/", leadController.GetLeads)
	lead.Get("/:id", leadController.GetLead)

	// Task queue routes
	task := api.Group("/tasks")
	task.Get("/", taskController.GetTasks)
	task.Post("/process", taskController.ProcessQueue)

	// Reminder routes
	reminder := api.Group("/reminders")
	reminder.Post("/run", reminderController.RunReminders)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	log.Info("API routes initialized successfully")
}
