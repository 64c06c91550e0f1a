package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	redis "github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"hoogi/config"
	"hoogi/middleware"
	"hoogi/provider"
	"hoogi/routes"
	"hoogi/utils"
	"hoogi/worker"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if dsn := config.AppConfig.SentryDSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			log.Fatalf("Failed to initialize Sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := config.ConnectDB(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	email := buildEmailSender(log)
	whatsapp := provider.NewWhatsAppSender(
		config.AppConfig.WhatsAppAPIToken,
		config.AppConfig.WhatsAppPhoneID,
	)

	// Redis is optional: without it the reminder lease always grants,
	// which is fine for single-instance deployments.
	var redisClient *redis.Client
	if config.AppConfig.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.AppConfig.Redis.Address,
			Password: config.AppConfig.Redis.Password,
			DB:       config.AppConfig.Redis.DB,
		})
	} else {
		log.Warn("Redis disabled, reminder runs are not guarded against overlap")
	}
	lease := utils.NewLease(redisClient, "hoogi:reminder:lease", 30*time.Minute)

	queueWorker := worker.NewQueueWorker(
		worker.NewGormQueueStore(config.DB),
		email,
		whatsapp,
		log.WithField("component", "queue"),
		time.Duration(config.AppConfig.QueueIntervalSeconds)*time.Second,
		config.AppConfig.QueueBatchSize,
	)
	reminderWorker := worker.NewReminderWorker(
		worker.NewGormReminderStore(config.DB),
		email,
		whatsapp,
		lease,
		log.WithField("component", "reminders"),
		utils.ReminderPolicy{
			UnknownFrequencyOpen: config.AppConfig.ReminderUnknownFrequency == "open",
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queueWorker.Start(ctx)
	go reminderWorker.Start(ctx)

	app := fiber.New()
	app.Use(middleware.CORS())

	routes.SetupRoutes(app, config.DB, queueWorker, reminderWorker, log)

	log.Infof("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildEmailSender picks the email transport: the Resend REST API when
// an API key is set, SMTP when a host is set, otherwise a simulated
// sender that only logs.
func buildEmailSender(log *logrus.Logger) provider.EmailSender {
	cfg := config.AppConfig
	switch {
	case cfg.ResendAPIKey != "":
		log.Info("Email dispatch via Resend")
		return provider.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	case cfg.SMTPHost != "":
		log.Info("Email dispatch via SMTP")
		return provider.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	default:
		log.Warn("No email provider configured, running in simulated mode")
		return provider.NewResendSender("", cfg.EmailFrom)
	}
}
