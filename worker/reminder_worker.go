package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/badoux/checkmail"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hoogi/models"
	"hoogi/provider"
	"hoogi/utils"
)

// ReminderStore is the persistence surface the reminder orchestrator
// needs. The gorm implementation is used in production; tests supply
// fakes.
type ReminderStore interface {
	ActiveDistributions() ([]models.Distribution, error)
	ReminderTemplates(ids []uint) ([]models.AutomationTemplate, error)
	EligibleLeads() ([]models.Lead, error)
	SentHistory(leadIDs []uint) ([]models.ReminderLog, error)
	Questions(questionnaireID uint) ([]models.Question, error)
	Owner(userID uint) (*models.User, error)
	RecordAttempt(entry *models.ReminderLog) error
	TouchLead(leadID uint, at time.Time) error
}

// ReminderLease guards a reminder run against overlapping invocations.
// Satisfied by utils.Lease.
type ReminderLease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type gormReminderStore struct {
	db *gorm.DB
}

func NewGormReminderStore(db *gorm.DB) ReminderStore {
	return &gormReminderStore{db: db}
}

func (s *gormReminderStore) ActiveDistributions() ([]models.Distribution, error) {
	var dists []models.Distribution
	err := s.db.Where("is_active = ?", true).Find(&dists).Error
	return dists, err
}

func (s *gormReminderStore) ReminderTemplates(ids []uint) ([]models.AutomationTemplate, error) {
	var templates []models.AutomationTemplate
	err := s.db.Where("id IN ? AND include_reminder = ?", ids, true).Find(&templates).Error
	return templates, err
}

// EligibleLeads is the structural pre-filter: one aggregate query for
// the leads that arrived on an active distribution mapping at least one
// reminder-enabled template. Never iterated per lead.
func (s *gormReminderStore) EligibleLeads() ([]models.Lead, error) {
	var leads []models.Lead
	err := s.db.Model(&models.Lead{}).
		Joins("JOIN distributions d ON d.token = leads.distribution_token AND d.is_active = TRUE AND d.deleted_at IS NULL").
		Joins("JOIN LATERAL jsonb_array_elements(d.template_mappings) m ON TRUE").
		Joins("JOIN automation_templates t ON t.id = (m.value->>'template_id')::bigint AND t.include_reminder = TRUE AND t.deleted_at IS NULL").
		Distinct("leads.*").
		Find(&leads).Error
	return leads, err
}

func (s *gormReminderStore) SentHistory(leadIDs []uint) ([]models.ReminderLog, error) {
	var logs []models.ReminderLog
	err := s.db.
		Where("lead_id IN ? AND status = ?", leadIDs, models.ReminderStatusSent).
		Order("sent_at ASC").
		Find(&logs).Error
	return logs, err
}

func (s *gormReminderStore) Questions(questionnaireID uint) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.
		Where("questionnaire_id = ?", questionnaireID).
		Order("position ASC").
		Find(&questions).Error
	return questions, err
}

func (s *gormReminderStore) Owner(userID uint) (*models.User, error) {
	var owner models.User
	if err := s.db.First(&owner, userID).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

func (s *gormReminderStore) RecordAttempt(entry *models.ReminderLog) error {
	return s.db.Create(entry).Error
}

func (s *gormReminderStore) TouchLead(leadID uint, at time.Time) error {
	return s.db.Model(&models.Lead{}).
		Where("id = ?", leadID).
		Update("last_reminder_sent_at", at).Error
}

// ReminderWorker joins leads, distributions and templates once per
// hour, gates each (lead, template) pairing through the eligibility
// rules, renders the message and dispatches it per mapped channel.
type ReminderWorker struct {
	store    ReminderStore
	email    provider.EmailSender
	whatsapp provider.WhatsAppSender
	lease    ReminderLease
	logger   logrus.FieldLogger
	policy   utils.ReminderPolicy
}

func NewReminderWorker(store ReminderStore, email provider.EmailSender, whatsapp provider.WhatsAppSender, lease ReminderLease, logger logrus.FieldLogger, policy utils.ReminderPolicy) *ReminderWorker {
	return &ReminderWorker{
		store:    store,
		email:    email,
		whatsapp: whatsapp,
		lease:    lease,
		logger:   logger,
		policy:   policy,
	}
}

func (rw *ReminderWorker) Start(ctx context.Context) {
	rw.logger.Info("reminder worker started")

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("reminder worker shutting down")
			return
		case <-ticker.C:
			if _, err := rw.RunOnce(ctx); err != nil {
				rw.logger.WithError(err).Error("reminder run failed")
				sentry.CaptureException(err)
			}
		}
	}
}

type pairingKey struct {
	leadID     uint
	templateID uint
}

// RunOnce performs one reminder scan and returns how many reminders
// were sent. Per-lead failures are logged and recorded, never
// propagated; only failures of the aggregate queries abort the run.
func (rw *ReminderWorker) RunOnce(ctx context.Context) (int, error) {
	acquired, err := rw.lease.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire reminder lease: %w", err)
	}
	if !acquired {
		rw.logger.Info("reminder lease held elsewhere, skipping tick")
		return 0, nil
	}
	defer rw.lease.Release(ctx)

	now := time.Now()

	dists, err := rw.store.ActiveDistributions()
	if err != nil {
		return 0, fmt.Errorf("failed to load distributions: %w", err)
	}
	if len(dists) == 0 {
		return 0, nil
	}

	distByToken := make(map[string]*models.Distribution, len(dists))
	var templateIDs []uint
	for i := range dists {
		distByToken[dists[i].Token] = &dists[i]
		for _, mapping := range dists[i].TemplateMappings {
			templateIDs = append(templateIDs, mapping.TemplateID)
		}
	}
	if len(templateIDs) == 0 {
		return 0, nil
	}

	templates, err := rw.store.ReminderTemplates(templateIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load templates: %w", err)
	}
	if len(templates) == 0 {
		return 0, nil
	}

	templateByID := make(map[uint]*models.AutomationTemplate, len(templates))
	for i := range templates {
		templateByID[templates[i].ID] = &templates[i]
	}

	leads, err := rw.store.EligibleLeads()
	if err != nil {
		return 0, fmt.Errorf("failed to load leads: %w", err)
	}
	if len(leads) == 0 {
		return 0, nil
	}

	lastSent, err := rw.loadLastSent(leads)
	if err != nil {
		return 0, err
	}

	questionCache := make(map[uint][]models.Question)
	ownerCache := make(map[uint]*models.User)

	sent := 0
	skippedAI := 0

	for i := range leads {
		lead := &leads[i]

		dist, ok := distByToken[lead.DistributionToken]
		if !ok {
			continue
		}

		for _, mapping := range dist.TemplateMappings {
			tmpl, ok := templateByID[mapping.TemplateID]
			if !ok {
				continue
			}

			if tmpl.MessageType == models.MessageTypeAI {
				// AI reminder generation is not wired up; skip loudly
				// instead of passing eligibility and sending nothing.
				rw.logger.WithField("lead", lead.ID).WithField("template", tmpl.ID).
					Info("skipping ai template reminder")
				skippedAI++
				continue
			}

			last := lastSent[pairingKey{lead.ID, tmpl.ID}]
			if last == nil {
				// Pre-log leads only have the legacy single timestamp.
				last = lead.LastReminderSentAt
			}

			if !utils.IsReminderDue(lead, last, tmpl, now, rw.policy) {
				continue
			}

			if rw.dispatchReminder(ctx, lead, tmpl, mapping.Channels, questionCache, ownerCache, now) {
				sent++
			}
		}
	}

	rw.logger.WithField("sent", sent).WithField("skipped_ai", skippedAI).
		WithField("leads", len(leads)).Info("reminder run complete")

	return sent, nil
}

// loadLastSent maps each (lead, template) pairing to its most recent
// successful reminder.
func (rw *ReminderWorker) loadLastSent(leads []models.Lead) (map[pairingKey]*time.Time, error) {
	leadIDs := make([]uint, len(leads))
	for i, l := range leads {
		leadIDs[i] = l.ID
	}

	logs, err := rw.store.SentHistory(leadIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder history: %w", err)
	}

	out := make(map[pairingKey]*time.Time, len(logs))
	for i := range logs {
		entry := logs[i]
		out[pairingKey{entry.LeadID, entry.TemplateID}] = &entry.SentAt
	}
	return out, nil
}

// dispatchReminder renders and sends one reminder across the mapping's
// channels. Returns true if at least one channel delivered.
func (rw *ReminderWorker) dispatchReminder(ctx context.Context, lead *models.Lead, tmpl *models.AutomationTemplate, channels []string, questionCache map[uint][]models.Question, ownerCache map[uint]*models.User, now time.Time) bool {
	log := rw.logger.WithField("lead", lead.ID).WithField("template", tmpl.ID)

	questions, err := rw.questionsFor(lead.QuestionnaireID, questionCache)
	if err != nil {
		log.WithError(err).Error("failed to load questionnaire")
		return false
	}

	owner, err := rw.ownerFor(lead.UserID, ownerCache)
	if err != nil {
		log.WithError(err).Error("failed to load owner profile")
		return false
	}

	contact := utils.ExtractContact(questions, lead.Answers)

	subject := utils.RenderTokens(tmpl.Subject, contact, owner)
	body := utils.RenderTokens(tmpl.Body, contact, owner)

	delivered := false

	for _, channel := range channels {
		var err error

		switch channel {
		case models.ChannelEmail:
			err = rw.sendEmailReminder(ctx, contact, owner, tmpl, subject, body, now)

		case models.ChannelWhatsApp:
			err = rw.sendWhatsAppReminder(ctx, contact, body)

		case models.ChannelSMS:
			log.Info("sms reminders not implemented, skipping channel")
			continue

		default:
			log.WithField("channel", channel).Warn("unknown reminder channel")
			continue
		}

		entry := models.ReminderLog{
			UserID:     lead.UserID,
			LeadID:     lead.ID,
			TemplateID: tmpl.ID,
			Channel:    channel,
			SentAt:     now,
		}

		if err != nil {
			log.WithField("channel", channel).WithError(err).Error("reminder dispatch failed")
			sentry.CaptureException(err)
			entry.Status = models.ReminderStatusFailed
			entry.ErrorMessage = err.Error()
		} else {
			entry.Status = models.ReminderStatusSent
			delivered = true
		}

		if err := rw.store.RecordAttempt(&entry); err != nil {
			log.WithError(err).Error("failed to record reminder log")
		}
	}

	if delivered {
		if err := rw.store.TouchLead(lead.ID, now); err != nil {
			log.WithError(err).Error("failed to update lead reminder timestamp")
		}
	}

	return delivered
}

func (rw *ReminderWorker) sendEmailReminder(ctx context.Context, contact utils.Contact, owner *models.User, tmpl *models.AutomationTemplate, subject, body string, now time.Time) error {
	if contact.Email == "" {
		return fmt.Errorf("lead has no contact email")
	}
	if err := checkmail.ValidateFormat(contact.Email); err != nil {
		return fmt.Errorf("invalid contact email %q: %w", contact.Email, err)
	}

	html, err := utils.BuildMessageHTML(utils.MessageEmailData{
		BusinessName:  owner.Company,
		LogoURL:       owner.LogoURL,
		Body:          utils.BodyHTML(body),
		AttachmentURL: tmpl.AttachmentURL,
		LinkURL:       utils.EnsureScheme(tmpl.LinkURL),
		LinkLabel:     tmpl.LinkLabel,
		Year:          now.Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render reminder email: %w", err)
	}

	_, err = rw.email.SendEmail(ctx, provider.EmailMessage{
		To:      contact.Email,
		Subject: subject,
		HTML:    html,
		Text:    body,
		ReplyTo: owner.ReplyTo,
	})
	return err
}

func (rw *ReminderWorker) sendWhatsAppReminder(ctx context.Context, contact utils.Contact, body string) error {
	if contact.Phone == "" {
		return fmt.Errorf("lead has no contact phone")
	}
	_, err := rw.whatsapp.SendWhatsApp(ctx, contact.Phone, body)
	return err
}

func (rw *ReminderWorker) questionsFor(questionnaireID uint, cache map[uint][]models.Question) ([]models.Question, error) {
	if questions, ok := cache[questionnaireID]; ok {
		return questions, nil
	}

	questions, err := rw.store.Questions(questionnaireID)
	if err != nil {
		return nil, err
	}

	cache[questionnaireID] = questions
	return questions, nil
}

func (rw *ReminderWorker) ownerFor(userID uint, cache map[uint]*models.User) (*models.User, error) {
	if owner, ok := cache[userID]; ok {
		return owner, nil
	}

	owner, err := rw.store.Owner(userID)
	if err != nil {
		return nil, err
	}

	cache[userID] = owner
	return owner, nil
}
