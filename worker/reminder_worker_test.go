package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hoogi/models"
	"hoogi/provider"
	"hoogi/utils"
)

type fakeReminderStore struct {
	dists     []models.Distribution
	templates []models.AutomationTemplate
	leads     []models.Lead
	history   []models.ReminderLog
	questions map[uint][]models.Question
	owners    map[uint]*models.User

	attempts []models.ReminderLog
	touched  map[uint]time.Time
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{
		questions: make(map[uint][]models.Question),
		owners:    make(map[uint]*models.User),
		touched:   make(map[uint]time.Time),
	}
}

func (s *fakeReminderStore) ActiveDistributions() ([]models.Distribution, error) {
	return s.dists, nil
}

func (s *fakeReminderStore) ReminderTemplates(ids []uint) ([]models.AutomationTemplate, error) {
	wanted := make(map[uint]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.AutomationTemplate
	for _, t := range s.templates {
		if wanted[t.ID] && t.IncludeReminder {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeReminderStore) EligibleLeads() ([]models.Lead, error) {
	return s.leads, nil
}

func (s *fakeReminderStore) SentHistory(leadIDs []uint) ([]models.ReminderLog, error) {
	wanted := make(map[uint]bool, len(leadIDs))
	for _, id := range leadIDs {
		wanted[id] = true
	}
	var out []models.ReminderLog
	for _, entry := range s.history {
		if wanted[entry.LeadID] && entry.Status == models.ReminderStatusSent {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *fakeReminderStore) Questions(questionnaireID uint) ([]models.Question, error) {
	return s.questions[questionnaireID], nil
}

func (s *fakeReminderStore) Owner(userID uint) (*models.User, error) {
	return s.owners[userID], nil
}

func (s *fakeReminderStore) RecordAttempt(entry *models.ReminderLog) error {
	s.attempts = append(s.attempts, *entry)
	return nil
}

func (s *fakeReminderStore) TouchLead(leadID uint, at time.Time) error {
	s.touched[leadID] = at
	return nil
}

type fakeReminderLease struct {
	held     bool
	acquired int
	released int
}

func (l *fakeReminderLease) Acquire(context.Context) (bool, error) {
	l.acquired++
	return !l.held, nil
}

func (l *fakeReminderLease) Release(context.Context) error {
	l.released++
	return nil
}

// flakyEmailSender fails only for one recipient, so a batch can mix
// successes and failures.
type flakyEmailSender struct {
	failTo string
	sent   []provider.EmailMessage
}

func (f *flakyEmailSender) SendEmail(_ context.Context, msg provider.EmailMessage) (*provider.Result, error) {
	if msg.To == f.failTo {
		return nil, &provider.Error{Provider: "resend", StatusCode: 500, Body: "upstream down"}
	}
	f.sent = append(f.sent, msg)
	return &provider.Result{Provider: "resend", ID: "em_1"}, nil
}

func reminderFixtureStore() *fakeReminderStore {
	store := newFakeReminderStore()

	store.owners[1] = &models.User{
		Model:   gorm.Model{ID: 1},
		Company: "Acme",
		ReplyTo: "owner@acme.com",
	}
	store.questions[5] = []models.Question{
		{Model: gorm.Model{ID: 1}, QuestionnaireID: 5, Position: 1, Role: models.RoleContactName},
		{Model: gorm.Model{ID: 2}, QuestionnaireID: 5, Position: 2, Role: models.RoleContactEmail},
		{Model: gorm.Model{ID: 3}, QuestionnaireID: 5, Position: 3, Role: models.RoleContactPhone},
	}
	store.templates = []models.AutomationTemplate{{
		Model:             gorm.Model{ID: 10},
		UserID:            1,
		Name:              "follow up",
		MessageType:       models.MessageTypePersonal,
		Subject:           "שלום {{firstName}}",
		Body:              "תזכורת מ{{businessName}}",
		IncludeReminder:   true,
		ReminderDays:      1,
		ReminderFrequency: models.FrequencyCustomDays,
	}}
	store.dists = []models.Distribution{{
		Model:           gorm.Model{ID: 20},
		UserID:          1,
		QuestionnaireID: 5,
		Token:           "tok1",
		IsActive:        true,
		TemplateMappings: []models.TemplateMapping{
			{TemplateID: 10, Channels: []string{models.ChannelEmail}},
		},
	}}
	return store
}

func fixtureLead(id uint, email string, createdAgo time.Duration) models.Lead {
	return models.Lead{
		Model:             gorm.Model{ID: id, CreatedAt: time.Now().Add(-createdAgo)},
		UserID:            1,
		QuestionnaireID:   5,
		DistributionToken: "tok1",
		Status:            "new",
		Answers: map[string]string{
			"1": "Dana Cohen",
			"2": email,
			"3": "+972501234567",
		},
	}
}

func newTestReminderWorker(store ReminderStore, email provider.EmailSender, lease ReminderLease) *ReminderWorker {
	return NewReminderWorker(store, email, &fakeWhatsAppSender{}, lease, testLogger(), utils.ReminderPolicy{})
}

func TestRunOnceSendsDueReminder(t *testing.T) {
	store := reminderFixtureStore()
	store.leads = []models.Lead{fixtureLead(100, "dana@example.com", 48*time.Hour)}
	email := &flakyEmailSender{}
	lease := &fakeReminderLease{}

	w := newTestReminderWorker(store, email, lease)

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "dana@example.com", email.sent[0].To)
	assert.Equal(t, "שלום Dana", email.sent[0].Subject)
	assert.Contains(t, email.sent[0].Text, "תזכורת מAcme")
	assert.Equal(t, "owner@acme.com", email.sent[0].ReplyTo)

	require.Len(t, store.attempts, 1)
	assert.Equal(t, models.ReminderStatusSent, store.attempts[0].Status)
	assert.Equal(t, uint(100), store.attempts[0].LeadID)
	assert.Equal(t, uint(10), store.attempts[0].TemplateID)
	assert.Equal(t, models.ChannelEmail, store.attempts[0].Channel)

	assert.Contains(t, store.touched, uint(100))
	assert.Equal(t, 1, lease.released)
}

func TestRunOnceLeaseHeldElsewhere(t *testing.T) {
	store := reminderFixtureStore()
	store.leads = []models.Lead{fixtureLead(100, "dana@example.com", 48*time.Hour)}
	email := &flakyEmailSender{}
	lease := &fakeReminderLease{held: true}

	w := newTestReminderWorker(store, email, lease)

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	assert.Empty(t, email.sent)
	assert.Empty(t, store.attempts)
	assert.Zero(t, lease.released, "a lease that was never acquired is not released")
}

func TestRunOncePerTemplateHistory(t *testing.T) {
	store := reminderFixtureStore()
	second := store.templates[0]
	second.ID = 11
	second.Name = "second follow up"
	store.templates = append(store.templates, second)
	store.dists[0].TemplateMappings = []models.TemplateMapping{
		{TemplateID: 10, Channels: []string{models.ChannelEmail}},
		{TemplateID: 11, Channels: []string{models.ChannelEmail}},
	}
	store.leads = []models.Lead{fixtureLead(100, "dana@example.com", 72*time.Hour)}

	// template 10 already reached this lead recently; template 11 never did
	store.history = []models.ReminderLog{{
		LeadID:     100,
		TemplateID: 10,
		Status:     models.ReminderStatusSent,
		SentAt:     time.Now().Add(-2 * time.Hour),
	}}

	email := &flakyEmailSender{}
	w := newTestReminderWorker(store, email, &fakeReminderLease{})

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "history for one template must not suppress the other")

	require.Len(t, store.attempts, 1)
	assert.Equal(t, uint(11), store.attempts[0].TemplateID)
}

func TestRunOnceLegacyTimestampFallback(t *testing.T) {
	store := reminderFixtureStore()
	recent := fixtureLead(100, "dana@example.com", 72*time.Hour)
	recent.LastReminderSentAt = timePtr(time.Now().Add(-2 * time.Hour))
	overdue := fixtureLead(101, "yossi@example.com", 72*time.Hour)
	store.leads = []models.Lead{recent, overdue}

	email := &flakyEmailSender{}
	w := newTestReminderWorker(store, email, &fakeReminderLease{})

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "without log rows the legacy timestamp still gates the lead")

	require.Len(t, email.sent, 1)
	assert.Equal(t, "yossi@example.com", email.sent[0].To)
}

func TestRunOnceSkipsAITemplates(t *testing.T) {
	store := reminderFixtureStore()
	store.templates[0].MessageType = models.MessageTypeAI
	store.leads = []models.Lead{fixtureLead(100, "dana@example.com", 48*time.Hour)}

	email := &flakyEmailSender{}
	w := newTestReminderWorker(store, email, &fakeReminderLease{})

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, email.sent)
	assert.Empty(t, store.attempts, "ai templates are skipped before any dispatch")
}

func TestRunOnceFailureIsolation(t *testing.T) {
	store := reminderFixtureStore()
	store.leads = []models.Lead{
		fixtureLead(100, "dana@example.com", 48*time.Hour),
		fixtureLead(101, "yossi@example.com", 48*time.Hour),
	}
	email := &flakyEmailSender{failTo: "dana@example.com"}
	w := newTestReminderWorker(store, email, &fakeReminderLease{})

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "failed dispatches do not count as sent")

	require.Len(t, store.attempts, 2)
	byLead := make(map[uint]models.ReminderLog, 2)
	for _, attempt := range store.attempts {
		byLead[attempt.LeadID] = attempt
	}
	assert.Equal(t, models.ReminderStatusFailed, byLead[100].Status)
	assert.Contains(t, byLead[100].ErrorMessage, "upstream down")
	assert.Equal(t, models.ReminderStatusSent, byLead[101].Status)

	assert.NotContains(t, store.touched, uint(100), "failed leads keep their timestamp")
	assert.Contains(t, store.touched, uint(101))
}

func TestRunOnceMissingContactEmailRecordsFailure(t *testing.T) {
	store := reminderFixtureStore()
	lead := fixtureLead(100, "", 48*time.Hour)
	delete(lead.Answers, "2")
	store.leads = []models.Lead{lead}

	email := &flakyEmailSender{}
	w := newTestReminderWorker(store, email, &fakeReminderLease{})

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	require.Len(t, store.attempts, 1)
	assert.Equal(t, models.ReminderStatusFailed, store.attempts[0].Status)
	assert.Contains(t, store.attempts[0].ErrorMessage, "no contact email")
}

func timePtr(t time.Time) *time.Time {
	return &t
}
