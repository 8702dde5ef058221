package automation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agus402/crm-no-country-sub000/internal/automation"
	"github.com/Agus402/crm-no-country-sub000/internal/model"
)

type fakeRuleRepo struct {
	rules   []model.Rule
	listErr error
}

func (f *fakeRuleRepo) ListActiveByTrigger(trigger model.TriggerKind) ([]model.Rule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Rule
	for _, r := range f.rules {
		if r.TriggerKind == trigger && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) GetByID(id uuid.UUID) (*model.Rule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			return &f.rules[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRuleRepo) Create(r *model.Rule) error { f.rules = append(f.rules, *r); return nil }

func (f *fakeRuleRepo) ListRules(offset, limit int, trigger, active string) ([]*model.Rule, int, error) {
	return nil, 0, nil
}

func (f *fakeRuleRepo) SetActive(id uuid.UUID, active bool) error { return nil }

type fakeQueueRepo struct {
	created   []model.QueueItem
	createErr error
}

func (f *fakeQueueRepo) Create(item *model.QueueItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.created = append(f.created, *item)
	return nil
}

func (f *fakeQueueRepo) GetByID(id uuid.UUID) (*model.QueueItem, error) { return nil, nil }
func (f *fakeQueueRepo) ListByStatus(status model.QueueStatus, limit int) ([]model.QueueItem, error) {
	return nil, nil
}
func (f *fakeQueueRepo) ClaimDue(now time.Time) ([]model.QueueItem, error)     { return nil, nil }
func (f *fakeQueueRepo) MarkCompleted(id uuid.UUID, executedAt time.Time) error { return nil }
func (f *fakeQueueRepo) MarkFailed(id uuid.UUID, errMsg string) error           { return nil }
func (f *fakeQueueRepo) CancelPendingByRule(ruleID uuid.UUID) (int64, error)    { return 0, nil }
func (f *fakeQueueRepo) CountByStatus() (map[string]int, error)                 { return nil, nil }

func immediateRule(trigger model.TriggerKind, actions string) model.Rule {
	return model.Rule{
		ID:          uuid.New(),
		Name:        "test rule",
		TriggerKind: trigger,
		Actions:     actions,
		Active:      true,
	}
}

func TestOnEvent_ImmediateRuleRunsSynchronously(t *testing.T) {
	rules := &fakeRuleRepo{rules: []model.Rule{
		immediateRule(model.TriggerLeadCreated, `[{"type":"SEND_EMAIL","body":"Hi {{name}}","subject":"Welcome"}]`),
	}}
	queueRepo := &fakeQueueRepo{}
	mailer := &fakeMailer{}
	engine := automation.NewEngine(rules, queueRepo, automation.NewDispatcher(&fakeTemplateRepo{}, mailer, &fakeMessenger{}))

	err := engine.OnEvent(context.Background(), model.TriggerLeadCreated, &model.Lead{ID: 1, Name: "Alice", Email: "alice@acme.test"})

	require.NoError(t, err)
	assert.Len(t, mailer.sent, 1)
	assert.Empty(t, queueRepo.created, "immediate rules must not create queue items")
}

func TestOnEvent_DelayedRuleCreatesQueueItem(t *testing.T) {
	rule := immediateRule(model.TriggerDemoCompleted, `[{"type":"SEND_EMAIL","body":"hi"}]`)
	rule.WaitDays = 1
	rules := &fakeRuleRepo{rules: []model.Rule{rule}}
	queueRepo := &fakeQueueRepo{}
	mailer := &fakeMailer{}
	engine := automation.NewEngine(rules, queueRepo, automation.NewDispatcher(&fakeTemplateRepo{}, mailer, &fakeMessenger{}))

	before := time.Now()
	err := engine.OnEvent(context.Background(), model.TriggerDemoCompleted, &model.Lead{ID: 1, Email: "a@b.test"})
	after := time.Now()

	require.NoError(t, err)
	assert.Empty(t, mailer.sent, "delayed rules must not execute inline")
	require.Len(t, queueRepo.created, 1)

	item := queueRepo.created[0]
	assert.Equal(t, rule.ID, item.RuleID)
	assert.Equal(t, 1, item.LeadID)
	assert.Equal(t, model.QueueStatusPending, item.Status)
	assert.WithinRange(t, item.ScheduledAt, before.Add(24*time.Hour), after.Add(24*time.Hour))
}

func TestOnEvent_WaitHoursAddToDelay(t *testing.T) {
	rule := immediateRule(model.TriggerInvoiceSent, `[{"type":"SEND_EMAIL","body":"hi"}]`)
	rule.WaitHours = 4
	rules := &fakeRuleRepo{rules: []model.Rule{rule}}
	queueRepo := &fakeQueueRepo{}
	engine := automation.NewEngine(rules, queueRepo, automation.NewDispatcher(&fakeTemplateRepo{}, &fakeMailer{}, &fakeMessenger{}))

	before := time.Now()
	require.NoError(t, engine.OnEvent(context.Background(), model.TriggerInvoiceSent, &model.Lead{ID: 2}))

	require.Len(t, queueRepo.created, 1)
	assert.WithinRange(t, queueRepo.created[0].ScheduledAt,
		before.Add(4*time.Hour), time.Now().Add(4*time.Hour))
}

func TestOnEvent_RuleFetchFailureIsFatal(t *testing.T) {
	rules := &fakeRuleRepo{listErr: errors.New("db down")}
	engine := automation.NewEngine(rules, &fakeQueueRepo{}, automation.NewDispatcher(&fakeTemplateRepo{}, &fakeMailer{}, &fakeMessenger{}))

	err := engine.OnEvent(context.Background(), model.TriggerLeadCreated, &model.Lead{ID: 1})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestOnEvent_OneFailingRuleDoesNotAbortSiblings(t *testing.T) {
	failing := immediateRule(model.TriggerLeadCreated, `[{"type":"SEND_EMAIL","template_id":99}]`)
	healthy := immediateRule(model.TriggerLeadCreated, `[{"type":"SEND_MESSAGE","body":"hello {{name}}"}]`)
	rules := &fakeRuleRepo{rules: []model.Rule{failing, healthy}}
	messenger := &fakeMessenger{}
	engine := automation.NewEngine(rules, &fakeQueueRepo{},
		automation.NewDispatcher(&fakeTemplateRepo{}, &fakeMailer{}, messenger))

	err := engine.OnEvent(context.Background(), model.TriggerLeadCreated,
		&model.Lead{ID: 1, Name: "Alice", Email: "a@b.test", Phone: "+1"})

	// The failure is still reported to the caller that raised the event.
	require.Error(t, err)
	assert.Len(t, messenger.sent, 1, "second rule must still run")
}

func TestOnEvent_MalformedActionsPerformNoWork(t *testing.T) {
	rules := &fakeRuleRepo{rules: []model.Rule{
		immediateRule(model.TriggerLeadCreated, `this is not a definition`),
	}}
	mailer := &fakeMailer{}
	engine := automation.NewEngine(rules, &fakeQueueRepo{},
		automation.NewDispatcher(&fakeTemplateRepo{}, mailer, &fakeMessenger{}))

	err := engine.OnEvent(context.Background(), model.TriggerLeadCreated, &model.Lead{ID: 1, Email: "a@b.test"})

	assert.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestExecuteActions_StopsAtFirstDispatchFailure(t *testing.T) {
	rule := immediateRule(model.TriggerLeadCreated,
		`[{"type":"SEND_EMAIL","template_id":99},{"type":"SEND_MESSAGE","body":"hi"}]`)
	messenger := &fakeMessenger{}
	engine := automation.NewEngine(&fakeRuleRepo{}, &fakeQueueRepo{},
		automation.NewDispatcher(&fakeTemplateRepo{}, &fakeMailer{}, messenger))

	err := engine.ExecuteActions(context.Background(), &rule, &model.Lead{ID: 1, Email: "a@b.test", Phone: "+1"})

	require.Error(t, err)
	assert.Empty(t, messenger.sent)
}
