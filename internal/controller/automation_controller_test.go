package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Agus402/crm-no-country-sub000/internal/errors"
	"github.com/Agus402/crm-no-country-sub000/internal/model"
	"github.com/Agus402/crm-no-country-sub000/internal/queue"
	"github.com/Agus402/crm-no-country-sub000/internal/service"
)

type fakeRuleRepo struct {
	rules   map[uuid.UUID]*model.Rule
	created []*model.Rule
}

func (f *fakeRuleRepo) ListActiveByTrigger(trigger model.TriggerKind) ([]model.Rule, error) {
	return nil, nil
}

func (f *fakeRuleRepo) GetByID(id uuid.UUID) (*model.Rule, error) {
	return f.rules[id], nil
}

func (f *fakeRuleRepo) Create(r *model.Rule) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	f.created = append(f.created, r)
	f.rules[r.ID] = r
	return nil
}

func (f *fakeRuleRepo) ListRules(offset, limit int, trigger, active string) ([]*model.Rule, int, error) {
	var out []*model.Rule
	for _, r := range f.rules {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (f *fakeRuleRepo) SetActive(id uuid.UUID, active bool) error {
	if r, ok := f.rules[id]; ok {
		r.Active = active
	}
	return nil
}

type fakeLeadRepo struct {
	leads map[int]*model.Lead
}

func (f *fakeLeadRepo) GetByID(id int) (*model.Lead, error) { return f.leads[id], nil }

type fakeTemplateRepo struct {
	templates map[int]*model.MessageTemplate
}

func (f *fakeTemplateRepo) GetByID(id int) (*model.MessageTemplate, error) {
	return f.templates[id], nil
}

type fakeQueueRepo struct {
	cancelled []uuid.UUID
}

func (f *fakeQueueRepo) Create(item *model.QueueItem) error             { return nil }
func (f *fakeQueueRepo) GetByID(id uuid.UUID) (*model.QueueItem, error) { return nil, nil }
func (f *fakeQueueRepo) ListByStatus(status model.QueueStatus, limit int) ([]model.QueueItem, error) {
	return nil, nil
}
func (f *fakeQueueRepo) ClaimDue(now time.Time) ([]model.QueueItem, error)      { return nil, nil }
func (f *fakeQueueRepo) MarkCompleted(id uuid.UUID, executedAt time.Time) error { return nil }
func (f *fakeQueueRepo) MarkFailed(id uuid.UUID, errMsg string) error           { return nil }
func (f *fakeQueueRepo) CancelPendingByRule(ruleID uuid.UUID) (int64, error) {
	f.cancelled = append(f.cancelled, ruleID)
	return 0, nil
}
func (f *fakeQueueRepo) CountByStatus() (map[string]int, error) { return nil, nil }

type recordingBus struct {
	published []queue.Event
	err       error
}

func (b *recordingBus) Publish(ev queue.Event) error {
	b.published = append(b.published, ev)
	return b.err
}

func newTestController() (*AutomationController, *fakeRuleRepo, *recordingBus) {
	ruleRepo := &fakeRuleRepo{rules: map[uuid.UUID]*model.Rule{}}
	bus := &recordingBus{}
	ctrl := &AutomationController{
		RuleService: &service.RuleService{
			RuleRepo:     ruleRepo,
			LeadRepo:     &fakeLeadRepo{leads: map[int]*model.Lead{1: {ID: 1, Name: "Alice", Company: "Acme"}}},
			TemplateRepo: &fakeTemplateRepo{templates: map[int]*model.MessageTemplate{2: {ID: 2, Body: "Hi {{name}}"}}},
			QueueRepo:    &fakeQueueRepo{},
		},
		Bus: bus,
	}
	return ctrl, ruleRepo, bus
}

func TestCreateRule_Returns201(t *testing.T) {
	ctrl, ruleRepo, _ := newTestController()

	body := `{"name":"Welcome email","trigger_kind":"lead_created","actions":"[{\"type\":\"SEND_EMAIL\",\"template_id\":2}]","created_by":1}`
	req := httptest.NewRequest(http.MethodPost, "/rules", strings.NewReader(body))
	w := httptest.NewRecorder()

	ctrl.CreateRule(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, ruleRepo.created, 1)

	var resp model.Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Welcome email", resp.Name)
	assert.True(t, resp.Active)
}

func TestCreateRule_BadTriggerReturns400(t *testing.T) {
	ctrl, _, _ := newTestController()

	body := `{"name":"x","trigger_kind":"lead_vanished"}`
	req := httptest.NewRequest(http.MethodPost, "/rules", strings.NewReader(body))
	w := httptest.NewRecorder()

	ctrl.CreateRule(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown trigger kind")
}

func TestGetRule_UnknownIDReturns404(t *testing.T) {
	ctrl, _, _ := newTestController()

	router := chi.NewRouter()
	router.Get("/rules/{id}", ctrl.GetRule)

	req := httptest.NewRequest(http.MethodGet, "/rules/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRule_MalformedIDReturns400(t *testing.T) {
	ctrl, _, _ := newTestController()

	router := chi.NewRouter()
	router.Get("/rules/{id}", ctrl.GetRule)

	req := httptest.NewRequest(http.MethodGet, "/rules/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeactivateRule_TogglesAndReportsState(t *testing.T) {
	ctrl, ruleRepo, _ := newTestController()
	rule := &model.Rule{ID: uuid.New(), Name: "Follow-up", TriggerKind: model.TriggerDemoCompleted, Active: true}
	ruleRepo.rules[rule.ID] = rule

	router := chi.NewRouter()
	router.Post("/rules/{id}/deactivate", ctrl.DeactivateRule)

	req := httptest.NewRequest(http.MethodPost, "/rules/"+rule.ID.String()+"/deactivate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, rule.Active)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["active"])
}

func TestRenderPreview_RendersAgainstLead(t *testing.T) {
	ctrl, _, _ := newTestController()

	body := `{"template_id":2,"lead_id":1}`
	req := httptest.NewRequest(http.MethodPost, "/rules/preview", strings.NewReader(body))
	w := httptest.NewRecorder()

	ctrl.RenderPreview(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hi Alice", resp["rendered_message"])
}

func TestRenderPreview_MissingTemplateReturns404(t *testing.T) {
	ctrl, _, _ := newTestController()

	body := `{"template_id":99,"lead_id":1}`
	req := httptest.NewRequest(http.MethodPost, "/rules/preview", strings.NewReader(body))
	w := httptest.NewRecorder()

	ctrl.RenderPreview(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRenderPreview_MissingLeadReturns404(t *testing.T) {
	ctrl, _, _ := newTestController()

	body := `{"template_id":2,"lead_id":404}`
	req := httptest.NewRequest(http.MethodPost, "/rules/preview", strings.NewReader(body))
	w := httptest.NewRecorder()

	ctrl.RenderPreview(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFireEvent_PublishesToBus(t *testing.T) {
	ctrl, _, bus := newTestController()

	body := `{"event":"lead_created","lead_id":1}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	w := httptest.NewRecorder()

	ctrl.FireEvent(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, bus.published, 1)
	assert.Equal(t, model.TriggerLeadCreated, bus.published[0].Trigger)
	assert.Equal(t, 1, bus.published[0].LeadID)
}

func TestFireEvent_BusErrorReturns502(t *testing.T) {
	ctrl, _, bus := newTestController()
	bus.err = appErrors.NewDispatchError("SEND_EMAIL", assert.AnError)

	body := `{"event":"lead_created","lead_id":1}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	w := httptest.NewRecorder()

	ctrl.FireEvent(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
