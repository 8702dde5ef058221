// internal/controller/automation_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appErrors "github.com/Agus402/crm-no-country-sub000/internal/errors"
	"github.com/Agus402/crm-no-country-sub000/internal/queue"
	"github.com/Agus402/crm-no-country-sub000/internal/service"
)

type AutomationController struct {
	RuleService *service.RuleService
	Bus         queue.Publisher
}

func (c *AutomationController) CreateRule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string `json:"name"`
		TriggerKind  string `json:"trigger_kind"`
		TriggerValue string `json:"trigger_value"`
		Actions      string `json:"actions"`
		Active       *bool  `json:"active"`
		WaitDays     int    `json:"wait_days"`
		WaitHours    int    `json:"wait_hours"`
		CreatedBy    int    `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	rule, err := c.RuleService.CreateRule(service.CreateRuleInput{
		Name:         body.Name,
		TriggerKind:  body.TriggerKind,
		TriggerValue: body.TriggerValue,
		Actions:      body.Actions,
		Active:       body.Active,
		WaitDays:     body.WaitDays,
		WaitHours:    body.WaitHours,
		CreatedBy:    body.CreatedBy,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rule)
}

func (c *AutomationController) ListRules(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	trigger := r.URL.Query().Get("trigger_kind")
	active := r.URL.Query().Get("active")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	rules, pagination, err := c.RuleService.ListRules(page, pageSize, trigger, active)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       rules,
		"pagination": pagination,
	})
}

func (c *AutomationController) GetRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid rule id", http.StatusBadRequest)
		return
	}

	rule, err := c.RuleService.GetRule(id)
	if err != nil {
		var notFound *appErrors.ErrRuleNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

func (c *AutomationController) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid rule id", http.StatusBadRequest)
		return
	}

	if err := c.RuleService.SetRuleActive(id, active); err != nil {
		var notFound *appErrors.ErrRuleNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     id,
		"active": active,
	})
}

func (c *AutomationController) ActivateRule(w http.ResponseWriter, r *http.Request) {
	c.setActive(w, r, true)
}

func (c *AutomationController) DeactivateRule(w http.ResponseWriter, r *http.Request) {
	c.setActive(w, r, false)
}

// RenderPreview returns a template rendered against a real lead, without
// sending anything.
func (c *AutomationController) RenderPreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TemplateID   int     `json:"template_id"`
		LeadID       int     `json:"lead_id"`
		OverrideBody *string `json:"override_body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	rendered, err := c.RuleService.RenderPreview(body.TemplateID, body.LeadID, body.OverrideBody)
	if err != nil {
		var tplNotFound *appErrors.ErrTemplateNotFound
		var leadNotFound *appErrors.ErrLeadNotFound
		if errors.As(err, &tplNotFound) || errors.As(err, &leadNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rendered_message": rendered,
		"lead_id":          body.LeadID,
	})
}

// FireEvent injects a domain event onto the bus. Immediate rules run before
// the response is written; delayed rules become queue items.
func (c *AutomationController) FireEvent(w http.ResponseWriter, r *http.Request) {
	var ev queue.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.Bus.Publish(ev); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"event":   ev.Trigger,
		"lead_id": ev.LeadID,
		"status":  "dispatched",
	})
}
