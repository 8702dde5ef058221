// internal/service/rule_service.go
package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Agus402/crm-no-country-sub000/internal/automation"
	appErrors "github.com/Agus402/crm-no-country-sub000/internal/errors"
	"github.com/Agus402/crm-no-country-sub000/internal/model"
	"github.com/Agus402/crm-no-country-sub000/internal/repository"
)

type RuleService struct {
	RuleRepo     repository.RuleRepositoryInterface
	LeadRepo     repository.LeadRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	QueueRepo    repository.QueueItemRepositoryInterface
}

// Input struct for CreateRule
type CreateRuleInput struct {
	Name         string
	TriggerKind  string
	TriggerValue string
	Actions      string
	Active       *bool
	WaitDays     int
	WaitHours    int
	CreatedBy    int
}

func (s *RuleService) CreateRule(in CreateRuleInput) (*model.Rule, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	trigger := model.TriggerKind(in.TriggerKind)
	if !trigger.Valid() {
		return nil, fmt.Errorf("unknown trigger kind: %s", in.TriggerKind)
	}
	if in.WaitDays < 0 || in.WaitHours < 0 {
		return nil, fmt.Errorf("wait_days and wait_hours must not be negative")
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	r := &model.Rule{
		Name:         in.Name,
		TriggerKind:  trigger,
		TriggerValue: in.TriggerValue,
		Actions:      in.Actions,
		Active:       active,
		WaitDays:     in.WaitDays,
		WaitHours:    in.WaitHours,
		CreatedBy:    in.CreatedBy,
	}
	if err := s.RuleRepo.Create(r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRules fetches rules with pagination
func (s *RuleService) ListRules(page, pageSize int, trigger, active string) ([]model.Rule, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.RuleRepo.ListRules(offset, pageSize, trigger, active)
	if err != nil {
		return nil, nil, err
	}

	rules := make([]model.Rule, len(ptrs))
	for i, r := range ptrs {
		rules[i] = *r
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return rules, pagination, nil
}

func (s *RuleService) GetRule(id uuid.UUID) (*model.Rule, error) {
	r, err := s.RuleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, appErrors.NewRuleNotFound(id.String())
	}
	return r, nil
}

// SetRuleActive toggles a rule. Deactivating also cancels the rule's
// still-pending queue items so delayed work for a switched-off rule never
// fires; items a poller already claimed run to their terminal state.
func (s *RuleService) SetRuleActive(id uuid.UUID, active bool) error {
	r, err := s.GetRule(id)
	if err != nil {
		return err
	}

	if err := s.RuleRepo.SetActive(r.ID, active); err != nil {
		return err
	}

	if !active {
		cancelled, err := s.QueueRepo.CancelPendingByRule(r.ID)
		if err != nil {
			return fmt.Errorf("cancel pending items: %w", err)
		}
		if cancelled > 0 {
			log.Printf("[service] cancelled %d pending queue items for rule %s", cancelled, r.ID)
		}
	}
	return nil
}

// RenderPreview renders a template (or an override body) against a lead,
// exactly the way the dispatcher will at execution time.
func (s *RuleService) RenderPreview(templateID, leadID int, overrideBody *string) (string, error) {
	lead, err := s.LeadRepo.GetByID(leadID)
	if err != nil {
		return "", err
	}
	if lead == nil {
		return "", appErrors.NewLeadNotFound(leadID)
	}

	if overrideBody != nil && strings.TrimSpace(*overrideBody) != "" {
		return automation.Render(*overrideBody, lead, nil), nil
	}

	tpl, err := s.TemplateRepo.GetByID(templateID)
	if err != nil {
		return "", err
	}
	if tpl == nil {
		return "", appErrors.NewTemplateNotFound(templateID)
	}
	return automation.Render(tpl.Body, lead, nil), nil
}
