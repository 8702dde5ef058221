package automation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Agus402/crm-no-country-sub000/internal/model"
	"github.com/Agus402/crm-no-country-sub000/internal/repository"
)

// Engine fans a domain event out to the active rules matching its trigger.
// Rules without a configured delay run synchronously; the rest become
// pending queue items the poller picks up later.
type Engine struct {
	rules      repository.RuleRepositoryInterface
	queue      repository.QueueItemRepositoryInterface
	dispatcher *Dispatcher
}

func NewEngine(rules repository.RuleRepositoryInterface, queue repository.QueueItemRepositoryInterface, dispatcher *Dispatcher) *Engine {
	return &Engine{rules: rules, queue: queue, dispatcher: dispatcher}
}

// OnEvent processes one domain event for one lead. A rule-fetch failure is
// fatal for the event. Failures of individual rules never abort the remaining
// rules; they are logged, collected, and returned joined so the caller that
// raised the event can still observe them.
func (e *Engine) OnEvent(ctx context.Context, trigger model.TriggerKind, lead *model.Lead) error {
	rules, err := e.rules.ListActiveByTrigger(trigger)
	if err != nil {
		return fmt.Errorf("list rules for %s: %w", trigger, err)
	}

	var errs []error
	for i := range rules {
		rule := &rules[i]

		delay := rule.TotalDelay()
		if delay == 0 {
			if err := e.ExecuteActions(ctx, rule, lead); err != nil {
				log.Printf("[engine] rule=%s lead=%d: %v", rule.ID, lead.ID, err)
				errs = append(errs, err)
			}
			continue
		}

		item := &model.QueueItem{
			RuleID:      rule.ID,
			LeadID:      lead.ID,
			ScheduledAt: time.Now().Add(delay),
			Status:      model.QueueStatusPending,
		}
		if err := e.queue.Create(item); err != nil {
			log.Printf("[engine] enqueue rule=%s lead=%d: %v", rule.ID, lead.ID, err)
			errs = append(errs, fmt.Errorf("enqueue rule %s: %w", rule.ID, err))
		}
	}
	return errors.Join(errs...)
}

// ExecuteActions re-derives the rule's action sequence from its stored
// definition and dispatches each action in order, stopping at the first
// dispatch failure. A rule whose definition parses to nothing performs no
// work.
func (e *Engine) ExecuteActions(ctx context.Context, rule *model.Rule, lead *model.Lead) error {
	actions := ParseActions(rule.Actions)
	if len(actions) == 0 {
		log.Printf("[engine] rule=%s has no usable actions", rule.ID)
		return nil
	}
	for _, action := range actions {
		if err := e.dispatcher.Execute(ctx, action, lead); err != nil {
			return err
		}
	}
	return nil
}
