package queue

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Agus402/crm-no-country-sub000/internal/automation"
	"github.com/Agus402/crm-no-country-sub000/internal/model"
	"github.com/Agus402/crm-no-country-sub000/internal/repository"
)

// Event is one domain event: something happened to a lead.
type Event struct {
	Trigger model.TriggerKind `json:"event"`
	LeadID  int               `json:"lead_id"`
}

// Publisher raises domain events. AMQPBus and InMemoryBus both implement it.
type Publisher interface {
	Publish(ev Event) error
}

// Bus is a Publisher that also delivers events to in-process subscribers.
type Bus interface {
	Publisher
	Subscribe(handler func(ev Event) error)
}

// InMemoryBus delivers domain events to subscribers synchronously, on the
// goroutine that raised the event. Automation therefore runs inside the
// triggering operation's unit of work, and a handler error is visible to
// the publisher.
type InMemoryBus struct {
	mu       sync.Mutex
	handlers []func(ev Event) error
}

// NewInMemoryBus creates a new bus
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{}
}

// Publish delivers the event to every subscriber in order. Handler errors do
// not stop delivery to the remaining subscribers; they are joined and
// returned.
func (b *InMemoryBus) Publish(ev Event) error {
	b.mu.Lock()
	handlers := make([]func(ev Event) error, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ev); err != nil {
			log.Printf("[bus] handler error for %s lead=%d: %v", ev.Trigger, ev.LeadID, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe adds a handler for all events
func (b *InMemoryBus) Subscribe(handler func(ev Event) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// SubscribeEngine wires the automation engine onto the bus: each event
// resolves its lead and fans out to the matching rules.
func SubscribeEngine(b Bus, leads repository.LeadRepositoryInterface, engine *automation.Engine) {
	b.Subscribe(func(ev Event) error {
		if !ev.Trigger.Valid() {
			log.Printf("[bus] unknown trigger %q, ignoring", ev.Trigger)
			return nil
		}
		lead, err := leads.GetByID(ev.LeadID)
		if err != nil {
			return err
		}
		if lead == nil {
			log.Printf("[bus] lead %d not found for %s, ignoring", ev.LeadID, ev.Trigger)
			return nil
		}
		return engine.OnEvent(context.Background(), ev.Trigger, lead)
	})
}
