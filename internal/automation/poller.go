package automation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Agus402/crm-no-country-sub000/internal/model"
	"github.com/Agus402/crm-no-country-sub000/internal/repository"
)

// Poller periodically claims due queue items and runs them through the
// engine. Claiming flips items to executing in one atomic statement, so a
// second poller instance racing on the same cycle cannot double-run an item.
type Poller struct {
	queue    repository.QueueItemRepositoryInterface
	rules    repository.RuleRepositoryInterface
	leads    repository.LeadRepositoryInterface
	engine   *Engine
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	lastRunAt time.Time
	healthy   bool
}

func NewPoller(queue repository.QueueItemRepositoryInterface, rules repository.RuleRepositoryInterface,
	leads repository.LeadRepositoryInterface, engine *Engine, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Poller{
		queue:    queue,
		rules:    rules,
		leads:    leads,
		engine:   engine,
		interval: interval,
		healthy:  true,
	}
}

func (p *Poller) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	go func() {
		log.Println("[poller] starting automation queue poller")
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.ctx.Done():
				log.Println("[poller] stopped")
				return
			case <-ticker.C:
				// The cycle runs with its own context: once items are
				// claimed they must reach a terminal state, so a Stop
				// between ticks exits the loop but never interrupts a
				// batch in flight.
				p.RunCycle(context.Background())
			}
		}
	}()
}

func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) IsHealthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthy
}

func (p *Poller) LastRunAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRunAt
}

func (p *Poller) setHealth(healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthy = healthy
}

// RunCycle claims every pending item whose scheduled time has passed and
// processes the claimed items independently: one item's failure neither
// blocks nor rolls back its siblings. Every claimed item is driven to a
// terminal state even when ctx is already cancelled; abandoning the batch
// would strand items in executing, where no later cycle can pick them up.
func (p *Poller) RunCycle(ctx context.Context) {
	p.mu.Lock()
	p.lastRunAt = time.Now()
	p.mu.Unlock()

	items, err := p.queue.ClaimDue(time.Now())
	if err != nil {
		log.Printf("[poller] claim due items: %v", err)
		p.setHealth(false)
		return
	}
	p.setHealth(true)

	for i := range items {
		p.processItem(ctx, &items[i])
	}
}

// processItem drives one claimed item to a terminal state. Every path ends in
// completed or failed; an item left dangling in executing is a bug.
func (p *Poller) processItem(ctx context.Context, item *model.QueueItem) {
	rule, err := p.rules.GetByID(item.RuleID)
	if err != nil {
		p.fail(item, "load rule: "+err.Error())
		return
	}
	if rule == nil {
		p.fail(item, "rule "+item.RuleID.String()+" no longer exists")
		return
	}

	lead, err := p.leads.GetByID(item.LeadID)
	if err != nil {
		p.fail(item, "load lead: "+err.Error())
		return
	}
	if lead == nil {
		p.fail(item, "lead no longer exists")
		return
	}

	if err := p.engine.ExecuteActions(ctx, rule, lead); err != nil {
		p.fail(item, err.Error())
		return
	}

	if err := p.queue.MarkCompleted(item.ID, time.Now()); err != nil {
		log.Printf("[poller] mark completed item=%s: %v", item.ID, err)
	}
}

func (p *Poller) fail(item *model.QueueItem, msg string) {
	log.Printf("[poller] item=%s failed: %s", item.ID, msg)
	if err := p.queue.MarkFailed(item.ID, msg); err != nil {
		log.Printf("[poller] mark failed item=%s: %v", item.ID, err)
	}
}
