// internal/model/rule.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// TriggerKind is the category of domain event an automation rule reacts to.
type TriggerKind string

const (
	TriggerLeadCreated     TriggerKind = "lead_created"
	TriggerDemoCompleted   TriggerKind = "demo_completed"
	TriggerInvoiceSent     TriggerKind = "invoice_sent"
	TriggerNoResponse7Days TriggerKind = "no_response_7_days"
	TriggerContractSigned  TriggerKind = "contract_signed"
	TriggerPaymentReceived TriggerKind = "payment_received"
	TriggerStageChanged    TriggerKind = "stage_changed"
)

// Valid reports whether k is one of the known trigger kinds.
func (k TriggerKind) Valid() bool {
	switch k {
	case TriggerLeadCreated, TriggerDemoCompleted, TriggerInvoiceSent,
		TriggerNoResponse7Days, TriggerContractSigned, TriggerPaymentReceived,
		TriggerStageChanged:
		return true
	}
	return false
}

// Rule is an automation rule: on a trigger event, run the stored actions
// against the target lead, either immediately or after wait_days/wait_hours.
type Rule struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	TriggerKind  TriggerKind `db:"trigger_kind" json:"trigger_kind"`
	TriggerValue string      `db:"trigger_value" json:"trigger_value,omitempty"`
	Actions      string      `db:"actions" json:"actions"`
	Active       bool        `db:"active" json:"active"`
	WaitDays     int         `db:"wait_days" json:"wait_days"`
	WaitHours    int         `db:"wait_hours" json:"wait_hours"`
	CreatedBy    int         `db:"created_by" json:"created_by"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// TotalDelay is the configured delay before the rule's actions run.
// Zero means the actions execute synchronously with the trigger event.
func (r *Rule) TotalDelay() time.Duration {
	return time.Duration(r.WaitDays)*24*time.Hour + time.Duration(r.WaitHours)*time.Hour
}
