// internal/model/queue_item.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// QueueStatus is the lifecycle state of a queued rule execution.
type QueueStatus string

const (
	QueueStatusPending   QueueStatus = "pending"
	QueueStatusExecuting QueueStatus = "executing"
	QueueStatusCompleted QueueStatus = "completed"
	QueueStatusFailed    QueueStatus = "failed"
	QueueStatusCancelled QueueStatus = "cancelled"
)

// QueueItem is one delayed rule execution awaiting its scheduled time.
// Terminal items are never deleted; they remain as an audit trail.
type QueueItem struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	RuleID       uuid.UUID   `db:"rule_id" json:"rule_id"`
	LeadID       int         `db:"lead_id" json:"lead_id"`
	ScheduledAt  time.Time   `db:"scheduled_at" json:"scheduled_at"`
	Status       QueueStatus `db:"status" json:"status"`
	ExecutedAt   *time.Time  `db:"executed_at" json:"executed_at,omitempty"`
	ErrorMessage string      `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int         `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}
