package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Agus402/crm-no-country-sub000/internal/model"
)

type QueueItemRepositoryInterface interface {
	Create(item *model.QueueItem) error
	GetByID(id uuid.UUID) (*model.QueueItem, error)
	ListByStatus(status model.QueueStatus, limit int) ([]model.QueueItem, error)
	ClaimDue(now time.Time) ([]model.QueueItem, error)
	MarkCompleted(id uuid.UUID, executedAt time.Time) error
	MarkFailed(id uuid.UUID, errMsg string) error
	CancelPendingByRule(ruleID uuid.UUID) (int64, error)
	CountByStatus() (map[string]int, error)
}

type QueueItemRepository struct {
	DB *sql.DB
}

func (repo *QueueItemRepository) Create(item *model.QueueItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = model.QueueStatusPending
	}
	item.CreatedAt = time.Now()
	query := `
        INSERT INTO automation_queue (id, rule_id, lead_id, scheduled_at, status, retry_count, created_at)
        VALUES ($1, $2, $3, $4, $5, 0, $6)
    `
	_, err := repo.DB.Exec(query, item.ID, item.RuleID, item.LeadID,
		item.ScheduledAt, string(item.Status), item.CreatedAt)
	return err
}

func (repo *QueueItemRepository) GetByID(id uuid.UUID) (*model.QueueItem, error) {
	query := `
        SELECT id, rule_id, lead_id, scheduled_at, status, executed_at, COALESCE(error_message,''), retry_count, created_at
        FROM automation_queue WHERE id=$1
    `
	var item model.QueueItem
	err := repo.DB.QueryRow(query, id).Scan(
		&item.ID, &item.RuleID, &item.LeadID, &item.ScheduledAt, &item.Status,
		&item.ExecutedAt, &item.ErrorMessage, &item.RetryCount, &item.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (repo *QueueItemRepository) ListByStatus(status model.QueueStatus, limit int) ([]model.QueueItem, error) {
	query := `
        SELECT id, rule_id, lead_id, scheduled_at, status, executed_at, COALESCE(error_message,''), retry_count, created_at
        FROM automation_queue
        WHERE status=$1
        ORDER BY scheduled_at
        LIMIT $2
    `
	rows, err := repo.DB.Query(query, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.QueueItem
	for rows.Next() {
		var item model.QueueItem
		if err := rows.Scan(&item.ID, &item.RuleID, &item.LeadID, &item.ScheduledAt,
			&item.Status, &item.ExecutedAt, &item.ErrorMessage, &item.RetryCount, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ClaimDue atomically flips every pending item whose scheduled time has passed
// to executing and returns the claimed rows. The single UPDATE...RETURNING
// statement is what keeps two racing pollers from claiming the same item.
func (repo *QueueItemRepository) ClaimDue(now time.Time) ([]model.QueueItem, error) {
	query := `
        UPDATE automation_queue
        SET status='executing'
        WHERE status='pending' AND scheduled_at <= $1
        RETURNING id, rule_id, lead_id, scheduled_at, status, executed_at, COALESCE(error_message,''), retry_count, created_at
    `
	rows, err := repo.DB.Query(query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.QueueItem
	for rows.Next() {
		var item model.QueueItem
		if err := rows.Scan(&item.ID, &item.RuleID, &item.LeadID, &item.ScheduledAt,
			&item.Status, &item.ExecutedAt, &item.ErrorMessage, &item.RetryCount, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (repo *QueueItemRepository) MarkCompleted(id uuid.UUID, executedAt time.Time) error {
	query := `UPDATE automation_queue SET status='completed', executed_at=$1 WHERE id=$2`
	_, err := repo.DB.Exec(query, executedAt, id)
	return err
}

func (repo *QueueItemRepository) MarkFailed(id uuid.UUID, errMsg string) error {
	query := `UPDATE automation_queue SET status='failed', error_message=$1, retry_count=retry_count+1 WHERE id=$2`
	_, err := repo.DB.Exec(query, errMsg, id)
	return err
}

// CancelPendingByRule cancels still-pending items for a rule, typically when
// the rule is deactivated. Items already claimed by a poller are left alone.
func (repo *QueueItemRepository) CancelPendingByRule(ruleID uuid.UUID) (int64, error) {
	query := `UPDATE automation_queue SET status='cancelled' WHERE rule_id=$1 AND status='pending'`
	res, err := repo.DB.Exec(query, ruleID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (repo *QueueItemRepository) CountByStatus() (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM automation_queue GROUP BY status`
	rows, err := repo.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "executing": 0, "completed": 0, "failed": 0, "cancelled": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ QueueItemRepositoryInterface = (*QueueItemRepository)(nil)
