package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Agus402/crm-no-country-sub000/internal/model"
)

type RuleRepositoryInterface interface {
	ListActiveByTrigger(trigger model.TriggerKind) ([]model.Rule, error)
	GetByID(id uuid.UUID) (*model.Rule, error)
	Create(r *model.Rule) error
	ListRules(offset, limit int, trigger, active string) ([]*model.Rule, int, error)
	SetActive(id uuid.UUID, active bool) error
}

type RuleRepository struct {
	DB *sql.DB
}

// ListActiveByTrigger returns every active rule reacting to the given trigger.
func (repo *RuleRepository) ListActiveByTrigger(trigger model.TriggerKind) ([]model.Rule, error) {
	query := `
        SELECT id, name, trigger_kind, COALESCE(trigger_value,''), actions, active, wait_days, wait_hours, created_by, created_at
        FROM automation_rules
        WHERE trigger_kind=$1 AND active=true
        ORDER BY created_at
    `
	rows, err := repo.DB.Query(query, string(trigger))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []model.Rule
	for rows.Next() {
		var r model.Rule
		if err := rows.Scan(&r.ID, &r.Name, &r.TriggerKind, &r.TriggerValue, &r.Actions,
			&r.Active, &r.WaitDays, &r.WaitHours, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (repo *RuleRepository) GetByID(id uuid.UUID) (*model.Rule, error) {
	query := `
        SELECT id, name, trigger_kind, COALESCE(trigger_value,''), actions, active, wait_days, wait_hours, created_by, created_at
        FROM automation_rules WHERE id=$1
    `
	var r model.Rule
	err := repo.DB.QueryRow(query, id).Scan(&r.ID, &r.Name, &r.TriggerKind, &r.TriggerValue,
		&r.Actions, &r.Active, &r.WaitDays, &r.WaitHours, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &r, nil
}

func (repo *RuleRepository) Create(r *model.Rule) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	query := `
        INSERT INTO automation_rules (id, name, trigger_kind, trigger_value, actions, active, wait_days, wait_hours, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := repo.DB.Exec(query, r.ID, r.Name, string(r.TriggerKind), r.TriggerValue,
		r.Actions, r.Active, r.WaitDays, r.WaitHours, r.CreatedBy, r.CreatedAt)
	return err
}

// ListRules returns a page of rules plus the unpaginated total, with optional
// trigger-kind and active ("true"/"false") filters.
func (repo *RuleRepository) ListRules(offset, limit int, trigger, active string) ([]*model.Rule, int, error) {
	rules := []*model.Rule{}
	query := `SELECT id, name, trigger_kind, COALESCE(trigger_value,''), actions, active, wait_days, wait_hours, created_by, created_at FROM automation_rules WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if trigger != "" {
		query += fmt.Sprintf(" AND trigger_kind=$%d", argPos)
		args = append(args, trigger)
		argPos++
	}
	if active != "" {
		query += fmt.Sprintf(" AND active=$%d", argPos)
		args = append(args, active == "true")
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := repo.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		r := &model.Rule{}
		if err := rows.Scan(&r.ID, &r.Name, &r.TriggerKind, &r.TriggerValue, &r.Actions,
			&r.Active, &r.WaitDays, &r.WaitHours, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, 0, err
		}
		rules = append(rules, r)
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM automation_rules WHERE 1=1`
	argsCount := []interface{}{}
	argPosCount := 1
	if trigger != "" {
		countQuery += fmt.Sprintf(" AND trigger_kind=$%d", argPosCount)
		argsCount = append(argsCount, trigger)
		argPosCount++
	}
	if active != "" {
		countQuery += fmt.Sprintf(" AND active=$%d", argPosCount)
		argsCount = append(argsCount, active == "true")
	}

	var total int
	if err := repo.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

func (repo *RuleRepository) SetActive(id uuid.UUID, active bool) error {
	query := `UPDATE automation_rules SET active=$1 WHERE id=$2`
	_, err := repo.DB.Exec(query, active, id)
	return err
}

var _ RuleRepositoryInterface = (*RuleRepository)(nil)
