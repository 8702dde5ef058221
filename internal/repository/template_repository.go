package repository

import (
	"database/sql"

	"github.com/Agus402/crm-no-country-sub000/internal/model"
)

// TemplateRepositoryInterface covers the template lookups rendering needs.
type TemplateRepositoryInterface interface {
	GetByID(id int) (*model.MessageTemplate, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

// GetByID fetches a template by ID; a missing row returns (nil, nil).
func (r *TemplateRepository) GetByID(id int) (*model.MessageTemplate, error) {
	query := `
        SELECT id, name, subject, body, created_at
        FROM message_templates
        WHERE id = $1
    `
	var t model.MessageTemplate
	err := r.DB.QueryRow(query, id).Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
