package repository

import (
	"database/sql"

	"github.com/Agus402/crm-no-country-sub000/internal/model"
)

// LeadRepositoryInterface covers the lead lookups the automation side
// performs. Lead writes happen elsewhere in the CRM; this service only
// resolves the leads its events and queue items point at.
type LeadRepositoryInterface interface {
	GetByID(id int) (*model.Lead, error)
}

type LeadRepository struct {
	DB *sql.DB
}

// GetByID fetches a lead by ID; a missing row returns (nil, nil).
func (r *LeadRepository) GetByID(id int) (*model.Lead, error) {
	query := `
        SELECT id, name, email, phone, company, source, stage, created_at
        FROM leads
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var l model.Lead
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.Source, &l.Stage, &l.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &l, nil
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
