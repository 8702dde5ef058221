// internal/model/template.go
package model

import "time"

// MessageTemplate is a stored subject/body pair referenced by rule actions.
type MessageTemplate struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
