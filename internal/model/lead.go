// internal/model/lead.go
package model

import "time"

// Lead is the target entity automation actions operate on.
type Lead struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Company   string    `db:"company" json:"company"`
	Source    string    `db:"source" json:"source"`
	Stage     string    `db:"stage" json:"stage"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
