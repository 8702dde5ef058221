// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound is a sentinel error
type ErrTemplateNotFound struct {
	TemplateID int
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("template with ID %d not found", e.TemplateID)
}

// Helper constructor
func NewTemplateNotFound(id int) error {
	return &ErrTemplateNotFound{TemplateID: id}
}

// ErrRuleNotFound is a sentinel error
type ErrRuleNotFound struct {
	RuleID string
}

func (e *ErrRuleNotFound) Error() string {
	return fmt.Sprintf("rule with ID %s not found", e.RuleID)
}

func NewRuleNotFound(id string) error {
	return &ErrRuleNotFound{RuleID: id}
}

// ErrLeadNotFound is a sentinel error
type ErrLeadNotFound struct {
	LeadID int
}

func (e *ErrLeadNotFound) Error() string {
	return fmt.Sprintf("lead with ID %d not found", e.LeadID)
}

func NewLeadNotFound(id int) error {
	return &ErrLeadNotFound{LeadID: id}
}

// DispatchError marks a failed attempt to carry out one automation action.
// Skip conditions (missing address, unknown action kind) are not dispatch
// errors; only template lookups and channel sends produce one.
type DispatchError struct {
	Action string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Action, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func NewDispatchError(action string, err error) error {
	return &DispatchError{Action: action, Err: err}
}

// IsDispatchError reports whether any error in err's chain is a DispatchError.
func IsDispatchError(err error) bool {
	var de *DispatchError
	return errors.As(err, &de)
}
