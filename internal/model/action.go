// internal/model/action.go
package model

// ActionKind is the canonical token for one kind of automation action.
// An empty kind means the stored token was not recognized; the dispatcher
// skips such actions with a warning instead of failing the sequence.
type ActionKind string

const (
	ActionSendEmail   ActionKind = "SEND_EMAIL"
	ActionSendMessage ActionKind = "SEND_MESSAGE"
	ActionCreateTask  ActionKind = "CREATE_TASK"
	ActionMoveSegment ActionKind = "MOVE_SEGMENT"
)

// NormalizedAction is the decoded in-memory form of one step a rule performs.
// It is always re-derived from the rule's raw actions text at execution time
// and never persisted on its own.
type NormalizedAction struct {
	Kind       ActionKind `json:"kind"`
	TemplateID *int       `json:"template_id,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	Body       string     `json:"body,omitempty"`
}
