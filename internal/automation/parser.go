package automation

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/Agus402/crm-no-country-sub000/internal/model"
)

// rawAction is the tolerant wire shape of one stored action object.
// "type" is canonical; "actionType" is a legacy alias, as is "templateId".
type rawAction struct {
	Type        string `json:"type"`
	ActionType  string `json:"actionType"`
	TemplateID  *int   `json:"template_id"`
	TemplateID2 *int   `json:"templateId"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// wrappedActions is the object form that nests the sequence under "actions".
// Sibling fields (a redundant wait_days, for example) are ignored; the
// authoritative delay lives on the rule, not in the action payload.
type wrappedActions struct {
	Actions json.RawMessage `json:"actions"`
}

// ParseActions decodes a rule's stored action definition into an ordered
// sequence of normalized actions. It accepts three shapes, detected by the
// leading structural byte: a bare array of action objects, an object wrapping
// an "actions" array, or a single action object. Malformed or unrecognized
// input yields an empty sequence, never an error, so a rule with unusable
// actions simply performs no work.
func ParseActions(raw string) []model.NormalizedAction {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	switch s[0] {
	case '[':
		var raws []rawAction
		if err := json.Unmarshal([]byte(s), &raws); err != nil {
			log.Printf("[parser] malformed action array: %v", err)
			return nil
		}
		return normalizeAll(raws)

	case '{':
		var wrapper wrappedActions
		if err := json.Unmarshal([]byte(s), &wrapper); err != nil {
			log.Printf("[parser] malformed action object: %v", err)
			return nil
		}
		if len(wrapper.Actions) > 0 {
			var raws []rawAction
			if err := json.Unmarshal(wrapper.Actions, &raws); err != nil {
				log.Printf("[parser] malformed nested actions array: %v", err)
				return nil
			}
			return normalizeAll(raws)
		}

		var single rawAction
		if err := json.Unmarshal([]byte(s), &single); err != nil {
			log.Printf("[parser] malformed single action: %v", err)
			return nil
		}
		if single.Type == "" && single.ActionType == "" {
			log.Printf("[parser] object has neither actions nor type, ignoring")
			return nil
		}
		return normalizeAll([]rawAction{single})

	default:
		log.Printf("[parser] non-structural action definition, ignoring")
		return nil
	}
}

func normalizeAll(raws []rawAction) []model.NormalizedAction {
	actions := make([]model.NormalizedAction, 0, len(raws))
	for _, ra := range raws {
		token := ra.Type
		if token == "" {
			token = ra.ActionType
		}
		tplID := ra.TemplateID
		if tplID == nil {
			tplID = ra.TemplateID2
		}
		actions = append(actions, model.NormalizedAction{
			Kind:       normalizeKind(token),
			TemplateID: tplID,
			Subject:    ra.Subject,
			Body:       ra.Body,
		})
	}
	return actions
}

// normalizeKind folds case and hyphen/underscore variants into the canonical
// token, so "send-email", "Send_Email" and "SEND_EMAIL" all match. Unknown
// tokens map to the empty kind.
func normalizeKind(token string) model.ActionKind {
	canon := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(token), "-", "_"))
	switch model.ActionKind(canon) {
	case model.ActionSendEmail, model.ActionSendMessage, model.ActionCreateTask, model.ActionMoveSegment:
		return model.ActionKind(canon)
	}
	return ""
}
