package automation

import (
	"context"
	"fmt"
	"log"
	"strings"

	appErrors "github.com/Agus402/crm-no-country-sub000/internal/errors"
	"github.com/Agus402/crm-no-country-sub000/internal/model"
	"github.com/Agus402/crm-no-country-sub000/internal/repository"
)

// MailSender delivers an email through an external channel. Implementations
// are expected to bound the call with their own timeout.
type MailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// MessageSender delivers a chat/WhatsApp-style text and returns the provider's
// message id.
type MessageSender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Dispatcher carries out one normalized action against one lead.
type Dispatcher struct {
	Templates repository.TemplateRepositoryInterface
	Mail      MailSender
	Messages  MessageSender
}

func NewDispatcher(templates repository.TemplateRepositoryInterface, mail MailSender, messages MessageSender) *Dispatcher {
	return &Dispatcher{Templates: templates, Mail: mail, Messages: messages}
}

// Execute performs a single action. Skip conditions (missing address, unknown
// kind) return nil; template lookups and channel sends that fail return a
// DispatchError.
func (d *Dispatcher) Execute(ctx context.Context, action model.NormalizedAction, lead *model.Lead) error {
	switch action.Kind {
	case model.ActionSendEmail:
		return d.sendEmail(ctx, action, lead)
	case model.ActionSendMessage:
		return d.sendMessage(ctx, action, lead)
	case model.ActionCreateTask:
		// Defined but not implemented yet; rules may already reference it.
		log.Printf("[dispatcher] CREATE_TASK not implemented, skipping for lead=%d", lead.ID)
		return nil
	case model.ActionMoveSegment:
		log.Printf("[dispatcher] MOVE_SEGMENT not implemented, skipping for lead=%d", lead.ID)
		return nil
	default:
		log.Printf("[dispatcher] unknown action kind %q, skipping for lead=%d", action.Kind, lead.ID)
		return nil
	}
}

// resolveContent returns the subject/body pair for an action, preferring a
// stored template over the action's custom fields. A template id pointing at
// a missing template is fatal for the action.
func (d *Dispatcher) resolveContent(action model.NormalizedAction) (string, string, error) {
	if action.TemplateID != nil {
		tpl, err := d.Templates.GetByID(*action.TemplateID)
		if err != nil {
			return "", "", fmt.Errorf("load template %d: %w", *action.TemplateID, err)
		}
		if tpl == nil {
			return "", "", appErrors.NewTemplateNotFound(*action.TemplateID)
		}
		return tpl.Subject, tpl.Body, nil
	}
	return action.Subject, action.Body, nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, action model.NormalizedAction, lead *model.Lead) error {
	if strings.TrimSpace(lead.Email) == "" {
		log.Printf("[dispatcher] lead %d has no email address, skipping SEND_EMAIL", lead.ID)
		return nil
	}

	subject, body, err := d.resolveContent(action)
	if err != nil {
		return appErrors.NewDispatchError("SEND_EMAIL", err)
	}
	if strings.TrimSpace(body) == "" {
		return appErrors.NewDispatchError("SEND_EMAIL", fmt.Errorf("no template or body configured"))
	}

	subject = Render(subject, lead, nil)
	body = Render(body, lead, nil)

	if err := d.Mail.Send(ctx, lead.Email, subject, body); err != nil {
		return appErrors.NewDispatchError("SEND_EMAIL", err)
	}
	log.Printf("[dispatcher] sent email to lead=%d", lead.ID)
	return nil
}

func (d *Dispatcher) sendMessage(ctx context.Context, action model.NormalizedAction, lead *model.Lead) error {
	if strings.TrimSpace(lead.Phone) == "" {
		log.Printf("[dispatcher] lead %d has no phone number, skipping SEND_MESSAGE", lead.ID)
		return nil
	}

	subject, body, err := d.resolveContent(action)
	if err != nil {
		return appErrors.NewDispatchError("SEND_MESSAGE", err)
	}

	var text string
	if strings.TrimSpace(body) != "" {
		rendered := Render(body, lead, nil)
		if strings.TrimSpace(subject) != "" {
			// Bold header line, blank line, then the body.
			text = "*" + Render(subject, lead, nil) + "*\n\n" + rendered
		} else {
			text = rendered
		}
	} else {
		name := strings.TrimSpace(lead.Name)
		if name == "" {
			name = "there"
		}
		text = fmt.Sprintf("Hi %s! Thanks for reaching out. We'll be in touch shortly.", name)
	}

	providerID, err := d.Messages.SendText(ctx, lead.Phone, text)
	if err != nil {
		return appErrors.NewDispatchError("SEND_MESSAGE", err)
	}
	log.Printf("[dispatcher] sent message to lead=%d provider_id=%s", lead.ID, providerID)
	return nil
}
