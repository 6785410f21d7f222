// Package notifications carries structured intents out of the core.
// Formatting, channels and delivery belong to external collaborators; the
// core only states who, what, when and why.
package notifications

import (
	"time"

	"github.com/google/uuid"
)

// NotificationIntent asks the delivery layer to notify a set of users.
type NotificationIntent struct {
	ID           string    `json:"id"`
	TicketID     int64     `json:"ticket_id"`
	RecipientIDs []int64   `json:"recipient_ids"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

// EmailIntent asks the delivery layer to send an email.
type EmailIntent struct {
	ID         string    `json:"id"`
	TicketID   int64     `json:"ticket_id"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditEvent is a fact for the audit collaborator. The core emits one for
// every permission denial and every escalation-driven mutation; it never
// persists them itself.
type AuditEvent struct {
	ID        string    `json:"id"`
	ActorID   int64     `json:"actor_id"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Emitter receives intents from the core. Implementations own delivery,
// timeouts and retries.
type Emitter interface {
	EmitNotification(intent NotificationIntent)
	EmitEmail(intent EmailIntent)
	EmitAudit(event AuditEvent)
}

// NewNotification builds a notification intent with a fresh ID.
func NewNotification(ticketID int64, recipients []int64, reason string) NotificationIntent {
	return NotificationIntent{
		ID:           uuid.New().String(),
		TicketID:     ticketID,
		RecipientIDs: recipients,
		Reason:       reason,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewEmail builds an email intent with a fresh ID.
func NewEmail(ticketID int64, recipients []string, subject, reason string) EmailIntent {
	return EmailIntent{
		ID:         uuid.New().String(),
		TicketID:   ticketID,
		Recipients: recipients,
		Subject:    subject,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewAudit builds an audit event with a fresh ID.
func NewAudit(actorID int64, action, subject, outcome, detail string) AuditEvent {
	return AuditEvent{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Action:    action,
		Subject:   subject,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
}
