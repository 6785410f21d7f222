package models

import (
	"encoding/json"
	"time"
)

// EscalationConditionType is the closed set of rule conditions.
type EscalationConditionType string

const (
	ConditionSLABreach      EscalationConditionType = "sla_breach"
	ConditionTimeInStatus   EscalationConditionType = "time_in_status"
	ConditionPriorityLevel  EscalationConditionType = "priority_level"
	ConditionNoResponse     EscalationConditionType = "no_response"
	ConditionCustomerRating EscalationConditionType = "customer_rating"
)

// Valid reports whether the condition type is known.
func (c EscalationConditionType) Valid() bool {
	switch c {
	case ConditionSLABreach, ConditionTimeInStatus, ConditionPriorityLevel,
		ConditionNoResponse, ConditionCustomerRating:
		return true
	}
	return false
}

// EscalationActionType is the closed set of rule actions.
type EscalationActionType string

const (
	ActionNotifyManager    EscalationActionType = "notify_manager"
	ActionReassignTicket   EscalationActionType = "reassign_ticket"
	ActionIncreasePriority EscalationActionType = "increase_priority"
	ActionAddFollower      EscalationActionType = "add_follower"
	ActionSendEmail        EscalationActionType = "send_email"
)

// Valid reports whether the action type is known.
func (a EscalationActionType) Valid() bool {
	switch a {
	case ActionNotifyManager, ActionReassignTicket, ActionIncreasePriority,
		ActionAddFollower, ActionSendEmail:
		return true
	}
	return false
}

// EscalationRule pairs one condition with one action. Parameters are stored
// as JSON and validated against a schema per type when rules are loaded.
type EscalationRule struct {
	ID              int64                   `json:"id" db:"id"`
	Name            string                  `json:"name" db:"name"`
	ConditionType   EscalationConditionType `json:"condition_type" db:"condition_type"`
	ConditionParams json.RawMessage         `json:"condition_params" db:"condition_params"`
	ActionType      EscalationActionType    `json:"action_type" db:"action_type"`
	ActionParams    json.RawMessage         `json:"action_params" db:"action_params"`
	IsActive        bool                    `json:"is_active" db:"is_active"`
	CreatedAt       time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at" db:"updated_at"`
}

// EscalationExecution records that a rule already fired for a ticket in a
// given observable state. The (RuleID, TicketID, Fingerprint) triple is
// unique and is what makes escalation side effects at-most-once.
type EscalationExecution struct {
	ID          int64     `json:"id" db:"id"`
	RuleID      int64     `json:"rule_id" db:"rule_id"`
	TicketID    int64     `json:"ticket_id" db:"ticket_id"`
	Fingerprint string    `json:"fingerprint" db:"fingerprint"`
	ExecutedAt  time.Time `json:"executed_at" db:"executed_at"`
}

// CustomerFeedback is a rating a customer left on a ticket.
type CustomerFeedback struct {
	ID          int64     `json:"id" db:"id"`
	TicketID    int64     `json:"ticket_id" db:"ticket_id"`
	Rating      int       `json:"rating" db:"rating"`
	Comment     string    `json:"comment,omitempty" db:"comment"`
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
}
