// Package escalation evaluates tickets against the organization's
// escalation rules and executes rule actions at most once per observed
// ticket state.
package escalation

import (
	"encoding/json"
	"fmt"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// SLABreachParams triggers when remaining SLA time drops to the threshold.
// A threshold of zero fires on breach; positive values fire early.
type SLABreachParams struct {
	ThresholdHours float64 `json:"threshold_hours"`
}

// TimeInStatusParams triggers when a ticket has held a status long enough.
type TimeInStatusParams struct {
	Status string  `json:"status"`
	Hours  float64 `json:"hours"`
}

// PriorityLevelParams triggers on ticket priority membership.
type PriorityLevelParams struct {
	Priorities []string `json:"priorities"`
}

// NoResponseParams triggers when no activity has been recorded for the
// given number of hours while the ticket is active.
type NoResponseParams struct {
	Hours float64 `json:"hours"`
}

// CustomerRatingParams triggers when submitted feedback compares against the
// threshold. Operator is one of <, <=, =, >=, >.
type CustomerRatingParams struct {
	Rating   int    `json:"rating"`
	Operator string `json:"operator"`
}

// NotifyManagerParams configures the notify-manager action.
type NotifyManagerParams struct {
	Message string `json:"message,omitempty"`
}

// ReassignTicketParams configures the reassign action. The assignee must be
// a member of the ticket's team; the action re-checks that at execution time.
type ReassignTicketParams struct {
	AssigneeID int64 `json:"assignee_id"`
}

// AddFollowerParams configures the add-follower action.
type AddFollowerParams struct {
	UserIDs []int64 `json:"user_ids"`
}

// SendEmailParams configures the send-email action. When Recipients is empty
// the recipient list is resolved from the ticket's team leaders and admins.
type SendEmailParams struct {
	Recipients []string `json:"recipients,omitempty"`
	Subject    string   `json:"subject"`
}

// Compare evaluates the rating comparison.
func (p CustomerRatingParams) Compare(rating int) bool {
	switch p.Operator {
	case "<":
		return rating < p.Rating
	case "<=":
		return rating <= p.Rating
	case "=", "==":
		return rating == p.Rating
	case ">=":
		return rating >= p.Rating
	case ">":
		return rating > p.Rating
	}
	return false
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing parameters")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	return nil
}

// ConditionParams decodes a rule's condition parameters into the struct for
// its condition type.
func ConditionParams(rule *models.EscalationRule) (any, error) {
	var out any
	var err error
	switch rule.ConditionType {
	case models.ConditionSLABreach:
		var p SLABreachParams
		err = decodeParams(rule.ConditionParams, &p)
		out = p
	case models.ConditionTimeInStatus:
		var p TimeInStatusParams
		err = decodeParams(rule.ConditionParams, &p)
		out = p
	case models.ConditionPriorityLevel:
		var p PriorityLevelParams
		err = decodeParams(rule.ConditionParams, &p)
		out = p
	case models.ConditionNoResponse:
		var p NoResponseParams
		err = decodeParams(rule.ConditionParams, &p)
		out = p
	case models.ConditionCustomerRating:
		var p CustomerRatingParams
		err = decodeParams(rule.ConditionParams, &p)
		out = p
	default:
		return nil, fmt.Errorf("unknown condition type %q", rule.ConditionType)
	}
	return out, err
}
