package escalation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// Parameter schemas per condition/action type. Rules are validated against
// these when loaded from persistence so the evaluator never sees malformed
// parameters.
var conditionSchemas = map[models.EscalationConditionType]string{
	models.ConditionSLABreach: `{
		"type": "object",
		"properties": {"threshold_hours": {"type": "number", "minimum": 0}},
		"required": ["threshold_hours"],
		"additionalProperties": false
	}`,
	models.ConditionTimeInStatus: `{
		"type": "object",
		"properties": {
			"status": {"type": "string", "enum": ["open", "in_progress", "waiting_for_customer", "resolved", "closed"]},
			"hours": {"type": "number", "exclusiveMinimum": 0}
		},
		"required": ["status", "hours"],
		"additionalProperties": false
	}`,
	models.ConditionPriorityLevel: `{
		"type": "object",
		"properties": {
			"priorities": {
				"type": "array",
				"items": {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
				"minItems": 1,
				"uniqueItems": true
			}
		},
		"required": ["priorities"],
		"additionalProperties": false
	}`,
	models.ConditionNoResponse: `{
		"type": "object",
		"properties": {"hours": {"type": "number", "exclusiveMinimum": 0}},
		"required": ["hours"],
		"additionalProperties": false
	}`,
	models.ConditionCustomerRating: `{
		"type": "object",
		"properties": {
			"rating": {"type": "integer", "minimum": 1, "maximum": 5},
			"operator": {"type": "string", "enum": ["<", "<=", "=", ">=", ">"]}
		},
		"required": ["rating", "operator"],
		"additionalProperties": false
	}`,
}

var actionSchemas = map[models.EscalationActionType]string{
	models.ActionNotifyManager: `{
		"type": "object",
		"properties": {"message": {"type": "string"}},
		"additionalProperties": false
	}`,
	models.ActionReassignTicket: `{
		"type": "object",
		"properties": {"assignee_id": {"type": "integer", "minimum": 1}},
		"required": ["assignee_id"],
		"additionalProperties": false
	}`,
	models.ActionIncreasePriority: `{
		"type": "object",
		"additionalProperties": false
	}`,
	models.ActionAddFollower: `{
		"type": "object",
		"properties": {
			"user_ids": {"type": "array", "items": {"type": "integer", "minimum": 1}, "minItems": 1}
		},
		"required": ["user_ids"],
		"additionalProperties": false
	}`,
	models.ActionSendEmail: `{
		"type": "object",
		"properties": {
			"recipients": {"type": "array", "items": {"type": "string", "format": "email"}},
			"subject": {"type": "string", "minLength": 1}
		},
		"required": ["subject"],
		"additionalProperties": false
	}`,
}

// ValidateRule checks a rule's condition and action parameters against their
// schemas. Returns a ValidationError describing the first problem found.
func ValidateRule(rule *models.EscalationRule) error {
	if !rule.ConditionType.Valid() {
		return &models.ValidationError{Field: "condition_type", Message: fmt.Sprintf("unknown condition type %q", rule.ConditionType)}
	}
	if !rule.ActionType.Valid() {
		return &models.ValidationError{Field: "action_type", Message: fmt.Sprintf("unknown action type %q", rule.ActionType)}
	}
	if err := validateAgainst(conditionSchemas[rule.ConditionType], rule.ConditionParams, "condition_params"); err != nil {
		return err
	}
	return validateAgainst(actionSchemas[rule.ActionType], rule.ActionParams, "action_params")
}

func validateAgainst(schema string, doc []byte, field string) error {
	if len(doc) == 0 {
		doc = []byte("{}")
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return &models.ValidationError{Field: field, Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if !result.Valid() {
		return &models.ValidationError{Field: field, Message: result.Errors()[0].String()}
	}
	return nil
}
