package escalation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// Fingerprint derives the idempotence key for a (rule, ticket) pair from
// observable ticket state, never from the wall clock, so two evaluators
// looking at the same unchanged ticket always agree on "already executed".
//
// The base fields are the ones every condition observes: status, priority,
// assignee, custom due date and the time of the last status transition.
// No-response rules additionally key on the last activity timestamp (new
// activity re-arms them) and rating rules on the feedback submission time
// (a new rating is a new occurrence).
func Fingerprint(rule *models.EscalationRule, t *models.Ticket, feedback *models.CustomerFeedback) string {
	var assignee int64
	if t.AssignedTo != nil {
		assignee = *t.AssignedTo
	}
	var customDue int64
	if t.CustomSLADueAt != nil {
		customDue = t.CustomSLADueAt.Unix()
	}

	key := fmt.Sprintf("%d|%d|%s|%s|%d|%d|%d",
		rule.ID, t.ID, t.Status, t.Priority, assignee, t.StatusChangedAt.Unix(), customDue)

	switch rule.ConditionType {
	case models.ConditionNoResponse:
		key += fmt.Sprintf("|activity=%d", t.LastActivityAt.Unix())
	case models.ConditionCustomerRating:
		if feedback != nil {
			key += fmt.Sprintf("|rating=%d@%d", feedback.Rating, feedback.SubmittedAt.Unix())
		}
	}

	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
