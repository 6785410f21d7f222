package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/godesk-io/godesk-ce/internal/models"
)

func TestFingerprintStableForSameState(t *testing.T) {
	tk := urgentTicket()
	rule := breachRule(1, models.ActionNotifyManager, NotifyManagerParams{})

	a := Fingerprint(rule, tk, nil)
	b := Fingerprint(rule, tk.Clone(), nil)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintDiffersPerRule(t *testing.T) {
	tk := urgentTicket()
	r1 := breachRule(1, models.ActionNotifyManager, NotifyManagerParams{})
	r2 := breachRule(2, models.ActionNotifyManager, NotifyManagerParams{})
	assert.NotEqual(t, Fingerprint(r1, tk, nil), Fingerprint(r2, tk, nil))
}

func TestFingerprintTracksObservableState(t *testing.T) {
	rule := breachRule(1, models.ActionNotifyManager, NotifyManagerParams{})
	base := Fingerprint(rule, urgentTicket(), nil)

	statusChanged := urgentTicket()
	statusChanged.Status = models.StatusInProgress
	assert.NotEqual(t, base, Fingerprint(rule, statusChanged, nil))

	priorityChanged := urgentTicket()
	priorityChanged.Priority = models.PriorityHigh
	assert.NotEqual(t, base, Fingerprint(rule, priorityChanged, nil))

	assigned := urgentTicket()
	assigned.AssignedTo = int64Ptr(11)
	assert.NotEqual(t, base, Fingerprint(rule, assigned, nil))

	overridden := urgentTicket()
	due := t0.Add(72 * time.Hour)
	overridden.CustomSLADueAt = &due
	assert.NotEqual(t, base, Fingerprint(rule, overridden, nil))
}

func TestFingerprintIgnoresActivityForBreachRules(t *testing.T) {
	rule := breachRule(1, models.ActionNotifyManager, NotifyManagerParams{})
	tk := urgentTicket()
	base := Fingerprint(rule, tk, nil)

	tk.LastActivityAt = t0.Add(3 * time.Hour)
	assert.Equal(t, base, Fingerprint(rule, tk, nil),
		"activity alone must not re-arm a breach rule")
}

func TestFingerprintTracksActivityForNoResponseRules(t *testing.T) {
	rule := &models.EscalationRule{
		ID:            6,
		ConditionType: models.ConditionNoResponse,
	}
	tk := urgentTicket()
	base := Fingerprint(rule, tk, nil)

	tk.LastActivityAt = t0.Add(3 * time.Hour)
	assert.NotEqual(t, base, Fingerprint(rule, tk, nil))
}

func TestFingerprintTracksFeedbackForRatingRules(t *testing.T) {
	rule := &models.EscalationRule{
		ID:            7,
		ConditionType: models.ConditionCustomerRating,
	}
	tk := urgentTicket()
	first := &models.CustomerFeedback{TicketID: tk.ID, Rating: 2, SubmittedAt: t0.Add(time.Hour)}
	second := &models.CustomerFeedback{TicketID: tk.ID, Rating: 2, SubmittedAt: t0.Add(2 * time.Hour)}

	assert.NotEqual(t, Fingerprint(rule, tk, nil), Fingerprint(rule, tk, first))
	assert.NotEqual(t, Fingerprint(rule, tk, first), Fingerprint(rule, tk, second),
		"a re-submitted rating is a new occurrence")
}
