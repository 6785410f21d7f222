package sla

import (
	"time"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// Classification buckets a ticket's position against its deadline.
type Classification string

const (
	OnTrack    Classification = "on_track"
	NearBreach Classification = "near_breach"
	Breached   Classification = "breached"
)

// NearBreachWindow is how close to the deadline a ticket may get before it
// is flagged as near-breach.
const NearBreachWindow = 2 * time.Hour

// State is the live SLA position of a ticket at a given instant. It is
// recomputed on demand and never persisted as a source of truth.
type State struct {
	DueAt          time.Time      `json:"due_at"`
	Remaining      time.Duration  `json:"remaining"`
	Classification Classification `json:"classification"`
}

// DueAt derives the resolution deadline. A per-ticket override supersedes the
// policy entirely; otherwise the deadline is creation time plus the policy's
// resolution budget. policy may be nil only when the override is set.
func DueAt(t *models.Ticket, policy *models.SLAPolicy) time.Time {
	if t.CustomSLADueAt != nil {
		return *t.CustomSLADueAt
	}
	return t.CreatedAt.Add(policy.ResolutionBudget())
}

// Compute classifies the ticket against its deadline at the given instant.
// Pure: same inputs, same answer. Resolved and closed tickets never classify
// as breached, however late the clock runs; breach only means something while
// the ticket is open. A priority downgrade that moves a breached ticket back
// on track is intended behavior, not something to guard against.
func Compute(t *models.Ticket, policy *models.SLAPolicy, now time.Time) State {
	dueAt := DueAt(t, policy)
	state := State{
		DueAt:     dueAt,
		Remaining: dueAt.Sub(now),
	}

	if !t.Status.Active() {
		state.Classification = OnTrack
		return state
	}

	switch {
	case now.After(dueAt):
		state.Classification = Breached
	case dueAt.Sub(now) <= NearBreachWindow:
		state.Classification = NearBreach
	default:
		state.Classification = OnTrack
	}
	return state
}
