// Package sla resolves time budgets for tickets and classifies them
// against the clock.
package sla

import (
	"context"
	"errors"
	"fmt"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// ErrNoPolicyConfigured is returned when a priority has no active SLA policy.
// Callers must surface it; silently assuming a default time budget would turn
// a configuration gap into a fake guarantee.
var ErrNoPolicyConfigured = errors.New("no SLA policy configured")

// PolicyRepository supplies active SLA policies from persistence.
type PolicyRepository interface {
	ActiveByPriority(ctx context.Context, priority models.TicketPriority) (*models.SLAPolicy, error)
}

// PolicyResolver maps a ticket priority to its active policy.
type PolicyResolver struct {
	policies PolicyRepository
}

// NewPolicyResolver creates a policy resolver.
func NewPolicyResolver(policies PolicyRepository) *PolicyResolver {
	return &PolicyResolver{policies: policies}
}

// Resolve returns the active policy for the priority, or
// ErrNoPolicyConfigured when none exists.
func (r *PolicyResolver) Resolve(ctx context.Context, priority models.TicketPriority) (*models.SLAPolicy, error) {
	if !priority.Valid() {
		return nil, &models.ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", priority)}
	}
	policy, err := r.policies.ActiveByPriority(ctx, priority)
	if err != nil {
		return nil, fmt.Errorf("failed to load SLA policy for %s: %w", priority, err)
	}
	if policy == nil || !policy.IsActive {
		return nil, fmt.Errorf("priority %s: %w", priority, ErrNoPolicyConfigured)
	}
	return policy, nil
}
