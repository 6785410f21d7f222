package sla

import (
	"context"
	"time"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// Service computes live SLA state for tickets, resolving the active policy
// on every call so a policy change takes effect immediately.
type Service struct {
	resolver *PolicyResolver
}

// NewService creates an SLA service.
func NewService(policies PolicyRepository) *Service {
	return &Service{resolver: NewPolicyResolver(policies)}
}

// ComputeState returns the ticket's SLA state at the given instant.
// When the ticket carries a custom due date the policy lookup is skipped:
// the override wins outright and an unconfigured priority is not an error
// for such tickets.
func (s *Service) ComputeState(ctx context.Context, t *models.Ticket, now time.Time) (State, error) {
	if t.CustomSLADueAt != nil {
		return Compute(t, nil, now), nil
	}
	policy, err := s.resolver.Resolve(ctx, t.Priority)
	if err != nil {
		return State{}, err
	}
	return Compute(t, policy, now), nil
}

// Resolver exposes the underlying policy resolver.
func (s *Service) Resolver() *PolicyResolver {
	return s.resolver
}
