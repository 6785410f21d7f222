// Package service composes the authorization, SLA and escalation cores over
// the repositories and exposes the operations the API layer calls.
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/notifications"
)

// UserStore is the user lookup surface the services need.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// LeadershipStore resolves which teams a user currently leads.
type LeadershipStore interface {
	LeadershipsOf(ctx context.Context, userID int64) ([]int64, error)
}

// AccessService derives per-request access scopes. Scopes are computed from
// the user row and leadership links on every call, never cached: a role or
// team change must take effect on the very next request.
type AccessService struct {
	users   UserStore
	teams   LeadershipStore
	emitter notifications.Emitter
	logger  *log.Logger
}

// NewAccessService creates an access service.
func NewAccessService(users UserStore, teams LeadershipStore, emitter notifications.Emitter, logger *log.Logger) *AccessService {
	if logger == nil {
		logger = log.Default()
	}
	if emitter == nil {
		emitter = notifications.NewLogEmitter(logger)
	}
	return &AccessService{users: users, teams: teams, emitter: emitter, logger: logger}
}

// ResolveScope loads the actor and derives their current scope.
func (s *AccessService) ResolveScope(ctx context.Context, userID int64) (access.AccessScope, *models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return access.AccessScope{}, nil, fmt.Errorf("failed to load actor %d: %w", userID, err)
	}
	var leaderships []int64
	if user.Role == models.RoleTeamLeader {
		leaderships, err = s.teams.LeadershipsOf(ctx, userID)
		if err != nil {
			return access.AccessScope{}, nil, fmt.Errorf("failed to load leaderships for %d: %w", userID, err)
		}
	}
	return access.ResolveScope(user, leaderships), user, nil
}

// Require checks the registry grant and emits an audit event on denial.
func (s *AccessService) Require(actor *models.User, action access.Action, resource access.Resource) error {
	if err := access.Require(actor.Role, action, resource); err != nil {
		s.emitter.EmitAudit(notifications.NewAudit(actor.ID,
			fmt.Sprintf("%s.%s", resource, action), string(resource), "denied",
			fmt.Sprintf("role %s lacks %s on %s", actor.Role, action, resource)))
		return err
	}
	return nil
}

// auditDenied emits the audit event for a scope-level denial on a ticket.
func (s *AccessService) auditDenied(actorID, ticketID int64, action access.Action) {
	s.emitter.EmitAudit(notifications.NewAudit(actorID,
		fmt.Sprintf("tickets.%s", action), fmt.Sprintf("ticket:%d", ticketID), "denied",
		"ticket outside actor scope"))
}
