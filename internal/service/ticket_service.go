package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/notifications"
	"github.com/godesk-io/godesk-ce/internal/repository"
	"github.com/godesk-io/godesk-ce/internal/sla"
)

// casRetries bounds optimistic-write retries. Each retry re-reads the row,
// so three attempts absorb ordinary contention without hiding a livelock.
const casRetries = 3

// TicketStore is the ticket persistence surface the service needs.
type TicketStore interface {
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)
	List(ctx context.Context, pred access.Predicate) ([]*models.Ticket, error)
	Create(ctx context.Context, t *models.Ticket) error
	UpdateCAS(ctx context.Context, t *models.Ticket) error
	AddFollowers(ctx context.Context, ticketID int64, userIDs []int64) ([]int64, error)
}

// TeamStore resolves team membership for assignment checks.
type TeamStore interface {
	MembersOf(ctx context.Context, teamID int64) ([]int64, error)
}

// TicketService implements the authorized ticket operations. Every entry
// point resolves the actor's scope fresh, consults the permission registry,
// and only then touches storage.
type TicketService struct {
	tickets TicketStore
	teams   TeamStore
	access  *AccessService
	sla     *sla.Service
	emitter notifications.Emitter
	logger  *log.Logger
}

// NewTicketService creates a ticket service.
func NewTicketService(tickets TicketStore, teams TeamStore, accessSvc *AccessService, slaSvc *sla.Service, emitter notifications.Emitter, logger *log.Logger) *TicketService {
	if logger == nil {
		logger = log.Default()
	}
	if emitter == nil {
		emitter = notifications.NewLogEmitter(logger)
	}
	return &TicketService{
		tickets: tickets,
		teams:   teams,
		access:  accessSvc,
		sla:     slaSvc,
		emitter: emitter,
		logger:  logger,
	}
}

// TicketWithSLA pairs a ticket with its live SLA state.
type TicketWithSLA struct {
	Ticket *models.Ticket `json:"ticket"`
	SLA    *sla.State     `json:"sla,omitempty"`
}

// GetTicket returns one ticket with SLA state, enforcing scope. A ticket
// outside the actor's scope is access.ErrAccessDenied even though it exists.
func (s *TicketService) GetTicket(ctx context.Context, actorID, ticketID int64) (*TicketWithSLA, error) {
	scope, actor, err := s.access.ResolveScope(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Require(actor, access.ActionRead, access.ResourceTickets); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := access.AuthorizeTicket(scope, ticket); err != nil {
		s.access.auditDenied(actorID, ticketID, access.ActionRead)
		return nil, err
	}
	return s.withSLA(ctx, ticket), nil
}

// ListTickets returns the tickets visible to the actor, narrowed by filter.
func (s *TicketService) ListTickets(ctx context.Context, actorID int64, filter access.TicketFilter) ([]*TicketWithSLA, error) {
	scope, actor, err := s.access.ResolveScope(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Require(actor, access.ActionRead, access.ResourceTickets); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, access.BuildTicketPredicate(scope, filter))
	if err != nil {
		return nil, err
	}
	out := make([]*TicketWithSLA, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, s.withSLA(ctx, t))
	}
	return out, nil
}

// CreateTicketInput carries the client-supplied fields of a new ticket.
type CreateTicketInput struct {
	Title    string                `json:"title"`
	Priority models.TicketPriority `json:"priority"`
	TeamID   *int64                `json:"team_id,omitempty"`
}

// CreateTicket validates and persists a new ticket for the actor.
// Leaders may only create into teams they lead; employees always create
// tickets they own.
func (s *TicketService) CreateTicket(ctx context.Context, actorID int64, input CreateTicketInput) (*models.Ticket, error) {
	scope, actor, err := s.access.ResolveScope(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Require(actor, access.ActionCreate, access.ResourceTickets); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, &models.ValidationError{Field: "title", Message: "title is required"}
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, &models.ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", input.Priority)}
	}

	teamID := input.TeamID
	if teamID == nil {
		teamID = actor.TeamID
	}
	if teamID != nil && actor.Role == models.RoleTeamLeader && !scope.CoversTeam(*teamID) {
		s.access.auditDenied(actorID, 0, access.ActionCreate)
		return nil, access.ErrAccessDenied
	}

	ticket := &models.Ticket{
		Title:     strings.TrimSpace(input.Title),
		Status:    models.StatusOpen,
		Priority:  input.Priority,
		CreatedBy: actorID,
		TeamID:    teamID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.emitter.EmitAudit(notifications.NewAudit(actorID, "tickets.create",
		fmt.Sprintf("ticket:%d", ticket.ID), "created", ticket.TicketNumber))
	return ticket, nil
}

// TransitionStatus moves a ticket to a new status. Status transitions stamp
// StatusChangedAt and LastActivityAt; entering resolved stamps ResolvedAt,
// and leaving it clears the stamp again.
func (s *TicketService) TransitionStatus(ctx context.Context, actorID, ticketID int64, newStatus models.TicketStatus) (*models.Ticket, error) {
	if !newStatus.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", newStatus)}
	}
	return s.mutate(ctx, actorID, ticketID, access.ActionUpdate, func(t *models.Ticket, now time.Time) error {
		if t.Status == newStatus {
			return nil
		}
		t.Status = newStatus
		t.StatusChangedAt = now
		t.LastActivityAt = now
		switch {
		case newStatus == models.StatusResolved:
			resolved := now
			t.ResolvedAt = &resolved
		case t.ResolvedAt != nil && newStatus.Active():
			t.ResolvedAt = nil
		}
		return nil
	})
}

// ChangePriority sets a ticket's priority. The SLA deadline follows the
// priority on the next computation; nothing is stored.
func (s *TicketService) ChangePriority(ctx context.Context, actorID, ticketID int64, priority models.TicketPriority) (*models.Ticket, error) {
	if !priority.Valid() {
		return nil, &models.ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", priority)}
	}
	return s.mutate(ctx, actorID, ticketID, access.ActionUpdate, func(t *models.Ticket, now time.Time) error {
		t.Priority = priority
		t.LastActivityAt = now
		return nil
	})
}

// Assign sets the ticket's assignee, who must belong to the ticket's team.
func (s *TicketService) Assign(ctx context.Context, actorID, ticketID, assigneeID int64) (*models.Ticket, error) {
	return s.mutate(ctx, actorID, ticketID, access.ActionAssign, func(t *models.Ticket, now time.Time) error {
		if t.TeamID == nil {
			return &models.ValidationError{Field: "team_id", Message: "ticket has no team to assign within"}
		}
		members, err := s.teams.MembersOf(ctx, *t.TeamID)
		if err != nil {
			return fmt.Errorf("failed to resolve team members: %w", err)
		}
		found := false
		for _, id := range members {
			if id == assigneeID {
				found = true
				break
			}
		}
		if !found {
			return &models.ValidationError{Field: "assignee_id",
				Message: fmt.Sprintf("user %d is not a member of team %d", assigneeID, *t.TeamID)}
		}
		t.AssignedTo = &assigneeID
		t.LastActivityAt = now
		return nil
	})
}

// SetCustomDueDate places or clears an SLA override on the ticket. Only
// holders of the sla update grant (admins) may do this; the override wins
// over any policy until cleared.
func (s *TicketService) SetCustomDueDate(ctx context.Context, actorID, ticketID int64, dueAt *time.Time) (*models.Ticket, error) {
	scope, actor, err := s.access.ResolveScope(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Require(actor, access.ActionUpdate, access.ResourceSLA); err != nil {
		return nil, err
	}
	return s.mutateScoped(ctx, scope, actorID, ticketID, access.ActionUpdate, func(t *models.Ticket, now time.Time) error {
		t.CustomSLADueAt = dueAt
		t.LastActivityAt = now
		return nil
	})
}

// AddFollowers grants additional users follower visibility on the ticket.
func (s *TicketService) AddFollowers(ctx context.Context, actorID, ticketID int64, userIDs []int64) ([]int64, error) {
	scope, actor, err := s.access.ResolveScope(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Require(actor, access.ActionUpdate, access.ResourceTickets); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := access.AuthorizeTicket(scope, ticket); err != nil {
		s.access.auditDenied(actorID, ticketID, access.ActionUpdate)
		return nil, err
	}
	added, err := s.tickets.AddFollowers(ctx, ticketID, userIDs)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		s.emitter.EmitAudit(notifications.NewAudit(actorID, "tickets.follow",
			fmt.Sprintf("ticket:%d", ticketID), "updated", fmt.Sprintf("%d followers added", len(added))))
	}
	return added, nil
}

// GetSLAState returns only the ticket's SLA state. Unlike the composite
// ticket payload, a missing policy propagates here so admins notice the gap.
func (s *TicketService) GetSLAState(ctx context.Context, actorID, ticketID int64) (sla.State, error) {
	scope, actor, err := s.access.ResolveScope(ctx, actorID)
	if err != nil {
		return sla.State{}, err
	}
	if err := s.access.Require(actor, access.ActionRead, access.ResourceTickets); err != nil {
		return sla.State{}, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return sla.State{}, err
	}
	if err := access.AuthorizeTicket(scope, ticket); err != nil {
		s.access.auditDenied(actorID, ticketID, access.ActionRead)
		return sla.State{}, err
	}
	return s.sla.ComputeState(ctx, ticket, time.Now().UTC())
}

// mutate runs a scoped compare-and-swap write with bounded retries.
func (s *TicketService) mutate(ctx context.Context, actorID, ticketID int64, action access.Action, apply func(*models.Ticket, time.Time) error) (*models.Ticket, error) {
	scope, actor, err := s.access.ResolveScope(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Require(actor, action, access.ResourceTickets); err != nil {
		return nil, err
	}
	return s.mutateScoped(ctx, scope, actorID, ticketID, action, apply)
}

func (s *TicketService) mutateScoped(ctx context.Context, scope access.AccessScope, actorID, ticketID int64, action access.Action, apply func(*models.Ticket, time.Time) error) (*models.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		if err := access.AuthorizeTicket(scope, ticket); err != nil {
			s.access.auditDenied(actorID, ticketID, action)
			return nil, err
		}

		now := time.Now().UTC()
		if err := apply(ticket, now); err != nil {
			return nil, err
		}
		ticket.UpdatedAt = now

		err = s.tickets.UpdateCAS(ctx, ticket)
		if err == nil {
			s.emitter.EmitAudit(notifications.NewAudit(actorID, fmt.Sprintf("tickets.%s", action),
				fmt.Sprintf("ticket:%d", ticketID), "updated", ""))
			return ticket, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Printf("ticket %d write conflict, retrying (%d/%d)", ticketID, attempt+1, casRetries)
	}
	return nil, fmt.Errorf("ticket %d kept changing under us: %w", ticketID, lastErr)
}

func (s *TicketService) withSLA(ctx context.Context, t *models.Ticket) *TicketWithSLA {
	out := &TicketWithSLA{Ticket: t}
	state, err := s.sla.ComputeState(ctx, t, time.Now().UTC())
	if err != nil {
		// A missing policy must not hide the ticket itself.
		s.logger.Printf("SLA state unavailable for ticket %d: %v", t.ID, err)
		return out
	}
	out.SLA = &state
	return out
}
