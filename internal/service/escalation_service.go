package service

import (
	"context"
	"log"
	"time"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/escalation"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// RuleStore supplies active escalation rules.
type RuleStore interface {
	ListActive(ctx context.Context) ([]*models.EscalationRule, error)
}

// EscalationService exposes the evaluate-now path. It shares the evaluator
// instance with the periodic sweep so both funnel through the same
// idempotence discipline: a manual evaluation right after a sweep skips
// instead of re-firing.
type EscalationService struct {
	tickets   TicketStore
	rules     RuleStore
	evaluator *escalation.Evaluator
	access    *AccessService
	logger    *log.Logger
}

// NewEscalationService creates an escalation service.
func NewEscalationService(tickets TicketStore, rules RuleStore, evaluator *escalation.Evaluator, accessSvc *AccessService, logger *log.Logger) *EscalationService {
	if logger == nil {
		logger = log.Default()
	}
	return &EscalationService{
		tickets:   tickets,
		rules:     rules,
		evaluator: evaluator,
		access:    accessSvc,
		logger:    logger,
	}
}

// EvaluateTicket runs every active rule against one ticket on demand.
// The actor needs the evaluate grant and the ticket in scope.
func (s *EscalationService) EvaluateTicket(ctx context.Context, actorID, ticketID int64) ([]escalation.ExecutionResult, error) {
	scope, actor, err := s.access.ResolveScope(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Require(actor, access.ActionEvaluate, access.ResourceTickets); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := access.AuthorizeTicket(scope, ticket); err != nil {
		s.access.auditDenied(actorID, ticketID, access.ActionEvaluate)
		return nil, err
	}
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.evaluator.Evaluate(ctx, ticket, rules, time.Now().UTC()), nil
}
