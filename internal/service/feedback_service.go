package service

import (
	"context"
	"log"
	"time"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// FeedbackStore is the feedback persistence surface.
type FeedbackStore interface {
	Create(ctx context.Context, fb *models.CustomerFeedback) error
	LatestForTicket(ctx context.Context, ticketID int64) (*models.CustomerFeedback, error)
}

// FeedbackService records and reads customer ratings. Ratings feed the
// customer_rating escalation condition, so they go through the same scope
// checks as any other ticket access.
type FeedbackService struct {
	feedback FeedbackStore
	tickets  TicketStore
	access   *AccessService
	logger   *log.Logger
}

// NewFeedbackService creates a feedback service.
func NewFeedbackService(feedback FeedbackStore, tickets TicketStore, accessSvc *AccessService, logger *log.Logger) *FeedbackService {
	if logger == nil {
		logger = log.Default()
	}
	return &FeedbackService{
		feedback: feedback,
		tickets:  tickets,
		access:   accessSvc,
		logger:   logger,
	}
}

// Submit records a rating on a ticket the actor can see.
func (s *FeedbackService) Submit(ctx context.Context, actorID, ticketID int64, rating int, comment string) (*models.CustomerFeedback, error) {
	ticket, err := s.authorize(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	fb := &models.CustomerFeedback{
		TicketID:    ticket.ID,
		Rating:      rating,
		Comment:     comment,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// Latest returns the newest rating on the ticket, nil when there is none.
func (s *FeedbackService) Latest(ctx context.Context, actorID, ticketID int64) (*models.CustomerFeedback, error) {
	ticket, err := s.authorize(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	return s.feedback.LatestForTicket(ctx, ticket.ID)
}

func (s *FeedbackService) authorize(ctx context.Context, actorID, ticketID int64) (*models.Ticket, error) {
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
	return ticket, nil
}
