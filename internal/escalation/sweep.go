package escalation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// TicketLister supplies the candidate tickets for a sweep: active tickets
// only, resolved and closed ones have nothing left to escalate.
type TicketLister interface {
	ListActive(ctx context.Context) ([]*models.Ticket, error)
}

// RuleStore supplies the active escalation rules.
type RuleStore interface {
	ListActive(ctx context.Context) ([]*models.EscalationRule, error)
}

// SweepStats summarizes one sweep run.
type SweepStats struct {
	Tickets      int
	Executed     int
	Skipped      int
	Failed       int
	NotTriggered int
	Errors       int
}

// Sweeper runs the evaluator over all active tickets. Each ticket is
// evaluated independently: a failure on one is counted and logged but never
// stops the rest, and cancelling the context stops between tickets, not in
// the middle of one rule's action.
type Sweeper struct {
	tickets   TicketLister
	rules     RuleStore
	evaluator *Evaluator
	calendar  *cal.BusinessCalendar
	logger    *log.Logger
}

// NewSweeper creates a sweeper. calendar is optional; when set, sweeps
// outside business hours are no-ops.
func NewSweeper(tickets TicketLister, rules RuleStore, evaluator *Evaluator, calendar *cal.BusinessCalendar, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		tickets:   tickets,
		rules:     rules,
		evaluator: evaluator,
		calendar:  calendar,
		logger:    logger,
	}
}

// Sweep evaluates every active rule against every active ticket.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepStats, error) {
	var stats SweepStats

	if s.calendar != nil && !s.calendar.IsWorkTime(now) {
		s.logger.Printf("escalation sweep skipped: outside business hours")
		return stats, nil
	}

	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load escalation rules: %w", err)
	}
	if len(rules) == 0 {
		return stats, nil
	}

	tickets, err := s.tickets.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list active tickets: %w", err)
	}

	for _, ticket := range tickets {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Tickets++

		results := s.evaluator.Evaluate(ctx, ticket, rules, now)
		for _, r := range results {
			switch r.Status {
			case ResultExecuted:
				stats.Executed++
			case ResultSkipped:
				stats.Skipped++
			case ResultFailed:
				stats.Failed++
			case ResultNotTriggered:
				stats.NotTriggered++
			}
		}
	}

	s.logger.Printf("escalation sweep: %d tickets, %d executed, %d skipped, %d failed",
		stats.Tickets, stats.Executed, stats.Skipped, stats.Failed)
	return stats, nil
}
