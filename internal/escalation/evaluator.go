package escalation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/notifications"
	"github.com/godesk-io/godesk-ce/internal/sla"
)

// ErrAlreadyExecuted is returned by an ExecutionStore when another evaluator
// has already claimed the (rule, ticket, fingerprint) triple.
var ErrAlreadyExecuted = errors.New("escalation already executed for this state")

// RuleExecutionError wraps a failure of a single rule's action. Failures are
// isolated: one failing rule never aborts its siblings.
type RuleExecutionError struct {
	RuleID   int64
	RuleName string
	Err      error
}

func (e *RuleExecutionError) Error() string {
	return fmt.Sprintf("rule %d (%s) failed: %v", e.RuleID, e.RuleName, e.Err)
}

func (e *RuleExecutionError) Unwrap() error { return e.Err }

// ResultStatus is the terminal state of one rule evaluation.
type ResultStatus string

const (
	ResultNotTriggered ResultStatus = "not_triggered"
	ResultExecuted     ResultStatus = "executed"
	ResultSkipped      ResultStatus = "skipped"
	ResultFailed       ResultStatus = "failed"
)

// ExecutionResult reports the outcome of one rule against one ticket.
type ExecutionResult struct {
	RuleID     int64                       `json:"rule_id"`
	RuleName   string                      `json:"rule_name"`
	ActionType models.EscalationActionType `json:"action_type"`
	Status     ResultStatus                `json:"status"`
	Detail     string                      `json:"detail,omitempty"`
	Err        error                       `json:"-"`
}

// Success reports whether the rule either executed or had nothing to do.
func (r ExecutionResult) Success() bool {
	return r.Status != ResultFailed
}

// TicketStore is the slice of ticket persistence the evaluator needs.
// Writes go through compare-and-swap so an escalation racing a user edit
// cannot both win.
type TicketStore interface {
	UpdateCAS(ctx context.Context, t *models.Ticket) error
	AddFollowers(ctx context.Context, ticketID int64, userIDs []int64) ([]int64, error)
}

// TeamStore resolves team membership for action scoping.
type TeamStore interface {
	LeadersOf(ctx context.Context, teamID int64) ([]int64, error)
	MembersOf(ctx context.Context, teamID int64) ([]int64, error)
}

// UserStore resolves notification recipients.
type UserStore interface {
	AdminIDs(ctx context.Context) ([]int64, error)
	EmailsOf(ctx context.Context, userIDs []int64) ([]string, error)
}

// FeedbackStore supplies the latest customer rating for a ticket, nil when
// none was submitted.
type FeedbackStore interface {
	LatestForTicket(ctx context.Context, ticketID int64) (*models.CustomerFeedback, error)
}

// ExecutionStore persists the at-most-once claims. Record must reject a
// duplicate (rule, ticket, fingerprint) with ErrAlreadyExecuted; that
// rejection is what makes concurrent sweeps safe.
type ExecutionStore interface {
	WasExecuted(ctx context.Context, ruleID, ticketID int64, fingerprint string) (bool, error)
	Record(ctx context.Context, exec *models.EscalationExecution) error
}

// Evaluator runs escalation rules against tickets. Both the periodic sweep
// and the manual evaluate-now path funnel through the same instance so they
// share one idempotence discipline.
type Evaluator struct {
	tickets    TicketStore
	teams      TeamStore
	users      UserStore
	feedback   FeedbackStore
	executions ExecutionStore
	sla        *sla.Service
	emitter    notifications.Emitter
	logger     *log.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(
	tickets TicketStore,
	teams TeamStore,
	users UserStore,
	feedback FeedbackStore,
	executions ExecutionStore,
	slaSvc *sla.Service,
	emitter notifications.Emitter,
	logger *log.Logger,
) *Evaluator {
	if logger == nil {
		logger = log.Default()
	}
	if emitter == nil {
		emitter = notifications.NewLogEmitter(logger)
	}
	return &Evaluator{
		tickets:    tickets,
		teams:      teams,
		users:      users,
		feedback:   feedback,
		executions: executions,
		sla:        slaSvc,
		emitter:    emitter,
		logger:     logger,
	}
}

// Evaluate runs every active rule against the ticket and returns one result
// per rule. Inactive rules are ignored. A failure in one rule's action is
// reported in its result and does not stop the remaining rules.
func (e *Evaluator) Evaluate(ctx context.Context, ticket *models.Ticket, rules []*models.EscalationRule, now time.Time) []ExecutionResult {
	var results []ExecutionResult
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		results = append(results, e.evaluateRule(ctx, ticket, rule, now))
	}
	return results
}

func (e *Evaluator) evaluateRule(ctx context.Context, ticket *models.Ticket, rule *models.EscalationRule, now time.Time) ExecutionResult {
	res := ExecutionResult{RuleID: rule.ID, RuleName: rule.Name, ActionType: rule.ActionType}

	var fb *models.CustomerFeedback
	if rule.ConditionType == models.ConditionCustomerRating {
		var err error
		fb, err = e.feedback.LatestForTicket(ctx, ticket.ID)
		if err != nil {
			return e.fail(res, rule, fmt.Errorf("failed to load feedback: %w", err))
		}
	}

	triggered, err := e.conditionMet(ctx, ticket, rule, fb, now)
	if err != nil {
		return e.fail(res, rule, err)
	}
	if !triggered {
		res.Status = ResultNotTriggered
		return res
	}

	fp := Fingerprint(rule, ticket, fb)
	done, err := e.executions.WasExecuted(ctx, rule.ID, ticket.ID, fp)
	if err != nil {
		return e.fail(res, rule, fmt.Errorf("failed to check execution record: %w", err))
	}
	if done {
		res.Status = ResultSkipped
		res.Detail = "already executed for this ticket state"
		return res
	}

	// Claim before acting. The unique record is what keeps a concurrent
	// sweep or a manual evaluation from repeating the side effect; losing
	// the race surfaces as ErrAlreadyExecuted here.
	err = e.executions.Record(ctx, &models.EscalationExecution{
		RuleID:      rule.ID,
		TicketID:    ticket.ID,
		Fingerprint: fp,
		ExecutedAt:  now,
	})
	if errors.Is(err, ErrAlreadyExecuted) {
		res.Status = ResultSkipped
		res.Detail = "claimed by a concurrent evaluation"
		return res
	}
	if err != nil {
		return e.fail(res, rule, fmt.Errorf("failed to record execution: %w", err))
	}

	detail, err := e.executeAction(ctx, ticket, rule, now)
	if err != nil {
		return e.fail(res, rule, err)
	}

	res.Status = ResultExecuted
	res.Detail = detail
	e.emitter.EmitAudit(notifications.NewAudit(0, "escalation."+string(rule.ActionType),
		fmt.Sprintf("ticket:%d", ticket.ID), "executed", fmt.Sprintf("rule %q: %s", rule.Name, detail)))
	return res
}

func (e *Evaluator) fail(res ExecutionResult, rule *models.EscalationRule, err error) ExecutionResult {
	res.Status = ResultFailed
	res.Err = &RuleExecutionError{RuleID: rule.ID, RuleName: rule.Name, Err: err}
	res.Detail = err.Error()
	e.logger.Printf("escalation rule %d (%s) failed: %v", rule.ID, rule.Name, err)
	return res
}

func (e *Evaluator) conditionMet(ctx context.Context, ticket *models.Ticket, rule *models.EscalationRule, fb *models.CustomerFeedback, now time.Time) (bool, error) {
	switch rule.ConditionType {
	case models.ConditionSLABreach:
		var p SLABreachParams
		if err := decodeParams(rule.ConditionParams, &p); err != nil {
			return false, err
		}
		if !ticket.Status.Active() {
			return false, nil
		}
		state, err := e.sla.ComputeState(ctx, ticket, now)
		if err != nil {
			return false, err
		}
		threshold := time.Duration(p.ThresholdHours * float64(time.Hour))
		return state.Remaining <= threshold, nil

	case models.ConditionTimeInStatus:
		var p TimeInStatusParams
		if err := decodeParams(rule.ConditionParams, &p); err != nil {
			return false, err
		}
		status, err := models.ParseTicketStatus(p.Status)
		if err != nil {
			return false, err
		}
		if ticket.Status != status {
			return false, nil
		}
		held := now.Sub(ticket.StatusChangedAt)
		return held >= time.Duration(p.Hours*float64(time.Hour)), nil

	case models.ConditionPriorityLevel:
		var p PriorityLevelParams
		if err := decodeParams(rule.ConditionParams, &p); err != nil {
			return false, err
		}
		for _, raw := range p.Priorities {
			if string(ticket.Priority) == raw {
				return true, nil
			}
		}
		return false, nil

	case models.ConditionNoResponse:
		var p NoResponseParams
		if err := decodeParams(rule.ConditionParams, &p); err != nil {
			return false, err
		}
		if !ticket.Status.Active() {
			return false, nil
		}
		idle := now.Sub(ticket.LastActivityAt)
		return idle >= time.Duration(p.Hours*float64(time.Hour)), nil

	case models.ConditionCustomerRating:
		var p CustomerRatingParams
		if err := decodeParams(rule.ConditionParams, &p); err != nil {
			return false, err
		}
		if fb == nil {
			return false, nil
		}
		return p.Compare(fb.Rating), nil
	}
	return false, fmt.Errorf("unknown condition type %q", rule.ConditionType)
}

func (e *Evaluator) executeAction(ctx context.Context, ticket *models.Ticket, rule *models.EscalationRule, now time.Time) (string, error) {
	switch rule.ActionType {
	case models.ActionNotifyManager:
		return e.actionNotifyManager(ctx, ticket, rule)
	case models.ActionReassignTicket:
		return e.actionReassign(ctx, ticket, rule, now)
	case models.ActionIncreasePriority:
		return e.actionIncreasePriority(ctx, ticket, now)
	case models.ActionAddFollower:
		return e.actionAddFollower(ctx, ticket, rule)
	case models.ActionSendEmail:
		return e.actionSendEmail(ctx, ticket, rule)
	}
	return "", fmt.Errorf("unknown action type %q", rule.ActionType)
}

// managerRecipients resolves the ticket's team leaders plus all admins,
// deduplicated.
func (e *Evaluator) managerRecipients(ctx context.Context, ticket *models.Ticket) ([]int64, error) {
	seen := make(map[int64]bool)
	var recipients []int64

	if ticket.TeamID != nil {
		leaders, err := e.teams.LeadersOf(ctx, *ticket.TeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve team leaders: %w", err)
		}
		for _, id := range leaders {
			if !seen[id] {
				seen[id] = true
				recipients = append(recipients, id)
			}
		}
	}

	admins, err := e.users.AdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve admins: %w", err)
	}
	for _, id := range admins {
		if !seen[id] {
			seen[id] = true
			recipients = append(recipients, id)
		}
	}
	return recipients, nil
}

func (e *Evaluator) actionNotifyManager(ctx context.Context, ticket *models.Ticket, rule *models.EscalationRule) (string, error) {
	var p NotifyManagerParams
	if len(rule.ActionParams) > 0 {
		if err := decodeParams(rule.ActionParams, &p); err != nil {
			return "", err
		}
	}
	recipients, err := e.managerRecipients(ctx, ticket)
	if err != nil {
		return "", err
	}
	if len(recipients) == 0 {
		return "", fmt.Errorf("no managers in scope for ticket %d", ticket.ID)
	}
	reason := p.Message
	if reason == "" {
		reason = fmt.Sprintf("escalation rule %q triggered", rule.Name)
	}
	e.emitter.EmitNotification(notifications.NewNotification(ticket.ID, recipients, reason))
	return fmt.Sprintf("notified %d recipients", len(recipients)), nil
}

func (e *Evaluator) actionReassign(ctx context.Context, ticket *models.Ticket, rule *models.EscalationRule, now time.Time) (string, error) {
	var p ReassignTicketParams
	if err := decodeParams(rule.ActionParams, &p); err != nil {
		return "", err
	}
	if ticket.TeamID == nil {
		return "", fmt.Errorf("ticket %d has no team, cannot scope reassignment", ticket.ID)
	}
	members, err := e.teams.MembersOf(ctx, *ticket.TeamID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve team members: %w", err)
	}
	inTeam := false
	for _, id := range members {
		if id == p.AssigneeID {
			inTeam = true
			break
		}
	}
	if !inTeam {
		return "", fmt.Errorf("assignee %d is not a member of team %d", p.AssigneeID, *ticket.TeamID)
	}

	updated := ticket.Clone()
	updated.AssignedTo = &p.AssigneeID
	updated.UpdatedAt = now
	if err := e.tickets.UpdateCAS(ctx, updated); err != nil {
		return "", fmt.Errorf("failed to reassign ticket: %w", err)
	}
	*ticket = *updated
	return fmt.Sprintf("reassigned to user %d", p.AssigneeID), nil
}

func (e *Evaluator) actionIncreasePriority(ctx context.Context, ticket *models.Ticket, now time.Time) (string, error) {
	next := ticket.Priority.NextHigher()
	if next == ticket.Priority {
		return "already at urgent", nil
	}
	updated := ticket.Clone()
	updated.Priority = next
	updated.UpdatedAt = now
	if err := e.tickets.UpdateCAS(ctx, updated); err != nil {
		return "", fmt.Errorf("failed to raise priority: %w", err)
	}
	*ticket = *updated
	// The SLA deadline is derived from priority, so the raise tightens the
	// clock on the next computation without any extra bookkeeping.
	return fmt.Sprintf("priority raised to %s", next), nil
}

func (e *Evaluator) actionAddFollower(ctx context.Context, ticket *models.Ticket, rule *models.EscalationRule) (string, error) {
	var p AddFollowerParams
	if err := decodeParams(rule.ActionParams, &p); err != nil {
		return "", err
	}
	added, err := e.tickets.AddFollowers(ctx, ticket.ID, p.UserIDs)
	if err != nil {
		return "", fmt.Errorf("failed to add followers: %w", err)
	}
	for _, id := range added {
		if !ticket.IsFollower(id) {
			ticket.Followers = append(ticket.Followers, id)
		}
	}
	return fmt.Sprintf("added %d followers", len(added)), nil
}

func (e *Evaluator) actionSendEmail(ctx context.Context, ticket *models.Ticket, rule *models.EscalationRule) (string, error) {
	var p SendEmailParams
	if err := decodeParams(rule.ActionParams, &p); err != nil {
		return "", err
	}
	recipients := p.Recipients
	if len(recipients) == 0 {
		ids, err := e.managerRecipients(ctx, ticket)
		if err != nil {
			return "", err
		}
		recipients, err = e.users.EmailsOf(ctx, ids)
		if err != nil {
			return "", fmt.Errorf("failed to resolve recipient addresses: %w", err)
		}
	}
	if len(recipients) == 0 {
		return "", fmt.Errorf("no email recipients resolved for ticket %d", ticket.ID)
	}
	e.emitter.EmitEmail(notifications.NewEmail(ticket.ID, recipients, p.Subject,
		fmt.Sprintf("escalation rule %q triggered", rule.Name)))
	return fmt.Sprintf("email intent for %d recipients", len(recipients)), nil
}
