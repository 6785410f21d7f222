package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/godesk-io/godesk-ce/internal/escalation"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// MemoryEscalationRuleRepository is the in-memory rule store for development
// and tests. Rules are validated on Save, matching the SQL repository's
// load-time validation.
type MemoryEscalationRuleRepository struct {
	mu     sync.RWMutex
	rules  map[int64]*models.EscalationRule
	nextID int64
}

// NewMemoryEscalationRuleRepository creates an in-memory rule repository.
func NewMemoryEscalationRuleRepository() *MemoryEscalationRuleRepository {
	return &MemoryEscalationRuleRepository{rules: make(map[int64]*models.EscalationRule), nextID: 1}
}

// Save validates and stores a rule. A zero id gets the next free one.
func (r *MemoryEscalationRuleRepository) Save(rule *models.EscalationRule) error {
	if err := escalation.ValidateRule(rule); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == 0 {
		rule.ID = r.nextID
	}
	if rule.ID >= r.nextID {
		r.nextID = rule.ID + 1
	}
	c := *rule
	r.rules[rule.ID] = &c
	return nil
}

// GetByID retrieves a rule.
func (r *MemoryEscalationRuleRepository) GetByID(_ context.Context, id int64) (*models.EscalationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, fmt.Errorf("escalation rule %d: %w", id, ErrNotFound)
	}
	c := *rule
	return &c, nil
}

// ListActive returns every active rule ordered by id.
func (r *MemoryEscalationRuleRepository) ListActive(_ context.Context) ([]*models.EscalationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.EscalationRule
	for _, rule := range r.rules {
		if rule.IsActive {
			c := *rule
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryEscalationExecutionRepository is the in-memory claim store. It gives
// the same uniqueness guarantee as the SQL table's constraint.
type MemoryEscalationExecutionRepository struct {
	mu    sync.Mutex
	seen  map[string]bool
	execs []*models.EscalationExecution
}

// NewMemoryEscalationExecutionRepository creates an in-memory execution
// repository.
func NewMemoryEscalationExecutionRepository() *MemoryEscalationExecutionRepository {
	return &MemoryEscalationExecutionRepository{seen: make(map[string]bool)}
}

func executionKey(ruleID, ticketID int64, fingerprint string) string {
	return fmt.Sprintf("%d/%d/%s", ruleID, ticketID, fingerprint)
}

// WasExecuted reports whether the claim already exists.
func (r *MemoryEscalationExecutionRepository) WasExecuted(_ context.Context, ruleID, ticketID int64, fingerprint string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[executionKey(ruleID, ticketID, fingerprint)], nil
}

// Record inserts the claim, rejecting duplicates with
// escalation.ErrAlreadyExecuted.
func (r *MemoryEscalationExecutionRepository) Record(_ context.Context, exec *models.EscalationExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := executionKey(exec.RuleID, exec.TicketID, exec.Fingerprint)
	if r.seen[key] {
		return escalation.ErrAlreadyExecuted
	}
	r.seen[key] = true
	c := *exec
	c.ID = int64(len(r.execs) + 1)
	r.execs = append(r.execs, &c)
	return nil
}

// ListForTicket returns the ticket's execution history, newest first.
func (r *MemoryEscalationExecutionRepository) ListForTicket(_ context.Context, ticketID int64) ([]*models.EscalationExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.EscalationExecution
	for i := len(r.execs) - 1; i >= 0; i-- {
		if r.execs[i].TicketID == ticketID {
			c := *r.execs[i]
			out = append(out, &c)
		}
	}
	return out, nil
}
