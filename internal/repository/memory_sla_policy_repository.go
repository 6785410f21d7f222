package repository

import (
	"context"
	"sync"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// MemorySLAPolicyRepository is the in-memory policy store for development
// and tests.
type MemorySLAPolicyRepository struct {
	mu       sync.RWMutex
	policies map[int64]*models.SLAPolicy
	nextID   int64
}

// NewMemorySLAPolicyRepository creates an in-memory policy repository.
func NewMemorySLAPolicyRepository(policies ...*models.SLAPolicy) *MemorySLAPolicyRepository {
	r := &MemorySLAPolicyRepository{policies: make(map[int64]*models.SLAPolicy), nextID: 1}
	for _, p := range policies {
		r.Save(p)
	}
	return r
}

// Save inserts or replaces a policy. A zero id gets the next free one.
func (r *MemorySLAPolicyRepository) Save(p *models.SLAPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
	}
	if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	c := *p
	r.policies[p.ID] = &c
}

// ActiveByPriority returns the active policy for a priority, nil when none
// is configured. The most recently updated one wins.
func (r *MemorySLAPolicyRepository) ActiveByPriority(_ context.Context, priority models.TicketPriority) (*models.SLAPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *models.SLAPolicy
	for _, p := range r.policies {
		if p.Priority != priority || !p.IsActive {
			continue
		}
		if best == nil || p.UpdatedAt.After(best.UpdatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}
