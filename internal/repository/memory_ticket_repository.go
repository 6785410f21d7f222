package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/ticketnumber"
)

// MemoryTicketRepository is the in-memory ticket store for development and
// tests. It honors the same version discipline as the SQL repository.
type MemoryTicketRepository struct {
	mu        sync.RWMutex
	tickets   map[int64]*models.Ticket
	nextID    int64
	generator ticketnumber.Generator
	counters  ticketnumber.CounterStore
}

// NewMemoryTicketRepository creates an in-memory ticket repository.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets:   make(map[int64]*models.Ticket),
		nextID:    1,
		generator: ticketnumber.NewDate(ticketnumber.Config{SystemID: "10", MinCounterSize: 5}, nil),
		counters:  ticketnumber.NewMemoryStore(),
	}
}

// Seed inserts a ticket as-is, preserving its id and version. Test fixture
// hook.
func (r *MemoryTicketRepository) Seed(t *models.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.ID] = t.Clone()
	if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
}

// GetByID retrieves a ticket.
func (r *MemoryTicketRepository) GetByID(_ context.Context, id int64) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %d: %w", id, ErrNotFound)
	}
	return t.Clone(), nil
}

// List returns tickets matching the predicate, newest first.
func (r *MemoryTicketRepository) List(_ context.Context, pred access.Predicate) ([]*models.Ticket, error) {
	if pred.Unsatisfiable() {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Ticket
	for _, t := range r.tickets {
		if pred.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListActive returns every ticket still counting against its SLA.
func (r *MemoryTicketRepository) ListActive(_ context.Context) ([]*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Ticket
	for _, t := range r.tickets {
		if t.Status.Active() {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Create inserts a new ticket, assigning id, number and timestamps.
func (r *MemoryTicketRepository) Create(ctx context.Context, t *models.Ticket) error {
	number, err := r.generator.Next(ctx, r.counters)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	t.ID = r.nextID
	r.nextID++
	t.TicketNumber = number
	t.CreatedAt = now
	t.UpdatedAt = now
	t.StatusChangedAt = now
	t.LastActivityAt = now
	t.Version = 1
	r.tickets[t.ID] = t.Clone()
	return nil
}

// UpdateCAS writes the ticket back if its version still matches.
func (r *MemoryTicketRepository) UpdateCAS(_ context.Context, t *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.tickets[t.ID]
	if !ok {
		return fmt.Errorf("ticket %d: %w", t.ID, ErrNotFound)
	}
	if cur.Version != t.Version {
		return fmt.Errorf("ticket %d at version %d: %w", t.ID, t.Version, ErrConflict)
	}
	updated := t.Clone()
	updated.Version++
	updated.Followers = append([]int64(nil), cur.Followers...)
	r.tickets[t.ID] = updated
	t.Version = updated.Version
	return nil
}

// AddFollowers adds users to the follower set and returns the new ones.
func (r *MemoryTicketRepository) AddFollowers(_ context.Context, ticketID int64, userIDs []int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[ticketID]
	if !ok {
		return nil, fmt.Errorf("ticket %d: %w", ticketID, ErrNotFound)
	}
	var added []int64
	for _, id := range userIDs {
		if !t.IsFollower(id) {
			t.Followers = append(t.Followers, id)
			added = append(added, id)
		}
	}
	return added, nil
}
