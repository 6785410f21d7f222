package repository

import (
	"context"
	"sync"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// MemoryFeedbackRepository is the in-memory feedback store for development
// and tests.
type MemoryFeedbackRepository struct {
	mu      sync.RWMutex
	entries []*models.CustomerFeedback
}

// NewMemoryFeedbackRepository creates an in-memory feedback repository.
func NewMemoryFeedbackRepository() *MemoryFeedbackRepository {
	return &MemoryFeedbackRepository{}
}

// Create persists a rating.
func (r *MemoryFeedbackRepository) Create(_ context.Context, fb *models.CustomerFeedback) error {
	if fb.Rating < 1 || fb.Rating > 5 {
		return &models.ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *fb
	c.ID = int64(len(r.entries) + 1)
	fb.ID = c.ID
	r.entries = append(r.entries, &c)
	return nil
}

// LatestForTicket returns the newest rating on a ticket, nil when none.
func (r *MemoryFeedbackRepository) LatestForTicket(_ context.Context, ticketID int64) (*models.CustomerFeedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *models.CustomerFeedback
	for _, fb := range r.entries {
		if fb.TicketID != ticketID {
			continue
		}
		if best == nil || fb.SubmittedAt.After(best.SubmittedAt) ||
			(fb.SubmittedAt.Equal(best.SubmittedAt) && fb.ID > best.ID) {
			best = fb
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}
