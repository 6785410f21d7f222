package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// MemoryUserRepository is the in-memory user store for development and tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*models.User
}

// NewMemoryUserRepository creates an in-memory user repository.
func NewMemoryUserRepository(users ...*models.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[int64]*models.User)}
	for _, u := range users {
		r.Seed(u)
	}
	return r
}

// Seed inserts a user as-is.
func (r *MemoryUserRepository) Seed(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	r.users[u.ID] = &c
}

// GetByID retrieves a user.
func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	c := *u
	return &c, nil
}

// AdminIDs returns every active admin manager.
func (r *MemoryUserRepository) AdminIDs(_ context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []int64
	for _, u := range r.users {
		if u.Role == models.RoleAdminManager && u.IsActive {
			ids = append(ids, u.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// EmailsOf resolves user ids to email addresses, dropping unknown ids.
func (r *MemoryUserRepository) EmailsOf(_ context.Context, userIDs []int64) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var emails []string
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			emails = append(emails, u.Email)
		}
	}
	return emails, nil
}
