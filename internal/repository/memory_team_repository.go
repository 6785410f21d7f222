package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// MemoryTeamRepository is the in-memory team store for development and tests.
type MemoryTeamRepository struct {
	mu    sync.RWMutex
	teams map[int64]*models.Team
}

// NewMemoryTeamRepository creates an in-memory team repository.
func NewMemoryTeamRepository(teams ...*models.Team) *MemoryTeamRepository {
	r := &MemoryTeamRepository{teams: make(map[int64]*models.Team)}
	for _, t := range teams {
		r.Seed(t)
	}
	return r
}

// Seed inserts a team as-is.
func (r *MemoryTeamRepository) Seed(t *models.Team) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	c.MemberIDs = append([]int64(nil), t.MemberIDs...)
	c.LeaderIDs = append([]int64(nil), t.LeaderIDs...)
	r.teams[t.ID] = &c
}

// GetByID retrieves a team.
func (r *MemoryTeamRepository) GetByID(_ context.Context, id int64) (*models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", id, ErrNotFound)
	}
	c := *t
	c.MemberIDs = append([]int64(nil), t.MemberIDs...)
	c.LeaderIDs = append([]int64(nil), t.LeaderIDs...)
	return &c, nil
}

// MembersOf returns the team's member ids.
func (r *MemoryTeamRepository) MembersOf(_ context.Context, teamID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[teamID]
	if !ok {
		return nil, nil
	}
	return append([]int64(nil), t.MemberIDs...), nil
}

// LeadersOf returns the team's leader ids.
func (r *MemoryTeamRepository) LeadersOf(_ context.Context, teamID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[teamID]
	if !ok {
		return nil, nil
	}
	return append([]int64(nil), t.LeaderIDs...), nil
}

// LeadershipsOf returns the ids of every team the user leads.
func (r *MemoryTeamRepository) LeadershipsOf(_ context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []int64
	for _, t := range r.teams {
		if t.HasLeader(userID) {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}
