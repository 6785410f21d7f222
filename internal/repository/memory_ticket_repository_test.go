package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/models"
)

func seedTicket(id int64, teamID int64, createdBy int64) *models.Ticket {
	created := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute)
	return &models.Ticket{
		ID: id, TicketNumber: "T", Title: "ticket", Status: models.StatusOpen,
		Priority: models.PriorityMedium, CreatedBy: createdBy, TeamID: &teamID,
		CreatedAt: created, UpdatedAt: created, StatusChangedAt: created, LastActivityAt: created,
		Version: 1,
	}
}

func TestMemoryTicketRepositoryCAS(t *testing.T) {
	repo := NewMemoryTicketRepository()
	repo.Seed(seedTicket(1, 3, 10))

	ctx := context.Background()
	a, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)

	a.Title = "first writer"
	require.NoError(t, repo.UpdateCAS(ctx, a))
	assert.Equal(t, 2, a.Version)

	b.Title = "second writer"
	err = repo.UpdateCAS(ctx, b)
	assert.ErrorIs(t, err, ErrConflict, "stale version must be rejected")

	stored, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first writer", stored.Title)
}

func TestMemoryTicketRepositoryConcurrentCAS(t *testing.T) {
	repo := NewMemoryTicketRepository()
	repo.Seed(seedTicket(1, 3, 10))
	ctx := context.Background()

	var wg sync.WaitGroup
	wins := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk, err := repo.GetByID(ctx, 1)
			if err != nil {
				t.Errorf("GetByID failed: %v", err)
				return
			}
			tk.Title = "racer"
			wins <- repo.UpdateCAS(ctx, tk) == nil
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	assert.GreaterOrEqual(t, won, 1, "at least one writer wins")

	stored, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1+won, stored.Version, "version counts exactly the winners")
}

func TestMemoryTicketRepositoryListAppliesPredicate(t *testing.T) {
	repo := NewMemoryTicketRepository()
	repo.Seed(seedTicket(1, 3, 10))
	repo.Seed(seedTicket(2, 4, 11))
	repo.Seed(seedTicket(3, 3, 12))

	scope := access.AccessScope{UserID: 5, Role: models.RoleTeamLeader, TeamIDs: []int64{3}}
	pred := access.BuildTicketPredicate(scope, access.TicketFilter{})

	tickets, err := repo.List(context.Background(), pred)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, int64(3), tickets[0].ID, "newest first")
	assert.Equal(t, int64(1), tickets[1].ID)
}

func TestMemoryTicketRepositoryCreateAssignsNumber(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	tk := &models.Ticket{Title: "new", Status: models.StatusOpen, Priority: models.PriorityLow, CreatedBy: 10}
	require.NoError(t, repo.Create(ctx, tk))
	assert.NotZero(t, tk.ID)
	assert.NotEmpty(t, tk.TicketNumber)
	assert.Equal(t, 1, tk.Version)
	assert.False(t, tk.StatusChangedAt.IsZero())

	second := &models.Ticket{Title: "another", Status: models.StatusOpen, Priority: models.PriorityLow, CreatedBy: 10}
	require.NoError(t, repo.Create(ctx, second))
	assert.NotEqual(t, tk.TicketNumber, second.TicketNumber)
}

func TestMemoryTicketRepositoryAddFollowersDedupes(t *testing.T) {
	repo := NewMemoryTicketRepository()
	seed := seedTicket(1, 3, 10)
	seed.Followers = []int64{7}
	repo.Seed(seed)

	added, err := repo.AddFollowers(context.Background(), 1, []int64{7, 8, 8})
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, added)

	stored, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{7, 8}, stored.Followers)
}
