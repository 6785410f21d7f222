package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/models"
)

func newMockRepo(t *testing.T) (*TicketRepository, sqlmock.Sqlmock) {
	t.Helper()
	t.Setenv("TEST_DB_DRIVER", "sqlite3")
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTicketRepository(db, nil, nil), mock
}

func ticketRows(t *models.Ticket) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "ticket_number", "title", "status", "priority",
		"created_by", "assigned_to", "team_id",
		"created_at", "updated_at", "status_changed_at", "last_activity_at",
		"resolved_at", "custom_sla_due_at", "version",
	}).AddRow(
		t.ID, t.TicketNumber, t.Title, string(t.Status), string(t.Priority),
		t.CreatedBy, t.AssignedTo, t.TeamID,
		t.CreatedAt, t.UpdatedAt, t.StatusChangedAt, t.LastActivityAt,
		t.ResolvedAt, t.CustomSLADueAt, t.Version,
	)
}

func TestTicketRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	teamID := int64(3)
	want := &models.Ticket{
		ID: 42, TicketNumber: "202506021000001", Title: "Printer on fire",
		Status: models.StatusOpen, Priority: models.PriorityHigh,
		CreatedBy: 10, TeamID: &teamID,
		CreatedAt: created, UpdatedAt: created, StatusChangedAt: created, LastActivityAt: created,
		Version: 1,
	}

	mock.ExpectQuery(`SELECT .+ FROM ticket t WHERE t\.id = \?`).
		WithArgs(int64(42)).
		WillReturnRows(ticketRows(want))
	mock.ExpectQuery(`SELECT ticket_id, user_id FROM ticket_follower`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"ticket_id", "user_id"}).
			AddRow(42, 7).AddRow(42, 9))

	got, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "202506021000001", got.TicketNumber)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, []int64{7, 9}, got.Followers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM ticket t WHERE t\.id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTicketRepositoryUpdateCAS(t *testing.T) {
	repo, mock := newMockRepo(t)

	ticket := &models.Ticket{ID: 42, Title: "x", Status: models.StatusOpen, Priority: models.PriorityLow, Version: 3}

	mock.ExpectExec(`UPDATE ticket\s+SET .+ WHERE id = \? AND version = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateCAS(context.Background(), ticket))
	assert.Equal(t, 4, ticket.Version, "version bumps in place on success")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepositoryUpdateCASConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	ticket := &models.Ticket{ID: 42, Title: "x", Status: models.StatusOpen, Priority: models.PriorityLow, Version: 3}

	mock.ExpectExec(`UPDATE ticket\s+SET .+ WHERE id = \? AND version = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCAS(context.Background(), ticket)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 3, ticket.Version, "version untouched on conflict")
}

func TestTicketRepositoryListUnsatisfiableSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Leader with no teams: the predicate matches nothing, so no SQL runs.
	pred := access.BuildTicketPredicate(access.AccessScope{UserID: 5, Role: models.RoleTeamLeader}, access.TicketFilter{})
	require.True(t, pred.Unsatisfiable())

	tickets, err := repo.List(context.Background(), pred)
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query expected")
}

func TestTicketRepositoryListPushesPredicateDown(t *testing.T) {
	repo, mock := newMockRepo(t)

	scope := access.AccessScope{UserID: 5, Role: models.RoleTeamLeader, TeamIDs: []int64{3, 4}}
	pred := access.BuildTicketPredicate(scope, access.TicketFilter{Status: models.StatusOpen})

	mock.ExpectQuery(`SELECT .+ FROM ticket t WHERE t\.team_id IN \(\?, \?\) AND t\.status = \? ORDER BY`).
		WithArgs(int64(3), int64(4), "open").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	tickets, err := repo.List(context.Background(), pred)
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.NoError(t, mock.ExpectationsWereMet())
}
