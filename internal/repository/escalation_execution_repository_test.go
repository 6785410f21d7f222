package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godesk-io/godesk-ce/internal/escalation"
	"github.com/godesk-io/godesk-ce/internal/models"
)

func newExecutionRepo(t *testing.T) (*EscalationExecutionRepository, sqlmock.Sqlmock) {
	t.Helper()
	t.Setenv("TEST_DB_DRIVER", "sqlite3")
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEscalationExecutionRepository(db), mock
}

func TestExecutionRepositoryRecord(t *testing.T) {
	repo, mock := newExecutionRepo(t)

	mock.ExpectExec(`INSERT INTO escalation_execution`).
		WithArgs(int64(1), int64(42), "abc123", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Record(context.Background(), &models.EscalationExecution{
		RuleID: 1, TicketID: 42, Fingerprint: "abc123", ExecutedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutionRepositoryRecordDuplicateClaim(t *testing.T) {
	repo, mock := newExecutionRepo(t)

	mock.ExpectExec(`INSERT INTO escalation_execution`).
		WillReturnError(errors.New("UNIQUE constraint failed: escalation_execution.rule_id, escalation_execution.ticket_id, escalation_execution.fingerprint"))

	err := repo.Record(context.Background(), &models.EscalationExecution{
		RuleID: 1, TicketID: 42, Fingerprint: "abc123", ExecutedAt: time.Now(),
	})
	assert.ErrorIs(t, err, escalation.ErrAlreadyExecuted)
}

func TestExecutionRepositoryRecordOtherError(t *testing.T) {
	repo, mock := newExecutionRepo(t)

	mock.ExpectExec(`INSERT INTO escalation_execution`).
		WillReturnError(errors.New("disk I/O error"))

	err := repo.Record(context.Background(), &models.EscalationExecution{RuleID: 1, TicketID: 42, Fingerprint: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, escalation.ErrAlreadyExecuted)
}

func TestExecutionRepositoryWasExecuted(t *testing.T) {
	repo, mock := newExecutionRepo(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM escalation_execution`).
		WithArgs(int64(1), int64(42), "abc123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	done, err := repo.WasExecuted(context.Background(), 1, 42, "abc123")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestUniqueViolationDetection(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"UNIQUE constraint failed: escalation_execution.fingerprint", true},
		{`pq: duplicate key value violates unique constraint "escalation_execution_claim"`, true},
		{"Error 1062: Duplicate entry '1-42-abc' for key 'claim'", true},
		{"connection refused", false},
		{"syntax error near INSERT", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isUniqueViolation(errors.New(tc.msg)), tc.msg)
	}
	assert.False(t, isUniqueViolation(nil))
}
