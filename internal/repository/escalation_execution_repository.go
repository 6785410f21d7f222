package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/escalation"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// EscalationExecutionRepository persists execution claims. The table carries
// a unique constraint on (rule_id, ticket_id, fingerprint); Record maps a
// violation to escalation.ErrAlreadyExecuted, which is what gives concurrent
// evaluators their at-most-once guarantee.
type EscalationExecutionRepository struct {
	db *sql.DB
}

// NewEscalationExecutionRepository creates an execution repository.
func NewEscalationExecutionRepository(db *sql.DB) *EscalationExecutionRepository {
	return &EscalationExecutionRepository{db: db}
}

// WasExecuted reports whether the claim already exists.
func (r *EscalationExecutionRepository) WasExecuted(ctx context.Context, ruleID, ticketID int64, fingerprint string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, database.ConvertPlaceholders(
		`SELECT EXISTS(SELECT 1 FROM escalation_execution WHERE rule_id = ? AND ticket_id = ? AND fingerprint = ?)`),
		ruleID, ticketID, fingerprint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check escalation execution: %w", err)
	}
	return exists, nil
}

// Record inserts the claim, returning escalation.ErrAlreadyExecuted when a
// concurrent evaluator got there first.
func (r *EscalationExecutionRepository) Record(ctx context.Context, exec *models.EscalationExecution) error {
	_, err := r.db.ExecContext(ctx, database.ConvertPlaceholders(
		`INSERT INTO escalation_execution (rule_id, ticket_id, fingerprint, executed_at) VALUES (?, ?, ?, ?)`),
		exec.RuleID, exec.TicketID, exec.Fingerprint, exec.ExecutedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return escalation.ErrAlreadyExecuted
		}
		return fmt.Errorf("failed to record escalation execution: %w", err)
	}
	return nil
}

// ListForTicket returns the execution history of one ticket, newest first.
func (r *EscalationExecutionRepository) ListForTicket(ctx context.Context, ticketID int64) ([]*models.EscalationExecution, error) {
	rows, err := r.db.QueryContext(ctx, database.ConvertPlaceholders(`
		SELECT id, rule_id, ticket_id, fingerprint, executed_at
		FROM escalation_execution WHERE ticket_id = ? ORDER BY executed_at DESC, id DESC`), ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation executions: %w", err)
	}
	defer rows.Close()
	var execs []*models.EscalationExecution
	for rows.Next() {
		var e models.EscalationExecution
		if err := rows.Scan(&e.ID, &e.RuleID, &e.TicketID, &e.Fingerprint, &e.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan escalation execution: %w", err)
		}
		execs = append(execs, &e)
	}
	return execs, rows.Err()
}

// isUniqueViolation detects a unique constraint violation across the three
// supported drivers by message shape: postgres says "duplicate key value
// violates unique constraint", mysql "Duplicate entry", sqlite "UNIQUE
// constraint failed".
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
