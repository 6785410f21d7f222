package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// SLAPolicyRepository handles database operations for SLA policies.
type SLAPolicyRepository struct {
	db *sql.DB
}

// NewSLAPolicyRepository creates an SLA policy repository.
func NewSLAPolicyRepository(db *sql.DB) *SLAPolicyRepository {
	return &SLAPolicyRepository{db: db}
}

// ActiveByPriority returns the active policy for a priority, nil when none
// is configured. At most one active policy per priority is expected; the
// newest wins if that constraint is ever violated.
func (r *SLAPolicyRepository) ActiveByPriority(ctx context.Context, priority models.TicketPriority) (*models.SLAPolicy, error) {
	row := r.db.QueryRowContext(ctx, database.ConvertPlaceholders(`
		SELECT id, priority, response_time_hours, resolution_time_hours, is_active, created_at, updated_at
		FROM sla_policy
		WHERE priority = ? AND is_active = ?
		ORDER BY updated_at DESC
		LIMIT 1`), string(priority), true)
	policy, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load SLA policy for %s: %w", priority, err)
	}
	return policy, nil
}

// ListActive returns every active policy.
func (r *SLAPolicyRepository) ListActive(ctx context.Context) ([]*models.SLAPolicy, error) {
	rows, err := r.db.QueryContext(ctx, database.ConvertPlaceholders(`
		SELECT id, priority, response_time_hours, resolution_time_hours, is_active, created_at, updated_at
		FROM sla_policy WHERE is_active = ? ORDER BY id`), true)
	if err != nil {
		return nil, fmt.Errorf("failed to list SLA policies: %w", err)
	}
	defer rows.Close()
	var policies []*models.SLAPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan SLA policy: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

func scanPolicy(row rowScanner) (*models.SLAPolicy, error) {
	var p models.SLAPolicy
	var priority string
	if err := row.Scan(&p.ID, &priority, &p.ResponseTimeHours, &p.ResolutionTimeHours,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Priority = models.TicketPriority(priority)
	return &p, nil
}
