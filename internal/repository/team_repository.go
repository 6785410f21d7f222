package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// TeamRepository handles database operations for teams and their membership
// and leadership links.
type TeamRepository struct {
	db *sql.DB
}

// NewTeamRepository creates a team repository.
func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetByID retrieves a team with its member and leader sets.
func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*models.Team, error) {
	var team models.Team
	row := r.db.QueryRowContext(ctx, database.ConvertPlaceholders(
		`SELECT id, name, created_at, updated_at FROM team WHERE id = ?`), id)
	if err := row.Scan(&team.ID, &team.Name, &team.CreatedAt, &team.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("team %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load team %d: %w", id, err)
	}
	var err error
	if team.MemberIDs, err = r.MembersOf(ctx, id); err != nil {
		return nil, err
	}
	if team.LeaderIDs, err = r.LeadersOf(ctx, id); err != nil {
		return nil, err
	}
	return &team, nil
}

// MembersOf returns the user ids belonging to the team.
func (r *TeamRepository) MembersOf(ctx context.Context, teamID int64) ([]int64, error) {
	return r.userIDs(ctx,
		`SELECT user_id FROM team_member WHERE team_id = ? ORDER BY user_id`, teamID)
}

// LeadersOf returns the user ids leading the team.
func (r *TeamRepository) LeadersOf(ctx context.Context, teamID int64) ([]int64, error) {
	return r.userIDs(ctx,
		`SELECT user_id FROM team_leader WHERE team_id = ? ORDER BY user_id`, teamID)
}

// LeadershipsOf returns the ids of every team the user leads. Scope
// resolution reads this fresh on each request.
func (r *TeamRepository) LeadershipsOf(ctx context.Context, userID int64) ([]int64, error) {
	return r.userIDs(ctx,
		`SELECT team_id FROM team_leader WHERE user_id = ? ORDER BY team_id`, userID)
}

func (r *TeamRepository) userIDs(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, database.ConvertPlaceholders(query), arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query team links: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan team link: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
