package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// UserRepository handles database operations for users.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, database.ConvertPlaceholders(`
		SELECT id, email, full_name, role, team_id, is_active, created_at, updated_at
		FROM users WHERE id = ?`), id)
	return scanUser(row, id)
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, database.ConvertPlaceholders(`
		SELECT id, email, full_name, role, team_id, is_active, created_at, updated_at
		FROM users WHERE email = ?`), email)
	return scanUser(row, 0)
}

// AdminIDs returns the ids of every active admin manager.
func (r *UserRepository) AdminIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, database.ConvertPlaceholders(`
		SELECT id FROM users WHERE role = ? AND is_active = ? ORDER BY id`),
		string(models.RoleAdminManager), true)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan admin id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EmailsOf resolves user ids to their email addresses. Unknown ids are
// silently dropped.
func (r *UserRepository) EmailsOf(ctx context.Context, userIDs []int64) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, database.ConvertPlaceholders(
		`SELECT email FROM users WHERE id IN (`+database.InPlaceholders(len(args))+`) ORDER BY id`),
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()
	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func scanUser(row *sql.Row, id int64) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &role, &u.TeamID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}
