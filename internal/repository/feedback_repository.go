package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// FeedbackRepository handles database operations for customer feedback.
type FeedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a feedback repository.
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// LatestForTicket returns the most recent rating on a ticket, nil when the
// customer never submitted one.
func (r *FeedbackRepository) LatestForTicket(ctx context.Context, ticketID int64) (*models.CustomerFeedback, error) {
	row := r.db.QueryRowContext(ctx, database.ConvertPlaceholders(`
		SELECT id, ticket_id, rating, comment, submitted_at
		FROM customer_feedback
		WHERE ticket_id = ?
		ORDER BY submitted_at DESC, id DESC
		LIMIT 1`), ticketID)
	var fb models.CustomerFeedback
	if err := row.Scan(&fb.ID, &fb.TicketID, &fb.Rating, &fb.Comment, &fb.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load feedback for ticket %d: %w", ticketID, err)
	}
	return &fb, nil
}

// Create persists a rating.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.CustomerFeedback) error {
	if fb.Rating < 1 || fb.Rating > 5 {
		return &models.ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	query := database.ConvertPlaceholders(`
		INSERT INTO customer_feedback (ticket_id, rating, comment, submitted_at) VALUES (?, ?, ?, ?)`)
	if database.IsPostgreSQL() {
		return r.db.QueryRowContext(ctx, query+" RETURNING id",
			fb.TicketID, fb.Rating, fb.Comment, fb.SubmittedAt).Scan(&fb.ID)
	}
	res, err := r.db.ExecContext(ctx, query, fb.TicketID, fb.Rating, fb.Comment, fb.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	fb.ID, err = res.LastInsertId()
	return err
}
