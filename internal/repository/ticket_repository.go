package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/godesk-io/godesk-ce/internal/access"
	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/ticketnumber"
)

const ticketColumns = `t.id, t.ticket_number, t.title, t.status, t.priority,
       t.created_by, t.assigned_to, t.team_id,
       t.created_at, t.updated_at, t.status_changed_at, t.last_activity_at,
       t.resolved_at, t.custom_sla_due_at, t.version`

// TicketRepository handles database operations for tickets.
type TicketRepository struct {
	db        *sql.DB
	generator ticketnumber.Generator
	counters  ticketnumber.CounterStore
}

// NewTicketRepository creates a ticket repository. generator and counters are
// only needed when the repository creates tickets; read-side consumers may
// pass nil.
func NewTicketRepository(db *sql.DB, generator ticketnumber.Generator, counters ticketnumber.CounterStore) *TicketRepository {
	return &TicketRepository{db: db, generator: generator, counters: counters}
}

// GetByID retrieves a ticket with its follower set.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	row := r.db.QueryRowContext(ctx, database.ConvertPlaceholders(
		`SELECT `+ticketColumns+` FROM ticket t WHERE t.id = ?`), id)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ticket %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load ticket %d: %w", id, err)
	}
	if err := r.loadFollowers(ctx, map[int64]*models.Ticket{ticket.ID: ticket}); err != nil {
		return nil, err
	}
	return ticket, nil
}

// List returns the tickets visible through the given predicate, newest first.
// An unsatisfiable predicate short-circuits without touching the database.
func (r *TicketRepository) List(ctx context.Context, pred access.Predicate) ([]*models.Ticket, error) {
	if pred.Unsatisfiable() {
		return nil, nil
	}
	where, args := pred.SQL()
	query := database.ConvertPlaceholders(
		`SELECT ` + ticketColumns + ` FROM ticket t WHERE ` + where + ` ORDER BY t.created_at DESC, t.id DESC`)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()
	return r.collectTickets(ctx, rows)
}

// ListActive returns every ticket still counting against its SLA. Used by
// the escalation sweep.
func (r *TicketRepository) ListActive(ctx context.Context) ([]*models.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, database.ConvertPlaceholders(
		`SELECT `+ticketColumns+` FROM ticket t WHERE t.status NOT IN (?, ?) ORDER BY t.id`),
		string(models.StatusResolved), string(models.StatusClosed))
	if err != nil {
		return nil, fmt.Errorf("failed to list active tickets: %w", err)
	}
	defer rows.Close()
	return r.collectTickets(ctx, rows)
}

// Create inserts a new ticket, assigning its number and initial timestamps.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if r.generator == nil || r.counters == nil {
		return errors.New("ticket number generator not configured")
	}
	number, err := r.generator.Next(ctx, r.counters)
	if err != nil {
		return fmt.Errorf("ticket number generation failed: %w", err)
	}
	now := time.Now().UTC()
	ticket.TicketNumber = number
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	ticket.StatusChangedAt = now
	ticket.LastActivityAt = now
	ticket.Version = 1

	query := database.ConvertPlaceholders(`
		INSERT INTO ticket (
			ticket_number, title, status, priority, created_by, assigned_to, team_id,
			created_at, updated_at, status_changed_at, last_activity_at,
			resolved_at, custom_sla_due_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	args := []any{
		ticket.TicketNumber, ticket.Title, string(ticket.Status), string(ticket.Priority),
		ticket.CreatedBy, ticket.AssignedTo, ticket.TeamID,
		ticket.CreatedAt, ticket.UpdatedAt, ticket.StatusChangedAt, ticket.LastActivityAt,
		ticket.ResolvedAt, ticket.CustomSLADueAt, ticket.Version,
	}

	if database.IsPostgreSQL() {
		err = r.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&ticket.ID)
		if err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
	} else {
		res, execErr := r.db.ExecContext(ctx, query, args...)
		if execErr != nil {
			return fmt.Errorf("failed to create ticket: %w", execErr)
		}
		ticket.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read new ticket id: %w", err)
		}
	}

	if len(ticket.Followers) > 0 {
		if _, err := r.AddFollowers(ctx, ticket.ID, ticket.Followers); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCAS writes the ticket back guarded by its version. The caller's copy
// must carry the version it read; on success the version is bumped in place,
// and a stale version yields ErrConflict.
func (r *TicketRepository) UpdateCAS(ctx context.Context, ticket *models.Ticket) error {
	res, err := r.db.ExecContext(ctx, database.ConvertPlaceholders(`
		UPDATE ticket
		SET title = ?, status = ?, priority = ?, assigned_to = ?, team_id = ?,
		    updated_at = ?, status_changed_at = ?, last_activity_at = ?,
		    resolved_at = ?, custom_sla_due_at = ?, version = version + 1
		WHERE id = ? AND version = ?`),
		ticket.Title, string(ticket.Status), string(ticket.Priority), ticket.AssignedTo, ticket.TeamID,
		ticket.UpdatedAt, ticket.StatusChangedAt, ticket.LastActivityAt,
		ticket.ResolvedAt, ticket.CustomSLADueAt,
		ticket.ID, ticket.Version)
	if err != nil {
		return fmt.Errorf("failed to update ticket %d: %w", ticket.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ticket %d at version %d: %w", ticket.ID, ticket.Version, ErrConflict)
	}
	ticket.Version++
	return nil
}

// AddFollowers inserts the given users into the ticket's follower set and
// returns the ones that were actually new.
func (r *TicketRepository) AddFollowers(ctx context.Context, ticketID int64, userIDs []int64) ([]int64, error) {
	var added []int64
	for _, userID := range userIDs {
		res, err := r.db.ExecContext(ctx, database.ConvertPlaceholders(
			insertIgnore(`INSERT %s INTO ticket_follower (ticket_id, user_id) VALUES (?, ?)`)),
			ticketID, userID)
		if err != nil {
			return added, fmt.Errorf("failed to add follower %d: %w", userID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added = append(added, userID)
		}
	}
	return added, nil
}

// insertIgnore renders a duplicate-tolerant insert for the active dialect.
func insertIgnore(format string) string {
	if database.IsMySQL() {
		return fmt.Sprintf(format, "IGNORE")
	}
	if database.IsPostgreSQL() {
		return fmt.Sprintf(format, "") + " ON CONFLICT DO NOTHING"
	}
	return fmt.Sprintf(format, "OR IGNORE")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	var t models.Ticket
	var status, priority string
	if err := row.Scan(
		&t.ID, &t.TicketNumber, &t.Title, &status, &priority,
		&t.CreatedBy, &t.AssignedTo, &t.TeamID,
		&t.CreatedAt, &t.UpdatedAt, &t.StatusChangedAt, &t.LastActivityAt,
		&t.ResolvedAt, &t.CustomSLADueAt, &t.Version,
	); err != nil {
		return nil, err
	}
	t.Status = models.TicketStatus(status)
	t.Priority = models.TicketPriority(priority)
	return &t, nil
}

func (r *TicketRepository) collectTickets(ctx context.Context, rows *sql.Rows) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	byID := make(map[int64]*models.Ticket)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}
		tickets = append(tickets, t)
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ticket row iteration failed: %w", err)
	}
	if err := r.loadFollowers(ctx, byID); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *TicketRepository) loadFollowers(ctx context.Context, byID map[int64]*models.Ticket) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]any, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	query := database.ConvertPlaceholders(
		`SELECT ticket_id, user_id FROM ticket_follower WHERE ticket_id IN (` +
			database.InPlaceholders(len(ids)) + `) ORDER BY ticket_id, user_id`)
	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return fmt.Errorf("failed to load followers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ticketID, userID int64
		if err := rows.Scan(&ticketID, &userID); err != nil {
			return fmt.Errorf("failed to scan follower row: %w", err)
		}
		if t, ok := byID[ticketID]; ok {
			t.Followers = append(t.Followers, userID)
		}
	}
	return rows.Err()
}
