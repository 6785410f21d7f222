package ticketnumber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/godesk-io/godesk-ce/internal/database"
)

// DBStore keeps one row per counter_uid in ticket_number_counter and
// increments it with a dialect-specific atomic upsert. Date-scoped counters
// get a YYYYMMDD suffix on the uid so each day starts fresh.
type DBStore struct {
	db       *sql.DB
	systemID string
	clock    func() time.Time
}

// NewDBStore creates a database-backed counter store.
func NewDBStore(db *sql.DB, systemID string) *DBStore {
	return &DBStore{db: db, systemID: systemID, clock: time.Now}
}

// Add implements CounterStore.
func (s *DBStore) Add(ctx context.Context, dateScoped bool, offset int64) (int64, error) {
	if offset < 1 {
		return 0, errors.New("counter offset must be at least 1")
	}
	uid := s.systemID
	if dateScoped {
		now := s.clock().UTC()
		uid = fmt.Sprintf("%s_%04d%02d%02d", s.systemID, now.Year(), int(now.Month()), now.Day())
	}

	if database.IsPostgreSQL() {
		q := `INSERT INTO ticket_number_counter (counter_uid, counter, created_at)
		      VALUES ($1, $2, NOW())
		      ON CONFLICT (counter_uid) DO UPDATE SET counter = ticket_number_counter.counter + EXCLUDED.counter
		      RETURNING counter`
		var c int64
		if err := s.db.QueryRowContext(ctx, q, uid, offset).Scan(&c); err != nil {
			return 0, err
		}
		return c, nil
	}

	if database.IsMySQL() {
		// LAST_INSERT_ID(expr) pins the incremented value to this
		// connection, so the Exec result carries it back without a
		// follow-up SELECT racing other pool connections.
		q := `INSERT INTO ticket_number_counter (counter_uid, counter, created_at)
		      VALUES (?, ?, NOW())
		      ON DUPLICATE KEY UPDATE counter = LAST_INSERT_ID(counter + VALUES(counter))`
		res, err := s.db.ExecContext(ctx, q, uid, offset)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	// SQLite and anything else: transactional read-modify-write.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	row := tx.QueryRowContext(ctx,
		database.ConvertPlaceholders(`SELECT counter FROM ticket_number_counter WHERE counter_uid = ?`), uid)
	switch err := row.Scan(&current); {
	case err == nil:
		next := current + offset
		if _, err := tx.ExecContext(ctx,
			database.ConvertPlaceholders(`UPDATE ticket_number_counter SET counter = ? WHERE counter_uid = ?`),
			next, uid); err != nil {
			return 0, err
		}
		if err := tx.Commit(); err != nil {
			return 0, err
		}
		return next, nil
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			database.ConvertPlaceholders(`INSERT INTO ticket_number_counter (counter_uid, counter, created_at) VALUES (?, ?, NOW())`),
			uid, offset); err != nil {
			return 0, err
		}
		if err := tx.Commit(); err != nil {
			return 0, err
		}
		return offset, nil
	default:
		return 0, err
	}
}
