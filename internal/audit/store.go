package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
)

// Store provides CRUD operations for audit entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new audit entry. If entry.ID is empty a UUID is generated;
// a zero Timestamp is set to now.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, timestamp, actor_id, action, target_type, target_id, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		db.FormatTime(entry.Timestamp),
		entry.ActorID,
		string(entry.Action),
		entry.TargetType,
		entry.TargetID,
		entry.Summary,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

const entryColumns = `a.id, a.timestamp, a.actor_id, COALESCE(u.email, ''), a.action,
	a.target_type, a.target_id, a.summary`

const entryFrom = ` FROM audit_entries a LEFT JOIN users u ON u.id = a.actor_id`

// GetByID retrieves a single audit entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+entryFrom+" WHERE a.id = ?", id)
	return scanEntry(row)
}

// QueryFilter controls which audit entries are returned by Query.
type QueryFilter struct {
	ActorID int64
	Action  Action
	Since   *time.Time
	Until   *time.Time
	Limit   int
	Offset  int
}

func (f QueryFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.ActorID != 0 {
		clauses = append(clauses, "a.actor_id = ?")
		args = append(args, f.ActorID)
	}
	if f.Action != "" {
		clauses = append(clauses, "a.action = ?")
		args = append(args, string(f.Action))
	}
	if f.Since != nil {
		clauses = append(clauses, "a.timestamp >= ?")
		args = append(args, db.FormatTime(*f.Since))
	}
	if f.Until != nil {
		clauses = append(clauses, "a.timestamp <= ?")
		args = append(args, db.FormatTime(*f.Until))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Query returns audit entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	where, args := filter.where()
	query := "SELECT " + entryColumns + entryFrom + where + " ORDER BY a.timestamp DESC, a.rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Count returns the number of entries matching the filter. Limit and
// Offset are ignored.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int, error) {
	where, args := filter.where()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_entries a"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting audit entries: %w", err)
	}
	return n, nil
}

// DeleteBefore removes all audit entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?",
		db.FormatTime(before),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e      Entry
		ts     string
		action string
	)

	err := sc.Scan(&e.ID, &ts, &e.ActorID, &e.ActorEmail, &action, &e.TargetType, &e.TargetID, &e.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning audit entry: %w", err)
	}

	e.Action = Action(action)
	if e.Timestamp, err = db.ParseTime(ts); err != nil {
		return nil, err
	}
	return &e, nil
}
