package summaries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
)

// Store provides persistence for summaries. Every read skips soft-deleted
// rows.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const summaryColumns = `s.id, s.user_id, COALESCE(u.email, ''), s.input_text, s.summary_text,
	s.summary_length, s.summary_type, s.input_word_count, s.summary_word_count,
	s.is_deleted, s.created_at`

const summaryFrom = ` FROM summaries s LEFT JOIN users u ON u.id = s.user_id`

// Create inserts a summary. A zero CreatedAt is set to now.
func (s *Store) Create(ctx context.Context, sum *Summary) error {
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (
			user_id, input_text, summary_text, summary_length, summary_type,
			input_word_count, summary_word_count, is_deleted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		sum.UserID, sum.InputText, sum.SummaryText, sum.Length, sum.Type,
		sum.InputWords, sum.SummaryWords, db.FormatTime(sum.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting summary: %w", err)
	}
	if sum.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading summary id: %w", err)
	}
	return nil
}

// GetForUser returns a summary owned by userID.
func (s *Store) GetForUser(ctx context.Context, id, userID int64) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+summaryColumns+summaryFrom+" WHERE s.id = ? AND s.user_id = ? AND s.is_deleted = 0",
		id, userID)
	return scanSummary(row)
}

// ListByUser returns a page of a user's summaries, newest first.
func (s *Store) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Summary, error) {
	query := "SELECT " + summaryColumns + summaryFrom +
		" WHERE s.user_id = ? AND s.is_deleted = 0 ORDER BY s.created_at DESC, s.id DESC"
	return s.list(ctx, query, limit, offset, userID)
}

// CountByUser counts a user's summaries.
func (s *Store) CountByUser(ctx context.Context, userID int64) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM summaries WHERE user_id = ? AND is_deleted = 0", userID)
}

// SoftDelete hides a summary owned by userID.
func (s *Store) SoftDelete(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE summaries SET is_deleted = 1 WHERE id = ? AND user_id = ? AND is_deleted = 0", id, userID)
	if err != nil {
		return fmt.Errorf("deleting summary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Recent returns the newest summaries across all users.
func (s *Store) Recent(ctx context.Context, limit int) ([]Summary, error) {
	query := "SELECT " + summaryColumns + summaryFrom +
		" WHERE s.is_deleted = 0 ORDER BY s.created_at DESC, s.id DESC"
	return s.list(ctx, query, limit, 0)
}

// Count counts all summaries.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM summaries WHERE is_deleted = 0")
}

// CountSince counts summaries created at or after t.
func (s *Store) CountSince(ctx context.Context, t time.Time) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM summaries WHERE is_deleted = 0 AND created_at >= ?", db.FormatTime(t))
}

// CountByLength groups summaries by their stored length label.
func (s *Store) CountByLength(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT summary_length, COUNT(*) FROM summaries WHERE is_deleted = 0 GROUP BY summary_length")
	if err != nil {
		return nil, fmt.Errorf("counting summaries by length: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			length string
			n      int
		)
		if err := rows.Scan(&length, &n); err != nil {
			return nil, fmt.Errorf("scanning length count: %w", err)
		}
		out[length] = n
	}
	return out, rows.Err()
}

func (s *Store) list(ctx context.Context, query string, limit, offset int, args ...any) ([]Summary, error) {
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", offset)
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sum)
	}
	return out, rows.Err()
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting summaries: %w", err)
	}
	return n, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (*Summary, error) {
	var (
		sum       Summary
		deleted   int
		createdAt string
	)
	err := sc.Scan(&sum.ID, &sum.UserID, &sum.UserEmail, &sum.InputText, &sum.SummaryText,
		&sum.Length, &sum.Type, &sum.InputWords, &sum.SummaryWords, &deleted, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning summary: %w", err)
	}
	sum.Deleted = deleted != 0
	if sum.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &sum, nil
}
