package notifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
)

// Store provides persistence for notifications and per-user read state.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new notification. If n.ID is empty a UUID is generated;
// a zero CreatedAt is set to now.
func (s *Store) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	var userID sql.NullInt64
	if n.UserID != nil {
		userID = sql.NullInt64{Int64: *n.UserID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, userID, n.Title, n.Message, db.FormatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// GetByID retrieves a single notification.
func (s *Store) GetByID(ctx context.Context, id string) (*Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT n.id, n.user_id, COALESCE(u.email, ''), n.title, n.message, 0, n.created_at
		FROM notifications n LEFT JOIN users u ON u.id = n.user_id
		WHERE n.id = ?`, id)
	return scanNotification(row)
}

// ListForUser returns the user's own and broadcast notifications, newest
// first, with the user's read flag.
func (s *Store) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]Notification, error) {
	query := `
		SELECT n.id, n.user_id, '', n.title, n.message,
		       CASE WHEN r.notification_id IS NULL THEN 0 ELSE 1 END, n.created_at
		FROM notifications n
		LEFT JOIN notification_reads r ON r.notification_id = n.id AND r.user_id = ?
		WHERE n.user_id = ? OR n.user_id IS NULL
		ORDER BY n.created_at DESC, n.rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", offset)
		}
	}
	return s.query(ctx, query, userID, userID)
}

// CountForUser counts the notifications visible to a user.
func (s *Store) CountForUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? OR user_id IS NULL", userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return n, nil
}

// CountUnread counts the visible notifications the user has not read.
func (s *Store) CountUnread(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications n
		WHERE (n.user_id = ? OR n.user_id IS NULL)
		  AND NOT EXISTS (
			SELECT 1 FROM notification_reads r
			WHERE r.notification_id = n.id AND r.user_id = ?)`,
		userID, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead records that the user has read the given notifications. IDs the
// user cannot see are ignored.
func (s *Store) MarkRead(ctx context.Context, userID int64, ids []string) error {
	now := db.FormatTime(time.Now())
	for _, id := range ids {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO notification_reads (notification_id, user_id, read_at)
			SELECT id, ?, ? FROM notifications
			WHERE id = ? AND (user_id = ? OR user_id IS NULL)`,
			userID, now, id, userID,
		)
		if err != nil {
			return fmt.Errorf("marking notification %s read: %w", id, err)
		}
	}
	return nil
}

// Recent returns the newest notifications with the target user's email,
// for the admin page.
func (s *Store) Recent(ctx context.Context, limit int) ([]Notification, error) {
	query := `
		SELECT n.id, n.user_id, COALESCE(u.email, ''), n.title, n.message, 0, n.created_at
		FROM notifications n LEFT JOIN users u ON u.id = n.user_id
		ORDER BY n.created_at DESC, n.rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.query(ctx, query)
}

// DeleteBefore removes notifications older than the given time and returns
// the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE created_at < ?", db.FormatTime(before))
	if err != nil {
		return 0, fmt.Errorf("deleting old notifications: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(sc scanner) (*Notification, error) {
	var (
		n         Notification
		userID    sql.NullInt64
		read      int
		createdAt string
	)
	err := sc.Scan(&n.ID, &userID, &n.UserEmail, &n.Title, &n.Message, &read, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning notification: %w", err)
	}
	if userID.Valid {
		id := userID.Int64
		n.UserID = &id
	}
	n.Read = read != 0
	if n.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &n, nil
}
