package users

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
)

// Store provides persistence for users and reset tokens.
type Store struct {
	db   *db.DB
	cost int
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithHashCost sets the bcrypt cost for new password hashes.
func WithHashCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB, opts ...Option) *Store {
	s := &Store{db: database, cost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const userColumns = "id, email, name, password_hash, role, is_active, created_at, last_login"

func (s *Store) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// Create inserts a new active user. The email is normalized first.
func (s *Store) Create(ctx context.Context, email, name, password string, role Role) (*User, error) {
	if role == "" {
		role = RoleUser
	}
	email = NormalizeEmail(email)

	if _, err := s.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, name, password_hash, role, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		email, strings.TrimSpace(name), hash, string(role), db.FormatTime(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading user id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// EnsureAdmin creates the admin account when no user has the given email.
// It reports whether an account was created.
func (s *Store) EnsureAdmin(ctx context.Context, email, name, password string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := s.Create(ctx, email, name, password, RoleAdmin); err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}
	return true, nil
}

// GetByID retrieves a user by id.
func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email, ignoring case and surrounding space.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", NormalizeEmail(email))
	return scanUser(row)
}

// Authenticate checks credentials and records the login time.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrInactive
	}

	now := s.now().UTC().Truncate(time.Second)
	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login = ? WHERE id = ?", db.FormatTime(now), u.ID,
	); err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}
	u.LastLogin = &now
	return u, nil
}

// AuthenticateAdmin is Authenticate restricted to admin accounts.
func (s *Store) AuthenticateAdmin(ctx context.Context, email, password string) (*User, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, ErrInvalidCredentials
	}
	return s.Authenticate(ctx, email, password)
}

func (f ListFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Role != "" {
		clauses = append(clauses, "role = ?")
		args = append(args, string(f.Role))
	}
	if f.Search != "" {
		clauses = append(clauses, "(LOWER(email) LIKE ? OR LOWER(name) LIKE ?)")
		like := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, like, like)
	}
	switch f.Status {
	case "active":
		clauses = append(clauses, "is_active = 1")
	case "inactive":
		clauses = append(clauses, "is_active = 0")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns users matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]User, error) {
	where, args := filter.where()
	query := "SELECT " + userColumns + " FROM users" + where + " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

// Count returns the number of users matching the filter. Limit and Offset
// are ignored.
func (s *Store) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filter.where()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// CountCreatedSince counts users of role created at or after since.
func (s *Store) CountCreatedSince(ctx context.Context, role Role, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role = ? AND created_at >= ?",
		string(role), db.FormatTime(since),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting new users: %w", err)
	}
	return n, nil
}

// Toggle flips the active flag of a non-admin user and returns the new
// state.
func (s *Store) Toggle(ctx context.Context, id int64) (bool, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if u.IsAdmin() {
		return false, ErrAdminImmutable
	}
	if err := s.SetActive(ctx, id, !u.Active); err != nil {
		return false, err
	}
	return !u.Active, nil
}

// SetActive sets the active flag of a user.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET is_active = ? WHERE id = ?", db.BoolInt(active), id)
	if err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}
	return expectOne(res)
}

// UpdateName changes the display name.
func (s *Store) UpdateName(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	res, err := s.db.ExecContext(ctx, "UPDATE users SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("updating name: %w", err)
	}
	return expectOne(res)
}

// ChangePassword replaces the password after checking the current one.
func (s *Store) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.CheckPassword(current) {
		return ErrInvalidCredentials
	}
	return s.SetPassword(ctx, id, next)
}

// SetPassword replaces the password without checking the old one.
func (s *Store) SetPassword(ctx context.Context, id int64, password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return expectOne(res)
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// NewResetToken returns a random URL-safe token carrying 32 bytes of
// entropy.
func NewResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// IssueResetToken invalidates the user's outstanding tokens and stores a
// new one valid for ttl.
func (s *Store) IssueResetToken(ctx context.Context, userID int64, ttl time.Duration) (*ResetToken, error) {
	token, err := NewResetToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Second)
	rt := &ResetToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE password_reset_tokens SET is_used = 1 WHERE user_id = ? AND is_used = 0", userID,
	); err != nil {
		return nil, fmt.Errorf("invalidating reset tokens: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (user_id, token, expires_at, is_used, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		userID, token, db.FormatTime(rt.ExpiresAt), db.FormatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting reset token: %w", err)
	}
	if rt.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading reset token id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reset token: %w", err)
	}
	return rt, nil
}

// LookupResetToken returns the token if it exists and is still valid.
func (s *Store) LookupResetToken(ctx context.Context, token string) (*ResetToken, error) {
	var (
		rt                   ResetToken
		used                 int
		expiresAt, createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, is_used, created_at
		FROM password_reset_tokens WHERE token = ?`, token,
	).Scan(&rt.ID, &rt.UserID, &rt.Token, &expiresAt, &used, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidResetToken
	}
	if err != nil {
		return nil, fmt.Errorf("looking up reset token: %w", err)
	}

	rt.Used = used != 0
	if rt.ExpiresAt, err = db.ParseTime(expiresAt); err != nil {
		return nil, err
	}
	if rt.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if !rt.Valid(s.now()) {
		return nil, ErrInvalidResetToken
	}
	return &rt, nil
}

// ResetPassword redeems a token, setting the owner's password.
func (s *Store) ResetPassword(ctx context.Context, token, password string) (*User, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	rt, err := s.LookupResetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE password_reset_tokens SET is_used = 1 WHERE id = ? AND is_used = 0", rt.ID)
	if err != nil {
		return nil, fmt.Errorf("marking reset token used: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, ErrInvalidResetToken
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?", hash, rt.UserID,
	); err != nil {
		return nil, fmt.Errorf("updating password: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing password reset: %w", err)
	}
	return s.GetByID(ctx, rt.UserID)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (*User, error) {
	var (
		u         User
		role      string
		active    int
		createdAt string
		lastLogin sql.NullString
	)
	err := sc.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &active, &createdAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.Role = Role(role)
	u.Active = active != 0
	if u.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return nil, err
	}
	u.LastLogin = db.ParseNullTime(lastLogin)
	return &u, nil
}
