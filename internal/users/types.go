// Package users manages accounts, credentials and password reset tokens.
package users

import (
	"errors"
	"time"
)

// Role is the account role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("account deactivated")
	ErrAdminImmutable     = errors.New("admin accounts cannot be modified")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrEmptyName          = errors.New("name is empty")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// User is a registered account.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Active       bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// IsAdmin reports whether u has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ResetToken is a single-use password reset credential.
type ResetToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Valid reports whether the token can still be redeemed at now.
func (t *ResetToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// ListFilter controls which users List and Count return.
type ListFilter struct {
	Role   Role
	Search string
	// Status is "active", "inactive" or empty for both.
	Status string
	Limit  int
	Offset int
}
