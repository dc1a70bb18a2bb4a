// Package notifications stores admin announcements and pushes them to
// connected browsers.
package notifications

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Notification is a message from an administrator to one user, or to
// everyone when UserID is nil.
type Notification struct {
	ID        string    `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	UserEmail string    `json:"user_email,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Broadcast reports whether n targets every user.
func (n *Notification) Broadcast() bool {
	return n.UserID == nil
}

// pushMessage is the websocket frame sent to browsers.
type pushMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}
