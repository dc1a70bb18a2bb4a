// Package audit records administrative actions.
package audit

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("audit entry not found")

// Action describes what was done.
type Action string

const (
	ActionUserActivated          Action = "user_activated"
	ActionUserDeactivated        Action = "user_deactivated"
	ActionUserRegistered         Action = "user_registered"
	ActionSettingsUpdated        Action = "settings_updated"
	ActionNotificationSent       Action = "notification_sent"
	ActionPasswordResetRequested Action = "password_reset_requested"
	ActionPasswordReset          Action = "password_reset"
)

// Actions lists every recorded action, for filters.
var Actions = []Action{
	ActionUserActivated,
	ActionUserDeactivated,
	ActionUserRegistered,
	ActionSettingsUpdated,
	ActionNotificationSent,
	ActionPasswordResetRequested,
	ActionPasswordReset,
}

// Target types.
const (
	TargetUser         = "user"
	TargetSettings     = "settings"
	TargetNotification = "notification"
)

// Entry is a single audit trail record.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ActorID    int64     `json:"actor_id"`
	ActorEmail string    `json:"actor_email,omitempty"`
	Action     Action    `json:"action"`
	TargetType string    `json:"target_type,omitempty"`
	TargetID   string    `json:"target_id,omitempty"`
	Summary    string    `json:"summary"`
}
