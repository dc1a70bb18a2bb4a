// Package settings stores the admin-editable summarization settings.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
)

// Setting keys.
const (
	KeyShortPercentage  = "short_percentage"
	KeyMediumPercentage = "medium_percentage"
	KeyLongPercentage   = "long_percentage"
	KeyMaxInputWords    = "max_input_words"
	KeyMode             = "summarization_mode"
)

// Store is a key/value table.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get returns the value stored under key, or def when it is unset.
func (s *Store) Get(ctx context.Context, key, def string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, db.FormatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// EnsureDefaults stores each value whose key is not set yet.
func (s *Store) EnsureDefaults(ctx context.Context, defaults map[string]string) error {
	for key, value := range defaults {
		if _, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (key, value, updated_at) VALUES (?, ?, ?)",
			key, value, db.FormatTime(time.Now()),
		); err != nil {
			return fmt.Errorf("seeding setting %s: %w", key, err)
		}
	}
	return nil
}

// ValidationError carries a message fit for showing to the admin.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Summarization is the typed view of the summarization settings.
type Summarization struct {
	ShortPercentage  int
	MediumPercentage int
	LongPercentage   int
	MaxInputWords    int
	Mode             summarizer.Mode
}

// Percentages returns the per-length shares for the summarizer.
func (s Summarization) Percentages() summarizer.Percentages {
	return summarizer.Percentages{
		Short:  s.ShortPercentage,
		Medium: s.MediumPercentage,
		Long:   s.LongPercentage,
	}
}

// Validate checks ranges: percentages in 1..100, a positive word limit and
// a known mode.
func (s Summarization) Validate() error {
	for _, p := range []struct {
		name string
		v    int
	}{
		{"Short", s.ShortPercentage},
		{"Medium", s.MediumPercentage},
		{"Long", s.LongPercentage},
	} {
		if p.v < 1 || p.v > 100 {
			return &ValidationError{Msg: p.name + " percentage must be between 1 and 100."}
		}
	}
	if s.MaxInputWords <= 0 {
		return &ValidationError{Msg: "Maximum input words must be greater than 0."}
	}
	if !s.Mode.Valid() {
		return &ValidationError{Msg: fmt.Sprintf("Unknown summarization mode %q.", s.Mode)}
	}
	return nil
}

// Map renders the settings as stored key/value pairs.
func (s Summarization) Map() map[string]string {
	return map[string]string{
		KeyShortPercentage:  strconv.Itoa(s.ShortPercentage),
		KeyMediumPercentage: strconv.Itoa(s.MediumPercentage),
		KeyLongPercentage:   strconv.Itoa(s.LongPercentage),
		KeyMaxInputWords:    strconv.Itoa(s.MaxInputWords),
		KeyMode:             string(s.Mode),
	}
}

// Load reads the summarization settings. Missing or unparsable values fall
// back to the matching field of defaults.
func (s *Store) Load(ctx context.Context, defaults Summarization) (Summarization, error) {
	out := defaults
	ints := []struct {
		key string
		dst *int
	}{
		{KeyShortPercentage, &out.ShortPercentage},
		{KeyMediumPercentage, &out.MediumPercentage},
		{KeyLongPercentage, &out.LongPercentage},
		{KeyMaxInputWords, &out.MaxInputWords},
	}
	for _, f := range ints {
		v, err := s.Get(ctx, f.key, "")
		if err != nil {
			return defaults, err
		}
		if n, err := strconv.Atoi(v); err == nil {
			*f.dst = n
		}
	}

	mode, err := s.Get(ctx, KeyMode, string(defaults.Mode))
	if err != nil {
		return defaults, err
	}
	if m := summarizer.Mode(mode); m.Valid() {
		out.Mode = m
	}
	return out, nil
}

// Save validates and stores the summarization settings.
func (s *Store) Save(ctx context.Context, sum Summarization) error {
	if err := sum.Validate(); err != nil {
		return err
	}
	for key, value := range sum.Map() {
		if err := s.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
