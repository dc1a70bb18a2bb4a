package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

var defaults = Summarization{
	ShortPercentage:  20,
	MediumPercentage: 40,
	LongPercentage:   60,
	MaxInputWords:    10000,
	Mode:             summarizer.ModeBoth,
}

func TestGetSet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	v, err := s.Get(ctx, "missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	require.NoError(t, s.Set(ctx, "k", "one"))
	require.NoError(t, s.Set(ctx, "k", "two"))
	v, err = s.Get(ctx, "k", "")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestEnsureDefaultsKeepsExisting(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyShortPercentage, "15"))
	require.NoError(t, s.EnsureDefaults(ctx, defaults.Map()))

	v, err := s.Get(ctx, KeyShortPercentage, "")
	require.NoError(t, err)
	assert.Equal(t, "15", v)

	v, err = s.Get(ctx, KeyMode, "")
	require.NoError(t, err)
	assert.Equal(t, "both", v)
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	got, err := s.Load(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)

	require.NoError(t, s.Set(ctx, KeyLongPercentage, "not-a-number"))
	require.NoError(t, s.Set(ctx, KeyMediumPercentage, "45"))
	require.NoError(t, s.Set(ctx, KeyMode, "poetic"))

	got, err = s.Load(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, 60, got.LongPercentage)
	assert.Equal(t, 45, got.MediumPercentage)
	assert.Equal(t, summarizer.ModeBoth, got.Mode)
}

func TestSaveAndLoad(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	want := Summarization{
		ShortPercentage:  10,
		MediumPercentage: 30,
		LongPercentage:   70,
		MaxInputWords:    5000,
		Mode:             summarizer.ModeAbstractive,
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, summarizer.Percentages{Short: 10, Medium: 30, Long: 70}, got.Percentages())
}

func TestSaveRejectsInvalid(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Summarization)
		msg    string
	}{
		{"short zero", func(v *Summarization) { v.ShortPercentage = 0 }, "Short percentage must be between 1 and 100."},
		{"long too big", func(v *Summarization) { v.LongPercentage = 101 }, "Long percentage must be between 1 and 100."},
		{"max words", func(v *Summarization) { v.MaxInputWords = 0 }, "Maximum input words must be greater than 0."},
		{"mode", func(v *Summarization) { v.Mode = "poetic" }, `Unknown summarization mode "poetic".`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := defaults
			tt.mutate(&v)
			err := s.Save(ctx, v)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.msg, verr.Msg)
		})
	}

	// Nothing was written.
	got, err := s.Load(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
}
