package summaries

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
)

func setupTestStore(t *testing.T) (*Store, *db.DB) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewStore(database), database
}

func addUser(t *testing.T, database *db.DB, email string) int64 {
	t.Helper()
	res, err := database.Exec(
		"INSERT INTO users (email, name, password_hash) VALUES (?, ?, 'x')", email, email)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func newSummary(userID int64, length string, at time.Time) *Summary {
	return &Summary{
		UserID:       userID,
		InputText:    "A long input text about many things.",
		SummaryText:  "Short text.",
		Length:       length,
		Type:         "extractive",
		InputWords:   7,
		SummaryWords: 2,
		CreatedAt:    at,
	}
}

func TestCreateAndGetForUser(t *testing.T) {
	s, database := setupTestStore(t)
	ctx := context.Background()
	ann := addUser(t, database, "ann@example.com")
	bob := addUser(t, database, "bob@example.com")

	at := time.Date(2026, 4, 2, 10, 15, 0, 0, time.UTC)
	sum := newSummary(ann, "medium", at)
	require.NoError(t, s.Create(ctx, sum))
	assert.NotZero(t, sum.ID)

	got, err := s.GetForUser(ctx, sum.ID, ann)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.UserEmail)
	assert.Equal(t, "Short text.", got.SummaryText)
	assert.Equal(t, 7, got.InputWords)
	assert.True(t, at.Equal(got.CreatedAt))

	_, err = s.GetForUser(ctx, sum.ID, bob)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDefaultsTimestamp(t *testing.T) {
	s, database := setupTestStore(t)
	ann := addUser(t, database, "ann@example.com")

	sum := newSummary(ann, "short", time.Time{})
	require.NoError(t, s.Create(context.Background(), sum))
	assert.WithinDuration(t, time.Now(), sum.CreatedAt, 5*time.Second)
}

func TestListCountAndSoftDelete(t *testing.T) {
	s, database := setupTestStore(t)
	ctx := context.Background()
	ann := addUser(t, database, "ann@example.com")
	bob := addUser(t, database, "bob@example.com")

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 5; i++ {
		sum := newSummary(ann, "short", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.Create(ctx, sum))
		ids = append(ids, sum.ID)
	}
	require.NoError(t, s.Create(ctx, newSummary(bob, "long", base)))

	page, err := s.ListByUser(ctx, ann, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID)
	assert.Equal(t, ids[3], page[1].ID)

	page, err = s.ListByUser(ctx, ann, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)

	require.NoError(t, s.SoftDelete(ctx, ids[4], ann))
	assert.ErrorIs(t, s.SoftDelete(ctx, ids[4], ann), ErrNotFound)
	assert.ErrorIs(t, s.SoftDelete(ctx, ids[3], bob), ErrNotFound)

	_, err = s.GetForUser(ctx, ids[4], ann)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.CountByUser(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = s.CountSince(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recent, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[3], recent[0].ID)
	assert.Equal(t, "ann@example.com", recent[0].UserEmail)

	byLength, err := s.CountByLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"short": 4, "long": 1}, byLength)
}

func TestDownloadText(t *testing.T) {
	sum := &Summary{
		ID:           7,
		InputText:    "Original words here.",
		SummaryText:  "Words.",
		Length:       "custom (30%)",
		Type:         "abstractive",
		InputWords:   3,
		SummaryWords: 1,
		CreatedAt:    time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}

	rule := strings.Repeat("=", 50)
	want := "SMART TEXT SUMMARIZER\n" +
		"Generated: 2026-02-03 04:05\n" +
		"Summary Type: Abstractive\n" +
		"Summary Length: Custom (30%)\n" +
		"Input Words: 3\n" +
		"Summary Words: 1\n" +
		"\n" + rule + "\nORIGINAL TEXT\n" + rule + "\nOriginal words here.\n" +
		"\n" + rule + "\nSUMMARY\n" + rule + "\nWords.\n"
	assert.Equal(t, want, sum.DownloadText())
	assert.Equal(t, "summary_7.txt", sum.DownloadName())
}

func TestExcerpt(t *testing.T) {
	sum := &Summary{SummaryText: "héllo world"}
	assert.Equal(t, "héllo...", sum.Excerpt(5))
	assert.Equal(t, "héllo world", sum.Excerpt(50))
}
