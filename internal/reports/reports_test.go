package reports

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
)

// Wednesday.
var now = time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)

func TestDateRange(t *testing.T) {
	endOfToday := time.Date(2026, 3, 11, 23, 59, 59, 0, time.UTC)
	tests := []struct {
		period string
		start  time.Time
	}{
		{PeriodDaily, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
		{PeriodWeekly, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{PeriodMonthly, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"quarterly", time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)},
		{"", time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			start, end := DateRange(tt.period, now)
			assert.True(t, tt.start.Equal(start), "start = %v, want %v", start, tt.start)
			assert.True(t, endOfToday.Equal(end), "end = %v", end)
		})
	}
}

func TestDateRangeWeeklyOnSunday(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	start, _ := DateRange(PeriodWeekly, sunday)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, 9, start.Day())
}

func setupTestGenerator(t *testing.T) *Generator {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	stmts := []string{
		`INSERT INTO users (id, email, name, password_hash, role) VALUES
			(1, 'alice@example.com', 'Alice', 'x', 'user'),
			(2, 'bob@example.com', 'Bob', 'x', 'user'),
			(3, 'admin@admin.com', 'Administrator', 'x', 'admin')`,
		`INSERT INTO summaries (user_id, input_text, summary_text, summary_length, summary_type,
			input_word_count, summary_word_count, is_deleted, created_at) VALUES
			(1, 'in', 'out', 'short', 'extractive', 100, 20, 0, '2026-03-11 10:00:00'),
			(1, 'in', 'out', 'medium', 'abstractive', 200, 80, 0, '2026-03-10 09:00:00'),
			(2, 'in', 'out', 'long', 'extractive', 300, 180, 0, '2026-03-02 08:00:00'),
			(2, 'in', 'out', 'short', 'extractive', 50, 10, 1, '2026-03-11 11:00:00'),
			(1, 'in', 'out', 'custom (25%)', 'neural', 400, 100, 0, '2026-01-15 12:00:00')`,
	}
	for _, s := range stmts {
		_, err := database.Exec(s)
		require.NoError(t, err)
	}
	return NewGenerator(database)
}

func TestGenerateSummaries(t *testing.T) {
	g := setupTestGenerator(t)
	ctx := context.Background()

	daily, err := g.Generate(ctx, TypeSummaries, PeriodDaily, now)
	require.NoError(t, err)
	assert.Equal(t, "summary_report_daily.csv", daily.Filename)
	assert.Equal(t, []string{"Date", "Summary Count"}, daily.Headers)
	assert.Equal(t, [][]string{{"2026-03-11", "1"}}, daily.Rows)

	weekly, err := g.Generate(ctx, TypeSummaries, PeriodWeekly, now)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2026-03-10", "1"}, {"2026-03-11", "1"}}, weekly.Rows)

	monthly, err := g.Generate(ctx, TypeSummaries, PeriodMonthly, now)
	require.NoError(t, err)
	assert.Len(t, monthly.Rows, 3)
}

func TestGenerateDefaultsToMonthly(t *testing.T) {
	g := setupTestGenerator(t)

	r, err := g.Generate(context.Background(), TypeSummaries, "", now)
	require.NoError(t, err)
	assert.Equal(t, "summary_report_monthly.csv", r.Filename)
	// The 2026-01-15 row is outside the month.
	assert.Equal(t, [][]string{{"2026-03-02", "1"}, {"2026-03-10", "1"}, {"2026-03-11", "1"}}, r.Rows)
}

func TestGenerateUsers(t *testing.T) {
	g := setupTestGenerator(t)

	r, err := g.Generate(context.Background(), TypeUsers, PeriodMonthly, now)
	require.NoError(t, err)
	assert.Equal(t, "user_report_monthly.csv", r.Filename)
	assert.Equal(t, [][]string{
		{"alice@example.com", "Alice", "3"},
		{"bob@example.com", "Bob", "1"},
	}, r.Rows)
}

func TestGenerateActivity(t *testing.T) {
	g := setupTestGenerator(t)

	r, err := g.Generate(context.Background(), TypeActivity, PeriodMonthly, now)
	require.NoError(t, err)
	assert.Equal(t, "activity_report_monthly.csv", r.Filename)
	require.Len(t, r.Rows, 3)
	assert.Equal(t, []string{"2026-03-11 10:00", "alice@example.com", "short", "extractive", "100", "20"}, r.Rows[0])
	assert.Equal(t, "bob@example.com", r.Rows[2][1])
}

func TestGenerateUnknownType(t *testing.T) {
	g := setupTestGenerator(t)
	_, err := g.Generate(context.Background(), Type("revenue"), PeriodDaily, now)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestGenerateQueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT date").WillReturnError(assert.AnError)

	g := NewGenerator(db.Wrap(sqlDB))
	_, err = g.Generate(context.Background(), TypeSummaries, PeriodDaily, now)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateScanError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	rows := sqlmock.NewRows([]string{"email", "name", "count"}).AddRow("a@b.c", "A", "many")
	mock.ExpectQuery("SELECT u.email").WillReturnRows(rows)

	g := NewGenerator(db.Wrap(sqlDB))
	_, err = g.Generate(context.Background(), TypeUsers, PeriodDaily, now)
	assert.ErrorContains(t, err, "scanning user statistics")
}

func TestWriteCSV(t *testing.T) {
	r := &Report{
		Headers: []string{"Email", "Name", "Total Summaries"},
		Rows: [][]string{
			{"a@example.com", "Smith, Anna", "2"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))
	assert.Equal(t, "Email,Name,Total Summaries\na@example.com,\"Smith, Anna\",2\n", buf.String())
}

func TestTable(t *testing.T) {
	r := &Report{
		Headers: []string{"Date", "Summary Count"},
		Rows:    [][]string{{"2026-03-11", "4"}},
	}
	var buf bytes.Buffer
	r.Table(&buf)
	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "summary count")
	assert.Contains(t, out, "2026-03-11")
	assert.Contains(t, out, "(1 rows)")
}
