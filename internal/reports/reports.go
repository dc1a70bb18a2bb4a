// Package reports builds the CSV reports offered to administrators.
package reports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
)

// ErrUnknownType is returned by Generate for a report type it does not know.
var ErrUnknownType = errors.New("unknown report type")

// Type names a report.
type Type string

const (
	TypeSummaries Type = "summaries"
	TypeUsers     Type = "users"
	TypeActivity  Type = "activity"
)

// Types lists the available reports in display order.
var Types = []Type{TypeSummaries, TypeUsers, TypeActivity}

// Periods accepted by DateRange. Anything else means the last 30 days.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// DateRange returns the inclusive UTC range covered by period relative to now.
func DateRange(period string, now time.Time) (start, end time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end = today.Add(24*time.Hour - time.Second)

	switch period {
	case PeriodDaily:
		start = today
	case PeriodWeekly:
		// Weeks start on Monday.
		offset := (int(today.Weekday()) + 6) % 7
		start = today.AddDate(0, 0, -offset)
	case PeriodMonthly:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		start = today.AddDate(0, 0, -30)
	}
	return start, end
}

// Report is a generated tabular report.
type Report struct {
	Filename string
	Headers  []string
	Rows     [][]string
}

// WriteCSV writes the header and rows as CSV.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Headers); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := cw.WriteAll(r.Rows); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}

// Table renders the report for a terminal.
func (r *Report) Table(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(r.Headers))
	for i, h := range r.Headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, row := range r.Rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}
	t.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(r.Rows))
}

// Generator runs report queries.
type Generator struct {
	db *db.DB
}

// NewGenerator creates a Generator backed by the given database.
func NewGenerator(database *db.DB) *Generator {
	return &Generator{db: database}
}

// Generate builds the report of the given type for period. An empty period
// means PeriodMonthly.
func (g *Generator) Generate(ctx context.Context, typ Type, period string, now time.Time) (*Report, error) {
	if period == "" {
		period = PeriodMonthly
	}
	start, end := DateRange(period, now)
	switch typ {
	case TypeSummaries:
		return g.summaries(ctx, period, start, end)
	case TypeUsers:
		return g.users(ctx, period)
	case TypeActivity:
		return g.activity(ctx, period, start, end)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

func (g *Generator) summaries(ctx context.Context, period string, start, end time.Time) (*Report, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT date(created_at) AS day, COUNT(*)
		FROM summaries
		WHERE is_deleted = 0 AND created_at BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day`,
		db.FormatTime(start), db.FormatTime(end))
	if err != nil {
		return nil, fmt.Errorf("querying summary counts: %w", err)
	}
	defer rows.Close()

	r := &Report{
		Filename: "summary_report_" + period + ".csv",
		Headers:  []string{"Date", "Summary Count"},
	}
	for rows.Next() {
		var (
			day   string
			count int
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scanning summary count: %w", err)
		}
		r.Rows = append(r.Rows, []string{day, strconv.Itoa(count)})
	}
	return r, rows.Err()
}

func (g *Generator) users(ctx context.Context, period string) (*Report, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT u.email, u.name, COUNT(s.id)
		FROM users u
		LEFT JOIN summaries s ON s.user_id = u.id AND s.is_deleted = 0
		WHERE u.role = 'user'
		GROUP BY u.id
		ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("querying user statistics: %w", err)
	}
	defer rows.Close()

	r := &Report{
		Filename: "user_report_" + period + ".csv",
		Headers:  []string{"Email", "Name", "Total Summaries"},
	}
	for rows.Next() {
		var (
			email, name string
			count       int
		)
		if err := rows.Scan(&email, &name, &count); err != nil {
			return nil, fmt.Errorf("scanning user statistics: %w", err)
		}
		r.Rows = append(r.Rows, []string{email, name, strconv.Itoa(count)})
	}
	return r, rows.Err()
}

func (g *Generator) activity(ctx context.Context, period string, start, end time.Time) (*Report, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT s.created_at, COALESCE(u.email, ''), s.summary_length, s.summary_type,
			s.input_word_count, s.summary_word_count
		FROM summaries s
		LEFT JOIN users u ON u.id = s.user_id
		WHERE s.is_deleted = 0 AND s.created_at BETWEEN ? AND ?
		ORDER BY s.created_at DESC, s.id DESC`,
		db.FormatTime(start), db.FormatTime(end))
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	r := &Report{
		Filename: "activity_report_" + period + ".csv",
		Headers:  []string{"DateTime", "User Email", "Length", "Type", "Input Words", "Summary Words"},
	}
	for rows.Next() {
		var (
			created, email, length, typ string
			inWords, outWords           int
		)
		if err := rows.Scan(&created, &email, &length, &typ, &inWords, &outWords); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		ts, err := db.ParseTime(created)
		if err != nil {
			return nil, err
		}
		r.Rows = append(r.Rows, []string{
			ts.Format("2006-01-02 15:04"),
			email, length, typ,
			strconv.Itoa(inWords), strconv.Itoa(outWords),
		})
	}
	return r, rows.Err()
}
