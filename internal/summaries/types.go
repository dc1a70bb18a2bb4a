// Package summaries persists the summary history of each user.
package summaries

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/smart-summarizer/internal/ui"
)

// ErrNotFound is returned for missing, deleted or foreign summaries.
var ErrNotFound = errors.New("summary not found")

// Summary is one stored summarization.
type Summary struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	UserEmail    string    `json:"user_email,omitempty"`
	InputText    string    `json:"input_text"`
	SummaryText  string    `json:"summary_text"`
	Length       string    `json:"summary_length"`
	Type         string    `json:"summary_type"`
	InputWords   int       `json:"input_word_count"`
	SummaryWords int       `json:"summary_word_count"`
	Deleted      bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Excerpt returns the first n runes of the summary followed by "..." when
// it is longer.
func (s *Summary) Excerpt(n int) string {
	r := []rune(s.SummaryText)
	if len(r) <= n {
		return s.SummaryText
	}
	return string(r[:n]) + "..."
}

var rule = strings.Repeat("=", 50)

// DownloadText renders the summary as the plain text file offered for
// download.
func (s *Summary) DownloadText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SMART TEXT SUMMARIZER\n")
	fmt.Fprintf(&b, "Generated: %s\n", s.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Summary Type: %s\n", ui.Title(s.Type))
	fmt.Fprintf(&b, "Summary Length: %s\n", ui.Title(s.Length))
	fmt.Fprintf(&b, "Input Words: %d\n", s.InputWords)
	fmt.Fprintf(&b, "Summary Words: %d\n", s.SummaryWords)
	fmt.Fprintf(&b, "\n%s\nORIGINAL TEXT\n%s\n%s\n", rule, rule, s.InputText)
	fmt.Fprintf(&b, "\n%s\nSUMMARY\n%s\n%s\n", rule, rule, s.SummaryText)
	return b.String()
}

// DownloadName is the attachment filename for the summary.
func (s *Summary) DownloadName() string {
	return fmt.Sprintf("summary_%d.txt", s.ID)
}
