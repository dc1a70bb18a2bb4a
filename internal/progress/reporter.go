// Package progress reports progress of batch jobs such as summarizing many
// files from the command line.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback during a batch job. Update is called
// once per finished item; Fail additionally marks that item as failed.
type Reporter interface {
	Start(total int)
	Update(current int, item string)
	Fail(item string, err error)
	Finish()
}

// NewReporter returns a CIReporter when the CI environment variable is set,
// or a TerminalReporter otherwise. task names the job, e.g. "Summarizing".
func NewReporter(task string) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Task: task, Out: os.Stderr}
	}
	return &TerminalReporter{Task: task}
}

// outcome returns the closing line shared by both reporters.
func outcome(task string, failed int) string {
	if failed == 0 {
		return task + " complete"
	}
	return fmt.Sprintf("%s complete (%d failed)", task, failed)
}

// TerminalReporter draws a progress bar on stderr.
type TerminalReporter struct {
	Task   string
	bar    *progressbar.ProgressBar
	failed int
}

func (r *TerminalReporter) Start(total int) {
	r.failed = 0
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(r.Task),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, item string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(item)
	_ = r.bar.Set(current)
}

func (r *TerminalReporter) Fail(item string, err error) {
	r.failed++
}

func (r *TerminalReporter) Finish() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	fmt.Fprintln(os.Stderr, outcome(r.Task, r.failed))
}

// CIReporter prints one line per item, which reads better in CI logs.
type CIReporter struct {
	Task   string
	Out    io.Writer
	total  int
	failed int
}

func (r *CIReporter) Start(total int) {
	r.total = total
	r.failed = 0
	fmt.Fprintf(r.Out, "%s %d file(s)\n", r.Task, total)
}

func (r *CIReporter) Update(current int, item string) {
	fmt.Fprintf(r.Out, "[%d/%d] %s\n", current, r.total, item)
}

func (r *CIReporter) Fail(item string, err error) {
	r.failed++
	fmt.Fprintf(r.Out, "  failed: %s: %v\n", item, err)
}

func (r *CIReporter) Finish() {
	fmt.Fprintln(r.Out, outcome(r.Task, r.failed))
}
