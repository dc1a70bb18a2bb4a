package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/smart-summarizer/internal/extract"
	"github.com/ziadkadry99/smart-summarizer/internal/progress"
	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summaries"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [files or globs...]",
	Short: "Summarize text files, PDFs or Word documents",
	Long: `Summarizes each matching document. Globs support ** (for example
"notes/**/*.txt"). Without arguments the text is read from stdin.`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().String("length", "medium", "summary length: short, medium, long or custom")
	summarizeCmd.Flags().String("mode", "", "extractive, abstractive or both (default from settings)")
	summarizeCmd.Flags().String("engine", "", "classic or neural (default from config)")
	summarizeCmd.Flags().Int("percent", 0, "share of the input to keep with --length custom (5-95)")
	summarizeCmd.Flags().Bool("json", false, "print results as JSON")
	rootCmd.AddCommand(summarizeCmd)
}

// summarizeOutput is one JSON result line.
type summarizeOutput struct {
	File string `json:"file,omitempty"`
	*summarizer.Result
	Error string `json:"error,omitempty"`
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	summ, err := newSummarizer(cfg, logger, nil)
	if err != nil {
		return err
	}

	// Admin-edited settings win when the database exists.
	limits := settingsDefaults(cfg)
	if _, statErr := os.Stat(cfg.Database.Path); statErr == nil {
		if database, err := openDatabase(cfg); err == nil {
			if s, err := loadSettings(ctx, database, cfg); err == nil {
				limits = s
			}
			database.Close()
		}
	}

	opts, err := summarizeOptions(cmd, limits)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		res, err := summarizeText(ctx, summ, string(data), opts, limits)
		if err != nil {
			return err
		}
		return printResult(out, "", res, asJSON)
	}

	files, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %s", strings.Join(args, " "))
	}

	var reporter progress.Reporter
	if len(files) > 1 && !asJSON {
		reporter = progress.NewReporter("Summarizing")
		reporter.Start(len(files))
	}

	type outcome struct {
		file string
		res  *summarizer.Result
		err  error
	}
	results := make([]outcome, 0, len(files))
	for i, f := range files {
		text, err := extract.FromFile(f)
		var res *summarizer.Result
		if err == nil {
			res, err = summarizeText(ctx, summ, text, opts, limits)
		}
		results = append(results, outcome{file: f, res: res, err: err})
		if reporter != nil {
			if err != nil {
				reporter.Fail(f, err)
			}
			reporter.Update(i+1, f)
		}
	}
	if reporter != nil {
		reporter.Finish()
	}

	failed := 0
	for _, o := range results {
		if o.err != nil {
			failed++
			if asJSON {
				json.NewEncoder(out).Encode(summarizeOutput{File: o.file, Error: o.err.Error()})
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", o.file, o.err)
			}
			continue
		}
		if err := printResult(out, o.file, o.res, asJSON); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(files))
	}
	return nil
}

// summarizeOptions reads the summarize flags.
func summarizeOptions(cmd *cobra.Command, limits settings.Summarization) (summarizer.Options, error) {
	length, _ := cmd.Flags().GetString("length")
	mode, _ := cmd.Flags().GetString("mode")
	engine, _ := cmd.Flags().GetString("engine")
	percent, _ := cmd.Flags().GetInt("percent")

	opts := summarizer.Options{
		Length:           summarizer.ParseLength(length),
		Mode:             limits.Mode,
		CustomPercentage: percent,
		Percentages:      limits.Percentages(),
	}
	if mode != "" {
		opts.Mode = summarizer.Mode(mode)
		if !opts.Mode.Valid() {
			return opts, fmt.Errorf("invalid --mode %q: must be extractive, abstractive or both", mode)
		}
	}
	if engine != "" {
		e, err := summarizer.ParseEngine(engine)
		if err != nil {
			return opts, err
		}
		opts.Engine = e
	}
	return opts, nil
}

// summarizeText applies the same word limits as the web form.
func summarizeText(ctx context.Context, s *summarizer.Summarizer, text string, opts summarizer.Options, limits settings.Summarization) (*summarizer.Result, error) {
	var inputErr *summaries.InputError
	if err := summaries.Validate(text, limits); errors.As(err, &inputErr) {
		return nil, errors.New(inputErr.Msg)
	}
	return s.Summarize(ctx, text, opts)
}

// expandPaths resolves globs (with ** support) and plain paths, keeping
// the argument order and dropping duplicates.
func expandPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", arg, err)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return files, nil
}

func printResult(w io.Writer, file string, res *summarizer.Result, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(summarizeOutput{File: file, Result: res})
	}
	if file != "" {
		fmt.Fprintf(w, "== %s ==\n", file)
	}
	fmt.Fprintln(w, res.Summary)
	fmt.Fprintf(w, "\n[%s, %s, %d -> %d words, %.1f%% compression]\n\n",
		res.Type, res.LengthLabel(), res.InputWords, res.SummaryWords, res.CompressionRatio)
	return nil
}
