// Package summarizer turns text into extractive, abstractive or
// model-generated summaries sized as a share of the input.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrEmptyInput is returned when there is no text to summarize.
var ErrEmptyInput = errors.New("no text to summarize")

// Engine picks the summarization backend.
type Engine string

const (
	EngineClassic Engine = "classic"
	EngineNeural  Engine = "neural"
)

// ParseEngine maps a form or flag value to an Engine. The legacy names
// "nltk" and "transformers" are accepted.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "classic", "nltk":
		return EngineClassic, nil
	case "neural", "transformers":
		return EngineNeural, nil
	default:
		return "", fmt.Errorf("unknown engine %q", s)
	}
}

// Mode picks the classic algorithm.
type Mode string

const (
	ModeExtractive  Mode = "extractive"
	ModeAbstractive Mode = "abstractive"
	ModeBoth        Mode = "both"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeExtractive, ModeAbstractive, ModeBoth:
		return true
	}
	return false
}

// Length names a summary size.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
	LengthCustom Length = "custom"
)

// ParseLength maps unknown values to medium.
func ParseLength(s string) Length {
	switch l := Length(strings.ToLower(strings.TrimSpace(s))); l {
	case LengthShort, LengthMedium, LengthLong, LengthCustom:
		return l
	}
	return LengthMedium
}

// Percentages holds the share of the input kept for each named length.
type Percentages struct {
	Short  int
	Medium int
	Long   int
}

// DefaultPercentages is used when Options.Percentages is zero.
var DefaultPercentages = Percentages{Short: 20, Medium: 40, Long: 60}

// Options controls one Summarize call.
type Options struct {
	Length Length
	Mode   Mode
	Engine Engine
	// CustomPercentage applies to LengthCustom and is clamped to 5..95.
	// Zero means unset, in which case the medium share is used.
	CustomPercentage int
	Percentages      Percentages
}

// Result describes a produced summary.
type Result struct {
	Summary          string  `json:"summary"`
	Type             string  `json:"summary_type"`
	Length           Length  `json:"summary_length"`
	TargetPercentage int     `json:"target_percentage"`
	InputWords       int     `json:"input_word_count"`
	SummaryWords     int     `json:"summary_word_count"`
	ActualPercentage float64 `json:"actual_percentage"`
	CompressionRatio float64 `json:"compression_ratio"`
	Engine           Engine  `json:"engine"`
}

// LengthLabel is the length as stored in history, e.g. "custom (30%)".
func (r *Result) LengthLabel() string {
	if r.Length == LengthCustom {
		return fmt.Sprintf("custom (%d%%)", r.TargetPercentage)
	}
	return string(r.Length)
}

// Recorder receives summary metrics.
type Recorder interface {
	ObserveSummary(engine, summaryType string, d time.Duration)
	EngineFallback()
}

type nopRecorder struct{}

func (nopRecorder) ObserveSummary(string, string, time.Duration) {}
func (nopRecorder) EngineFallback()                              {}

// Summarizer dispatches requests to the classic or neural engine.
type Summarizer struct {
	neural        *Neural
	defaultEngine Engine
	logger        *zap.Logger
	recorder      Recorder
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithNeural enables the neural engine.
func WithNeural(n *Neural) Option {
	return func(s *Summarizer) { s.neural = n }
}

// WithDefaultEngine sets the engine used when Options.Engine is empty.
func WithDefaultEngine(e Engine) Option {
	return func(s *Summarizer) { s.defaultEngine = e }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Summarizer) { s.logger = l }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *Summarizer) { s.recorder = r }
}

// New creates a Summarizer. Without WithNeural, neural requests are served
// by the abstractive algorithm.
func New(opts ...Option) *Summarizer {
	s := &Summarizer{
		defaultEngine: EngineClassic,
		logger:        zap.NewNop(),
		recorder:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NeuralAvailable reports whether a model backs the neural engine.
func (s *Summarizer) NeuralAvailable() bool {
	return s.neural != nil
}

// Summarize produces a summary of text according to opts.
func (s *Summarizer) Summarize(ctx context.Context, text string, opts Options) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	pcts := opts.Percentages
	if pcts == (Percentages{}) {
		pcts = DefaultPercentages
	}
	engine := opts.Engine
	if engine == "" {
		engine = s.defaultEngine
	}
	length := ParseLength(string(opts.Length))

	var pct int
	switch {
	case length == LengthCustom && opts.CustomPercentage != 0:
		pct = min(95, max(5, opts.CustomPercentage))
	case length == LengthShort:
		pct = pcts.Short
	case length == LengthLong:
		pct = pcts.Long
	default:
		if length == LengthCustom {
			length = LengthMedium
		}
		pct = pcts.Medium
	}

	total := WordCount(text)
	target := max(10, total*pct/100)

	var summary, summaryType string
	switch {
	case engine == EngineNeural:
		var err error
		summary, err = s.summarizeNeural(ctx, text, pct)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("neural engine unavailable, using abstractive", zap.Error(err))
			s.recorder.EngineFallback()
			engine = EngineClassic
			summary = Abstractive(text, Target{Percentage: pct})
			summaryType = string(ModeAbstractive)
		} else {
			summaryType = string(EngineNeural)
		}
	case opts.Mode == ModeAbstractive:
		summary = Abstractive(text, Target{Percentage: pct})
		summaryType = string(ModeAbstractive)
	default:
		summary = Extractive(text, Target{Percentage: pct})
		summaryType = string(ModeExtractive)
	}

	words := WordCount(summary)
	if float64(words) > float64(target)*1.3 {
		if opts.Mode == ModeAbstractive {
			summary = Abstractive(text, Target{Words: target})
		} else {
			summary = Extractive(text, Target{Words: target})
		}
		words = WordCount(summary)
	}

	ratio := float64(words) / float64(max(total, 1))
	res := &Result{
		Summary:          summary,
		Type:             summaryType,
		Length:           length,
		TargetPercentage: pct,
		InputWords:       total,
		SummaryWords:     words,
		ActualPercentage: round1(ratio * 100),
		CompressionRatio: round1((1 - ratio) * 100),
		Engine:           engine,
	}
	s.recorder.ObserveSummary(string(engine), summaryType, time.Since(start))
	return res, nil
}

func (s *Summarizer) summarizeNeural(ctx context.Context, text string, pct int) (string, error) {
	if s.neural == nil {
		return "", errors.New("no model configured")
	}
	return s.neural.Summarize(ctx, text, pct)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
