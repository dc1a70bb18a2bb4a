package summaries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
	"github.com/ziadkadry99/smart-summarizer/internal/ui"
)

// MinInputWords is the shortest text accepted for summarization.
const MinInputWords = 30

// InputError rejects a summarization request before any work is done.
// Kind is the toast styling the message is shown with.
type InputError struct {
	Kind ui.ToastKind
	Msg  string
}

func (e *InputError) Error() string { return e.Msg }

// Request is one summarization request from a form or the API.
type Request struct {
	Text   string
	Length string
	// Mode defaults to the configured summarization mode.
	Mode             string
	Engine           string
	CustomPercentage int
}

// SettingsLoader reads the admin-editable summarization settings.
type SettingsLoader interface {
	Load(ctx context.Context, defaults settings.Summarization) (settings.Summarization, error)
}

// Service validates requests, runs the summarizer and records history.
type Service struct {
	store      *Store
	settings   SettingsLoader
	defaults   settings.Summarization
	summarizer *summarizer.Summarizer
}

// NewService creates a Service. defaults apply to settings missing from
// the database.
func NewService(store *Store, loader SettingsLoader, defaults settings.Summarization, s *summarizer.Summarizer) *Service {
	return &Service{store: store, settings: loader, defaults: defaults, summarizer: s}
}

// Settings returns the current summarization settings.
func (s *Service) Settings(ctx context.Context) (settings.Summarization, error) {
	return s.settings.Load(ctx, s.defaults)
}

// NeuralAvailable reports whether a language model backs the neural engine.
func (s *Service) NeuralAvailable() bool {
	return s.summarizer.NeuralAvailable()
}

// Validate checks the text against the word limits in cfg.
func Validate(text string, cfg settings.Summarization) error {
	if strings.TrimSpace(text) == "" {
		return &InputError{Kind: ui.ToastWarning, Msg: "Please enter some text to summarize."}
	}
	words := summarizer.WordCount(text)
	if words > cfg.MaxInputWords {
		return &InputError{
			Kind: ui.ToastDanger,
			Msg:  fmt.Sprintf("Text exceeds maximum word limit of %d words.", cfg.MaxInputWords),
		}
	}
	if words < MinInputWords {
		return &InputError{Kind: ui.ToastWarning, Msg: "Please enter at least 30 words for effective summarization."}
	}
	return nil
}

// Summarize validates req, summarizes the text and stores the result in
// userID's history.
func (s *Service) Summarize(ctx context.Context, userID int64, req Request) (*Summary, *summarizer.Result, error) {
	cfg, err := s.Settings(ctx)
	if err != nil {
		return nil, nil, err
	}
	text := strings.TrimSpace(req.Text)
	if err := Validate(text, cfg); err != nil {
		return nil, nil, err
	}

	// An empty engine leaves the choice to the summarizer's default.
	var engine summarizer.Engine
	if strings.TrimSpace(req.Engine) != "" {
		if engine, err = summarizer.ParseEngine(req.Engine); err != nil {
			return nil, nil, &InputError{Kind: ui.ToastDanger, Msg: "Unknown summarization engine."}
		}
	}
	mode := summarizer.Mode(req.Mode)
	if !mode.Valid() {
		mode = cfg.Mode
	}

	res, err := s.summarizer.Summarize(ctx, text, summarizer.Options{
		Length:           summarizer.ParseLength(req.Length),
		Mode:             mode,
		Engine:           engine,
		CustomPercentage: req.CustomPercentage,
		Percentages:      cfg.Percentages(),
	})
	if errors.Is(err, summarizer.ErrEmptyInput) {
		return nil, nil, &InputError{Kind: ui.ToastWarning, Msg: "Please enter some text to summarize."}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("generating summary: %w", err)
	}

	sum := &Summary{
		UserID:       userID,
		InputText:    text,
		SummaryText:  res.Summary,
		Length:       res.LengthLabel(),
		Type:         res.Type,
		InputWords:   res.InputWords,
		SummaryWords: res.SummaryWords,
	}
	if err := s.store.Create(ctx, sum); err != nil {
		return nil, nil, err
	}
	return sum, res, nil
}
