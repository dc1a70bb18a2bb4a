package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/config"
	"github.com/ziadkadry99/smart-summarizer/internal/db"
	"github.com/ziadkadry99/smart-summarizer/internal/llm"
	"github.com/ziadkadry99/smart-summarizer/internal/logging"
	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `smartsum init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the zap logger; --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Log.Development)
}

// openDatabase opens (and migrates) the configured SQLite database.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// settingsDefaults converts the config defaults to the settings type.
func settingsDefaults(cfg *config.Config) settings.Summarization {
	d := cfg.Defaults
	return settings.Summarization{
		ShortPercentage:  d.ShortPercentage,
		MediumPercentage: d.MediumPercentage,
		LongPercentage:   d.LongPercentage,
		MaxInputWords:    d.MaxInputWords,
		Mode:             summarizer.Mode(d.Mode),
	}
}

// loadSettings reads the admin-edited settings, falling back to the config
// defaults.
func loadSettings(ctx context.Context, database *db.DB, cfg *config.Config) (settings.Summarization, error) {
	return settings.NewStore(database).Load(ctx, settingsDefaults(cfg))
}

// seed creates the admin account and default settings on first run. It
// reports whether the admin account was created.
func seed(ctx context.Context, database *db.DB, cfg *config.Config) (bool, error) {
	created, err := users.NewStore(database).EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Name, cfg.Admin.Password)
	if err != nil {
		return false, fmt.Errorf("seeding admin: %w", err)
	}
	if err := settings.NewStore(database).EnsureDefaults(ctx, settingsDefaults(cfg).Map()); err != nil {
		return false, fmt.Errorf("seeding settings: %w", err)
	}
	return created, nil
}

// newSummarizer builds the summarizer. The neural engine is enabled when a
// provider is configured.
func newSummarizer(cfg *config.Config, logger *zap.Logger, recorder summarizer.Recorder) (*summarizer.Summarizer, error) {
	engine, err := summarizer.ParseEngine(cfg.Summarizer.DefaultEngine)
	if err != nil {
		return nil, err
	}
	opts := []summarizer.Option{
		summarizer.WithDefaultEngine(engine),
		summarizer.WithLogger(logger),
	}
	if recorder != nil {
		opts = append(opts, summarizer.WithRecorder(recorder))
	}

	model := cfg.Summarizer.ModelFor()
	provider, err := llm.NewProvider(string(cfg.Summarizer.Provider), model)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if provider != nil {
		provider = llm.NewRateLimitedProvider(provider, cfg.Summarizer.RequestsPerMinute)
		opts = append(opts, summarizer.WithNeural(summarizer.NewNeural(
			provider, model, cfg.Summarizer.MaxTokens, cfg.Summarizer.ChunkWords, logger,
		)))
	}
	return summarizer.New(opts...), nil
}
