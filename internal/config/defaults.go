package config

import "time"

// DefaultModels is the model used for each provider when none is configured.
var DefaultModels = map[ProviderType]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      5000,
			BaseURL:   "http://127.0.0.1:5000",
			SecretKey: "smart-text-summarizer-secret-key-2024",
		},
		Database: DatabaseConfig{
			Path: "data/smartsum.db",
		},
		Uploads: UploadConfig{
			Dir:               "documents",
			MaxBytes:          16 * 1024 * 1024,
			AllowedExtensions: []string{"txt", "pdf", "docx"},
		},
		Summarizer: SummarizerConfig{
			Provider:          ProviderNone,
			MaxTokens:         1024,
			RequestsPerMinute: 60,
			ChunkWords:        600,
			DefaultEngine:     "classic",
		},
		Defaults: SettingsDefaults{
			ShortPercentage:  20,
			MediumPercentage: 40,
			LongPercentage:   60,
			MaxInputWords:    10000,
			Mode:             "both",
		},
		Admin: AdminConfig{
			Email:    "admin@admin.com",
			Password: "admin123",
			Name:     "Administrator",
		},
		Auth: AuthConfig{
			ResetTokenTTL: 24 * time.Hour,
			APITokenTTL:   24 * time.Hour,
			SessionMaxAge: 7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
		ItemsPerPage: 10,
	}
}

// ModelFor returns the configured model, or the provider default.
func (s SummarizerConfig) ModelFor() string {
	if s.Model != "" {
		return s.Model
	}
	return DefaultModels[s.Provider]
}
