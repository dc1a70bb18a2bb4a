package config

import "time"

// ProviderType identifies the LLM provider behind the neural engine.
type ProviderType string

const (
	ProviderNone   ProviderType = "none"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level smartsum configuration, corresponding to smartsum.yml.
type Config struct {
	Server        ServerConfig        `yaml:"server" koanf:"server"`
	Database      DatabaseConfig      `yaml:"database" koanf:"database"`
	Uploads       UploadConfig        `yaml:"uploads" koanf:"uploads"`
	Summarizer    SummarizerConfig    `yaml:"summarizer" koanf:"summarizer"`
	Defaults      SettingsDefaults    `yaml:"defaults" koanf:"defaults"`
	Admin         AdminConfig         `yaml:"admin" koanf:"admin"`
	Auth          AuthConfig          `yaml:"auth" koanf:"auth"`
	Notifications NotificationsConfig `yaml:"notifications" koanf:"notifications"`
	Log           LogConfig           `yaml:"log" koanf:"log"`
	ItemsPerPage  int                 `yaml:"items_per_page" koanf:"items_per_page"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int    `yaml:"port" koanf:"port"`
	BaseURL         string `yaml:"base_url" koanf:"base_url"`
	SecretKey       string `yaml:"secret_key" koanf:"secret_key"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// UploadConfig limits document uploads.
type UploadConfig struct {
	Dir               string   `yaml:"dir" koanf:"dir"`
	MaxBytes          int64    `yaml:"max_bytes" koanf:"max_bytes"`
	AllowedExtensions []string `yaml:"allowed_extensions" koanf:"allowed_extensions"`
}

// SummarizerConfig configures the summarization engines.
type SummarizerConfig struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	MaxTokens         int          `yaml:"max_tokens" koanf:"max_tokens"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	ChunkWords        int          `yaml:"chunk_words" koanf:"chunk_words"`
	DefaultEngine     string       `yaml:"default_engine" koanf:"default_engine"`
}

// SettingsDefaults seeds the admin-editable summarization settings.
type SettingsDefaults struct {
	ShortPercentage  int    `yaml:"short_percentage" koanf:"short_percentage"`
	MediumPercentage int    `yaml:"medium_percentage" koanf:"medium_percentage"`
	LongPercentage   int    `yaml:"long_percentage" koanf:"long_percentage"`
	MaxInputWords    int    `yaml:"max_input_words" koanf:"max_input_words"`
	Mode             string `yaml:"mode" koanf:"mode"`
}

// AdminConfig describes the account created on first run.
type AdminConfig struct {
	Email    string `yaml:"email" koanf:"email"`
	Password string `yaml:"password" koanf:"password"`
	Name     string `yaml:"name" koanf:"name"`
}

// AuthConfig holds session and token lifetimes.
type AuthConfig struct {
	ResetTokenTTL time.Duration `yaml:"reset_token_ttl" koanf:"reset_token_ttl"`
	APITokenTTL   time.Duration `yaml:"api_token_ttl" koanf:"api_token_ttl"`
	SessionMaxAge time.Duration `yaml:"session_max_age" koanf:"session_max_age"`
}

// NotificationsConfig configures outbound delivery.
type NotificationsConfig struct {
	WebhookURL string `yaml:"webhook_url" koanf:"webhook_url"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" koanf:"level"`
	Development bool   `yaml:"development" koanf:"development"`
}
