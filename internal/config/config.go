package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides. Nested keys are separated
// by a double underscore: SMARTSUM_SERVER__PORT -> server.port.
const EnvPrefix = "SMARTSUM_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SMARTSUM_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderNone:   true,
	ProviderOpenAI: true,
	ProviderOllama: true,
}

var validEngines = map[string]bool{
	"classic": true,
	"neural":  true,
}

var validModes = map[string]bool{
	"extractive":  true,
	"abstractive": true,
	"both":        true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.SecretKey == "" {
		return fmt.Errorf("server.secret_key is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.ItemsPerPage <= 0 {
		return fmt.Errorf("items_per_page must be positive")
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be positive")
	}
	c.Uploads.AllowedExtensions = normalizeExtensions(c.Uploads.AllowedExtensions)
	if len(c.Uploads.AllowedExtensions) == 0 {
		return fmt.Errorf("uploads.allowed_extensions must not be empty")
	}

	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = ProviderNone
	}
	if !validProviders[c.Summarizer.Provider] {
		return fmt.Errorf("invalid summarizer.provider %q: must be one of none, openai, ollama", c.Summarizer.Provider)
	}
	if !validEngines[c.Summarizer.DefaultEngine] {
		return fmt.Errorf("invalid summarizer.default_engine %q: must be classic or neural", c.Summarizer.DefaultEngine)
	}
	if c.Summarizer.ChunkWords <= 0 {
		return fmt.Errorf("summarizer.chunk_words must be positive")
	}
	if c.Summarizer.RequestsPerMinute < 0 {
		return fmt.Errorf("summarizer.requests_per_minute must be non-negative")
	}

	d := c.Defaults
	for name, pct := range map[string]int{
		"short_percentage":  d.ShortPercentage,
		"medium_percentage": d.MediumPercentage,
		"long_percentage":   d.LongPercentage,
	} {
		if pct < 1 || pct > 100 {
			return fmt.Errorf("defaults.%s must be between 1 and 100, got %d", name, pct)
		}
	}
	if d.MaxInputWords <= 0 {
		return fmt.Errorf("defaults.max_input_words must be positive")
	}
	if !validModes[d.Mode] {
		return fmt.Errorf("invalid defaults.mode %q", d.Mode)
	}

	if c.Admin.Email == "" || !strings.Contains(c.Admin.Email, "@") {
		return fmt.Errorf("admin.email must be a valid address")
	}
	if len(c.Admin.Password) < 6 {
		return fmt.Errorf("admin.password must be at least 6 characters")
	}

	return nil
}

// APIKeyEnvVar returns the environment variable holding the provider's API key.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// normalizeExtensions lower-cases extensions and strips leading dots.
func normalizeExtensions(exts []string) []string {
	var out []string
	for _, e := range exts {
		if e = strings.ToLower(strings.TrimLeft(strings.TrimSpace(e), ".")); e != "" {
			out = append(out, e)
		}
	}
	return out
}
