// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/mock-interview/internal/llm"
)

// Config is the service configuration. It can be loaded from a JSON or YAML file;
// environment variables override file values.
type Config struct {
	LogLevel string         `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Feedback FeedbackConfig `json:"feedback" yaml:"feedback"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr           string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	// CallRetentionSeconds keeps finished calls readable before they are dropped
	CallRetentionSeconds int `json:"call_retention_seconds,omitempty" yaml:"call_retention_seconds,omitempty"`
}

// CallRetention returns how long finished calls are kept
func (s ServerConfig) CallRetention() time.Duration {
	return time.Duration(s.CallRetentionSeconds) * time.Second
}

// StorageConfig selects the document backend
type StorageConfig struct {
	Backend       string `json:"backend,omitempty" yaml:"backend,omitempty"` // memory, redis or postgres
	DatabaseURL   string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	KeyPrefix     string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

// LLMConfig selects the language model provider
type LLMConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"` // overrides the standard tier model
}

// FeedbackConfig tunes feedback generation
type FeedbackConfig struct {
	// StructuredOutput uses provider-side schema enforcement when available; nil means true
	StructuredOutput     *bool `json:"structured_output,omitempty" yaml:"structured_output,omitempty"`
	AllowEmptyTranscript bool  `json:"allow_empty_transcript,omitempty" yaml:"allow_empty_transcript,omitempty"`
	TimeoutSeconds       int   `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// Structured reports whether structured output is enabled
func (f FeedbackConfig) Structured() bool {
	return f.StructuredOutput == nil || *f.StructuredOutput
}

// Timeout returns the generation timeout
func (f FeedbackConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		LogLevel: "info",
		Server:   ServerConfig{Addr: ":8080", CallRetentionSeconds: 600},
		Storage:  StorageConfig{Backend: "memory"},
		LLM:      LLMConfig{Provider: string(llm.ProviderGemini)},
		Feedback: FeedbackConfig{TimeoutSeconds: 60},
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Load reads the optional file at path, fills defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	merged := cfg.MergeWithDefaults(Default())
	if err := merged.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("SERVER_ADDR", &c.Server.Addr)
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	if origins, ok := lookup("ALLOWED_ORIGINS"); ok && origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("DATABASE_URL", &c.Storage.DatabaseURL)
	str("REDIS_ADDR", &c.Storage.RedisAddr)
	str("REDIS_PASSWORD", &c.Storage.RedisPassword)

	str("LLM_PROVIDER", &c.LLM.Provider)
	str("LLM_BASE_URL", &c.LLM.BaseURL)
	str("LLM_MODEL", &c.LLM.Model)
	// provider-specific keys first, a generic key wins
	switch llm.Provider(strings.ToLower(c.LLM.Provider)) {
	case llm.ProviderOpenAI:
		str("OPENAI_API_KEY", &c.LLM.APIKey)
	case llm.ProviderGemini:
		str("GEMINI_API_KEY", &c.LLM.APIKey)
	}
	str("LLM_API_KEY", &c.LLM.APIKey)

	if v, ok := lookup("CALL_RETENTION_SECONDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CALL_RETENTION_SECONDS: %v", err)
		}
		c.Server.CallRetentionSeconds = n
	}

	if v, ok := lookup("FEEDBACK_TIMEOUT_SECONDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FEEDBACK_TIMEOUT_SECONDS: %v", err)
		}
		c.Feedback.TimeoutSeconds = n
	}

	return c.Auth.applyEnv(lookup)
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown log_level %q", c.LogLevel)
	}

	switch c.Storage.Backend {
	case "", "memory":
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("config error: 'redis_addr' is required for the redis backend")
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config error: unknown storage backend %q", c.Storage.Backend)
	}

	provider, err := llm.ParseProvider(c.LLM.Provider)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if provider == llm.ProviderCompat {
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("config error: 'base_url' is required for the %s provider", provider)
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("config error: 'model' is required for the %s provider", provider)
		}
	}

	if c.Feedback.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'timeout_seconds' must be non-negative")
	}
	if c.Server.CallRetentionSeconds < 0 {
		return fmt.Errorf("config error: 'call_retention_seconds' must be non-negative")
	}
	if c.Storage.RedisDB < 0 {
		return fmt.Errorf("config error: 'redis_db' must be non-negative")
	}

	return c.Auth.validate()
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.Server.Addr == "" {
		result.Server.Addr = defaults.Server.Addr
	}
	if result.Server.CallRetentionSeconds == 0 {
		result.Server.CallRetentionSeconds = defaults.Server.CallRetentionSeconds
	}
	if len(result.Server.AllowedOrigins) == 0 {
		result.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}
	if result.Storage.Backend == "" {
		result.Storage.Backend = defaults.Storage.Backend
	}
	if result.Storage.DatabaseURL == "" {
		result.Storage.DatabaseURL = defaults.Storage.DatabaseURL
	}
	if result.Storage.RedisAddr == "" {
		result.Storage.RedisAddr = defaults.Storage.RedisAddr
	}
	if result.Storage.KeyPrefix == "" {
		result.Storage.KeyPrefix = defaults.Storage.KeyPrefix
	}
	if result.LLM.Provider == "" {
		result.LLM.Provider = defaults.LLM.Provider
	}
	if result.LLM.APIKey == "" {
		result.LLM.APIKey = defaults.LLM.APIKey
	}
	if result.LLM.BaseURL == "" {
		result.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if result.LLM.Model == "" {
		result.LLM.Model = defaults.LLM.Model
	}
	if result.Feedback.StructuredOutput == nil {
		result.Feedback.StructuredOutput = defaults.Feedback.StructuredOutput
	}
	if result.Feedback.TimeoutSeconds == 0 {
		result.Feedback.TimeoutSeconds = defaults.Feedback.TimeoutSeconds
	}
	if result.Auth.Secret == "" {
		result.Auth.Secret = defaults.Auth.Secret
	}
	if result.Auth.WebhookSecret == "" {
		result.Auth.WebhookSecret = defaults.Auth.WebhookSecret
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

// LLMClientConfig builds the llm package configuration
func (c *Config) LLMClientConfig() (*llm.Config, error) {
	provider, err := llm.ParseProvider(c.LLM.Provider)
	if err != nil {
		return nil, err
	}
	cfg := llm.DefaultProviderConfig(provider)
	cfg.BaseURL = c.LLM.BaseURL
	if c.LLM.Model != "" {
		cfg = cfg.WithModel(llm.TierStandard, c.LLM.Model)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
