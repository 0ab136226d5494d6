package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mock-interview/internal/llm"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"log_level": "debug",
		"server": {"addr": ":9090"},
		"storage": {"backend": "postgres", "database_url": "postgres://localhost/db"},
		"llm": {"provider": "openai", "model": "gpt-4o"},
		"feedback": {"structured_output": false, "allow_empty_transcript": true, "timeout_seconds": 30}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.False(t, cfg.Feedback.Structured())
	assert.True(t, cfg.Feedback.AllowEmptyTranscript)
	assert.Equal(t, 30*time.Second, cfg.Feedback.Timeout())
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
log_level: warn
storage:
  backend: redis
  redis_addr: localhost:6379
llm:
  provider: openai-compat
  base_url: http://localhost:11434/v1
  model: llama3
feedback:
  timeout_seconds: 90
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 90, cfg.Feedback.TimeoutSeconds)
	assert.True(t, cfg.Feedback.Structured())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "storage: [unclosed")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "log_level"},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "s3" }, wantErr: "unknown storage backend"},
		{name: "redis without addr", mutate: func(c *Config) { c.Storage.Backend = "redis" }, wantErr: "redis_addr"},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Backend = "postgres" }, wantErr: "database_url"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "claude-local" }, wantErr: "unknown llm provider"},
		{name: "compat without base url", mutate: func(c *Config) { c.LLM.Provider = "openai-compat" }, wantErr: "base_url"},
		{
			name: "compat without model",
			mutate: func(c *Config) {
				c.LLM.Provider = "openai-compat"
				c.LLM.BaseURL = "http://localhost"
			},
			wantErr: "model",
		},
		{name: "negative timeout", mutate: func(c *Config) { c.Feedback.TimeoutSeconds = -1 }, wantErr: "timeout_seconds"},
		{name: "negative call retention", mutate: func(c *Config) { c.Server.CallRetentionSeconds = -5 }, wantErr: "call_retention_seconds"},
		{name: "auth required without secret", mutate: func(c *Config) { c.Auth.Required = true }, wantErr: "JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	off := false
	cfg := Config{
		Storage:  StorageConfig{Backend: "redis", RedisAddr: "cache:6379"},
		Feedback: FeedbackConfig{StructuredOutput: &off},
	}

	merged := cfg.MergeWithDefaults(Default())
	assert.Equal(t, "info", merged.LogLevel)
	assert.Equal(t, ":8080", merged.Server.Addr)
	assert.Equal(t, "redis", merged.Storage.Backend)
	assert.Equal(t, "gemini", merged.LLM.Provider)
	assert.Equal(t, 60, merged.Feedback.TimeoutSeconds)
	assert.Equal(t, 10*time.Minute, merged.Server.CallRetention())
	assert.False(t, merged.Feedback.Structured())

	// original untouched
	assert.Empty(t, cfg.LogLevel)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(lookupFrom(map[string]string{
		"PORT":                     "3000",
		"DATABASE_URL":             "postgres://db/interviews",
		"STORAGE_BACKEND":          "postgres",
		"REDIS_ADDR":               "redis:6379",
		"GEMINI_API_KEY":           "gemini-key",
		"OPENAI_API_KEY":           "openai-key",
		"ALLOWED_ORIGINS":          "http://a.test, http://b.test",
		"FEEDBACK_TIMEOUT_SECONDS": "45",
		"CALL_RETENTION_SECONDS":   "30",
		"JWT_SECRET":               "0123456789abcdef0123",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "postgres://db/interviews", cfg.Storage.DatabaseURL)
	assert.Equal(t, "redis:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 45, cfg.Feedback.TimeoutSeconds)
	assert.Equal(t, 30*time.Second, cfg.Server.CallRetention())
	assert.Equal(t, "0123456789abcdef0123", cfg.Auth.Secret)
}

func TestApplyEnv_ProviderSelectsKey(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookupFrom(map[string]string{
		"LLM_PROVIDER":   "openai",
		"GEMINI_API_KEY": "gemini-key",
		"OPENAI_API_KEY": "openai-key",
	})))
	assert.Equal(t, "openai-key", cfg.LLM.APIKey)

	cfg = Default()
	require.NoError(t, cfg.ApplyEnv(lookupFrom(map[string]string{
		"GEMINI_API_KEY": "gemini-key",
		"LLM_API_KEY":    "generic",
	})))
	assert.Equal(t, "generic", cfg.LLM.APIKey)
}

func TestApplyEnv_InvalidTimeout(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(lookupFrom(map[string]string{"FEEDBACK_TIMEOUT_SECONDS": "soon"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEEDBACK_TIMEOUT_SECONDS")
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", "storage:\n  backend: redis\n  redis_addr: file:6379\n")
	t.Setenv("REDIS_ADDR", "env:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLLMClientConfig(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4.1"
	cfg.LLM.BaseURL = "http://proxy"

	lc, err := cfg.LLMClientConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "gpt-4.1", lc.GetModel(llm.TierStandard))
	assert.Equal(t, "gpt-4o", lc.GetModel(llm.TierAdvanced))
	assert.Equal(t, "http://proxy", lc.BaseURL)
}
