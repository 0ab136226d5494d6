// Package llm provides language-model client abstractions for interview scoring.
// Providers are selected by configuration; callers pick a model tier rather than a model name.
package llm

import (
	"fmt"
	"strings"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cheap, low-latency calls
	TierLite ModelTier = "lite"
	// TierStandard is the default tier for transcript scoring
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long transcripts or stricter evaluation
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Supported providers
const (
	// ProviderGemini is Google Gemini; supports schema-constrained output
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI chat completions API
	ProviderOpenAI Provider = "openai"
	// ProviderCompat is any OpenAI-compatible endpoint (vLLM, LiteLLM, Ollama...)
	ProviderCompat Provider = "openai-compat"
)

// ParseProvider maps a configuration string to a Provider
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderOpenAI, ProviderCompat:
		return p, nil
	default:
		return "", fmt.Errorf("unknown llm provider %q", s)
	}
}

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	BaseURL     string  // OpenAI and compatible providers only
	Temperature float32 // low values keep scoring consistent between runs
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultProviderConfig(ProviderGemini)
}

// DefaultProviderConfig returns default models for a provider.
// The compatible provider has no defaults; its models come from configuration.
func DefaultProviderConfig(p Provider) *Config {
	cfg := &Config{Provider: p, Temperature: 0.1, Models: map[ModelTier]string{}}
	switch p {
	case ProviderGemini:
		cfg.Models[TierLite] = "gemini-2.5-flash-lite"
		cfg.Models[TierStandard] = "gemini-2.5-flash"
		cfg.Models[TierAdvanced] = "gemini-2.5-pro"
	case ProviderOpenAI:
		cfg.Models[TierLite] = "gpt-4o-mini"
		cfg.Models[TierStandard] = "gpt-4o-mini"
		cfg.Models[TierAdvanced] = "gpt-4o"
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := *c
	next.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return &next
}
