package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// CompatClient calls any OpenAI-compatible /chat/completions endpoint over plain HTTP.
// These providers return raw text; callers strip fences and validate themselves.
type CompatClient struct {
	http   *resty.Client
	config *Config
}

type compatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatRequest struct {
	Model       string          `json:"model"`
	Messages    []compatMessage `json:"messages"`
	Temperature float32         `json:"temperature"`
}

type compatResponse struct {
	Choices []struct {
		Message compatMessage `json:"message"`
	} `json:"choices"`
}

type compatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewCompatClient builds a client for an OpenAI-compatible endpoint.
// config.BaseURL must include the version prefix, e.g. "http://localhost:8000/v1".
// apiKey may be empty for local models.
func NewCompatClient(config *Config, apiKey string) (*CompatClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required for provider %s", ProviderCompat)
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(120*time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		httpClient.SetAuthToken(apiKey)
	}

	return &CompatClient{http: httpClient, config: config}, nil
}

// GenerateContent generates text content using the specified model tier
func (c *CompatClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	var result compatResponse
	var apiErr compatError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(compatRequest{
			Model:       modelName,
			Messages:    []compatMessage{{Role: "user", Content: prompt}},
			Temperature: c.config.Temperature,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai-compat request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("openai-compat api error: %s", apiErr.Error.Message)
		}
		return "", fmt.Errorf("openai-compat api error: %s", resp.Status())
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai-compat api")
	}
	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from openai-compat api")
	}
	return text, nil
}

// GenerateJSON generates content and strips markdown fences. No JSON mode is requested
// because compatible servers disagree on how to spell it.
func (c *CompatClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *CompatClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op
func (c *CompatClient) Close() error {
	return nil
}
