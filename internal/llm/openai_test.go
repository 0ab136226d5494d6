package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCompletionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
}

func TestOpenAIClient_GenerateJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionBody("```json\n{\"ok\": true}\n```"))
	}))
	defer srv.Close()

	cfg := DefaultProviderConfig(ProviderOpenAI)
	cfg.BaseURL = srv.URL
	c, err := NewOpenAIClient(cfg, "sk-test")
	require.NoError(t, err)

	text, err := c.GenerateJSON(context.Background(), "score this", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, text)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	format, ok := got["response_format"].(map[string]any)
	require.True(t, ok, "JSON mode should be requested")
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIClient_GenerateContent_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	cfg := DefaultProviderConfig(ProviderOpenAI)
	cfg.BaseURL = srv.URL
	c, err := NewOpenAIClient(cfg, "sk-test")
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "hello", TierStandard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate content")
}

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient(DefaultProviderConfig(ProviderOpenAI), "")
	assert.Error(t, err)
}
