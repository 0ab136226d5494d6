package main

import (
	"context"
	"fmt"

	"github.com/jonathan/mock-interview/internal/config"
	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/llm"
	"github.com/jonathan/mock-interview/internal/store"
)

// storeOptions maps the storage section onto store options
func storeOptions(c *config.Config) store.Options {
	return store.Options{
		Backend:       c.Storage.Backend,
		DatabaseURL:   c.Storage.DatabaseURL,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		KeyPrefix:     c.Storage.KeyPrefix,
	}
}

// newGenerator connects to the configured provider. The returned client must be closed.
func newGenerator(ctx context.Context, c *config.Config) (*feedback.Generator, llm.Client, error) {
	if c.LLM.APIKey == "" {
		return nil, nil, fmt.Errorf("API key is required (set GEMINI_API_KEY, OPENAI_API_KEY or LLM_API_KEY)")
	}
	llmCfg, err := c.LLMClientConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := llm.NewClient(ctx, llmCfg, c.LLM.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	gen := feedback.NewGenerator(client, feedback.GeneratorOptions{
		Timeout:    c.Feedback.Timeout(),
		Structured: c.Feedback.Structured(),
		Logger:     logger,
	})
	return gen, client, nil
}

// promptOptions maps the feedback section onto prompt options
func promptOptions(c *config.Config) feedback.PromptOptions {
	return feedback.PromptOptions{AllowEmpty: c.Feedback.AllowEmptyTranscript}
}
