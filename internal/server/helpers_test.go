package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/mock-interview/internal/call"
	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/llm"
	"github.com/jonathan/mock-interview/internal/server/ratelimit"
	"github.com/jonathan/mock-interview/internal/store"
	"github.com/jonathan/mock-interview/internal/types"
)

// scriptedClient is an llm.Client returning a fixed reply
type scriptedClient struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (c *scriptedClient) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.response, c.err
}

func (c *scriptedClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	text, err := c.GenerateContent(ctx, prompt, tier)
	return llm.CleanJSONBlock(text), err
}

func (c *scriptedClient) GetModel(llm.ModelTier) string { return "scripted" }

func (c *scriptedClient) Close() error { return nil }

func (c *scriptedClient) set(response string, err error) {
	c.mu.Lock()
	c.response, c.err = response, err
	c.mu.Unlock()
}

func (c *scriptedClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// failingSaves wraps the memory store and rejects writes
type failingSaves struct {
	*store.MemoryStore
}

func (f failingSaves) Save(context.Context, string, string, *types.Feedback, string) (string, error) {
	return "", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
}

type fixture struct {
	server *Server
	store  *store.MemoryStore
	client *scriptedClient
	calls  *call.Registry
}

type fixtureOption func(*Options, *fixture)

func withVerifier(v *TokenVerifier, required bool) fixtureOption {
	return func(o *Options, _ *fixture) {
		o.Verifier = v
		o.AuthRequired = required
	}
}

func withWebhookSecret(secret string) fixtureOption {
	return func(o *Options, _ *fixture) { o.WebhookSecret = secret }
}

func withRateLimit(cfg *ratelimit.Config) fixtureOption {
	return func(o *Options, _ *fixture) { o.RateLimit = cfg }
}

func withOrigins(origins ...string) fixtureOption {
	return func(o *Options, _ *fixture) { o.AllowedOrigins = origins }
}

// withBrokenStore makes every save fail
func withBrokenStore() fixtureOption {
	return func(o *Options, f *fixture) {
		broken := failingSaves{f.store}
		svc := newService(broken, f.client)
		o.Feedback = svc
		o.Repository = broken
		f.calls = call.NewRegistry(context.Background(), svc, quietLogger())
		o.Calls = f.calls
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(st feedback.Store, client llm.Client) *feedback.Service {
	gen := feedback.NewGenerator(client, feedback.GeneratorOptions{Timeout: 5 * time.Second, Logger: quietLogger()})
	return feedback.NewService(st, gen, feedback.PromptOptions{}, quietLogger())
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	f := &fixture{
		store:  store.NewMemoryStore(),
		client: &scriptedClient{response: sampleFeedbackJSON()},
	}
	svc := newService(f.store, f.client)
	f.calls = call.NewRegistry(context.Background(), svc, quietLogger())

	o := Options{
		Feedback:   svc,
		Repository: f.store,
		Calls:      f.calls,
		RateLimit:  &ratelimit.Config{Enabled: false},
		Logger:     quietLogger(),
	}
	for _, opt := range opts {
		opt(&o, f)
	}

	srv, err := New(o)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	f.server = srv

	f.store.PutInterview(types.Interview{
		ID:        "iv-1",
		Role:      "Frontend Developer",
		UserID:    "user-1",
		Finalized: true,
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func sampleFeedback() map[string]any {
	categories := make([]any, 0, len(feedback.CategoryNames))
	for _, name := range feedback.CategoryNames {
		categories = append(categories, map[string]any{"name": name, "score": 80, "comment": "Good"})
	}
	return map[string]any{
		"totalScore":          82,
		"categoryScores":      categories,
		"strengths":           []any{"clear communication", "relevant experience"},
		"areasForImprovement": []any{"limited detail", "no metrics"},
		"finalAssessment":     "Solid candidate.",
	}
}

func sampleFeedbackJSON() string {
	data, _ := json.Marshal(sampleFeedback())
	return string(data)
}

func twoLineTranscript() []types.TranscriptEntry {
	return []types.TranscriptEntry{
		{Role: types.RoleAssistant, Content: "Tell me about yourself."},
		{Role: types.RoleUser, Content: "I am a frontend developer."},
	}
}
