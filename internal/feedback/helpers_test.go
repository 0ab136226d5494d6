package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/mock-interview/internal/llm"
	"github.com/jonathan/mock-interview/internal/types"
)

// stubClient returns canned responses and records prompts and the method used
type stubClient struct {
	mu       sync.Mutex
	response string
	err      error
	block    bool
	prompts  []string
	methods  []string
}

func (c *stubClient) reply(ctx context.Context, method, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.methods = append(c.methods, method)
	c.mu.Unlock()
	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.response, c.err
}

func (c *stubClient) GenerateContent(ctx context.Context, prompt string, _ llm.ModelTier) (string, error) {
	return c.reply(ctx, "content", prompt)
}

func (c *stubClient) GenerateJSON(ctx context.Context, prompt string, _ llm.ModelTier) (string, error) {
	text, err := c.reply(ctx, "json", prompt)
	return llm.CleanJSONBlock(text), err
}

func (c *stubClient) GetModel(llm.ModelTier) string { return "stub-model" }

func (c *stubClient) Close() error { return nil }

// structuredStub also implements llm.StructuredClient
type structuredStub struct {
	stubClient
	structured string
	requests   []llm.StructuredRequest
}

func (c *structuredStub) GenerateStructured(_ context.Context, req llm.StructuredRequest) (string, error) {
	c.requests = append(c.requests, req)
	return c.structured, nil
}

// mapStore is an in-package Store used to observe writes
type mapStore struct {
	mu      sync.Mutex
	docs    map[string]*types.FeedbackRecord
	saveErr error
	seq     int
}

func newMapStore() *mapStore {
	return &mapStore{docs: make(map[string]*types.FeedbackRecord)}
}

func (s *mapStore) Save(_ context.Context, interviewID, userID string, fb *types.Feedback, feedbackID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	if feedbackID == "" {
		s.seq++
		feedbackID = fmt.Sprintf("fb-%d", s.seq)
	}
	s.docs[feedbackID] = types.NewFeedbackRecord(feedbackID, interviewID, userID, fb, time.Now())
	return feedbackID, nil
}

func (s *mapStore) FindByInterviewAndUser(_ context.Context, interviewID, userID string) (*types.FeedbackDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.docs {
		if rec.InterviewID == interviewID && rec.UserID == userID {
			return types.NewFeedbackDocument(rec)
		}
	}
	return nil, nil
}

func sampleTranscript() []types.TranscriptEntry {
	return []types.TranscriptEntry{
		{Role: types.RoleAssistant, Content: "Tell me about yourself"},
		{Role: types.RoleUser, Content: "I am a backend engineer"},
	}
}

func sampleFeedbackMap() map[string]any {
	categories := make([]any, 0, len(CategoryNames))
	for _, name := range CategoryNames {
		categories = append(categories, map[string]any{
			"name":    name,
			"score":   80.0,
			"comment": "Good",
		})
	}
	return map[string]any{
		"totalScore":          82.0,
		"categoryScores":      categories,
		"strengths":           []any{"clear communication", "relevant experience"},
		"areasForImprovement": []any{"limited detail", "no metrics"},
		"finalAssessment":     "Solid candidate.",
	}
}

func sampleFeedbackJSON() string {
	data, _ := json.Marshal(sampleFeedbackMap())
	return string(data)
}

func mustJSON(t interface{ Fatalf(string, ...any) }, v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
