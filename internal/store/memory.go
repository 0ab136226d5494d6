package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/mock-interview/internal/types"
)

// MemoryStore keeps documents in process memory
type MemoryStore struct {
	mu         sync.RWMutex
	feedback   map[string]memoryEntry
	interviews map[string]types.Interview
	now        func() time.Time
}

type memoryEntry struct {
	interviewID string
	userID      string
	createdAt   time.Time
	doc         *types.FeedbackDocument
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		feedback:   make(map[string]memoryEntry),
		interviews: make(map[string]types.Interview),
		now:        time.Now,
	}
}

// Close is a no-op
func (s *MemoryStore) Close() {}

// Save writes a feedback document at feedbackID, or at a new UUID
func (s *MemoryStore) Save(_ context.Context, interviewID, userID string, fb *types.Feedback, feedbackID string) (string, error) {
	id := feedbackID
	if id == "" {
		id = uuid.NewString()
	}

	rec := types.NewFeedbackRecord(id, interviewID, userID, fb, s.now())
	doc, err := types.NewFeedbackDocument(rec)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[id] = memoryEntry{
		interviewID: interviewID,
		userID:      userID,
		createdAt:   rec.CreatedAt,
		doc:         doc,
	}
	return id, nil
}

// PutDocument stores a raw document as-is. Used to seed data written by other clients.
func (s *MemoryStore) PutDocument(doc *types.FeedbackDocument, createdAt time.Time) {
	interviewID, _ := doc.String("interviewId")
	userID, _ := doc.String("userId")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[doc.ID] = memoryEntry{
		interviewID: interviewID,
		userID:      userID,
		createdAt:   createdAt,
		doc:         cloneDocument(doc),
	}
}

// FindByInterviewAndUser returns the newest matching document, or nil, nil
func (s *MemoryStore) FindByInterviewAndUser(_ context.Context, interviewID, userID string) (*types.FeedbackDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *memoryEntry
	for id := range s.feedback {
		e := s.feedback[id]
		if e.interviewID != interviewID || e.userID != userID {
			continue
		}
		if best == nil || e.createdAt.After(best.createdAt) ||
			(e.createdAt.Equal(best.createdAt) && e.doc.ID > best.doc.ID) {
			best = &e
		}
	}
	if best == nil {
		return nil, nil
	}
	return cloneDocument(best.doc), nil
}

// Count returns the number of stored feedback documents
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feedback)
}

// PutInterview stores an interview
func (s *MemoryStore) PutInterview(iv types.Interview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interviews[iv.ID] = iv
}

// GetInterview returns an interview by id, or nil, nil
func (s *MemoryStore) GetInterview(_ context.Context, id string) (*types.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, nil
	}
	return &iv, nil
}

// ListInterviewsByUser returns the user's interviews, newest first
func (s *MemoryStore) ListInterviewsByUser(_ context.Context, userID string) ([]types.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []types.Interview{}
	for _, iv := range s.interviews {
		if iv.UserID == userID {
			out = append(out, iv)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListLatestInterviews returns finalized interviews by other users, newest first
func (s *MemoryStore) ListLatestInterviews(_ context.Context, userID string, limit int) ([]types.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]types.Interview, 0, len(s.interviews))
	for _, iv := range s.interviews {
		all = append(all, iv)
	}
	return latestOf(all, userID, limit), nil
}

// cloneDocument copies the top-level field map so callers cannot mutate stored state
func cloneDocument(doc *types.FeedbackDocument) *types.FeedbackDocument {
	fields := make(map[string]any, len(doc.Fields))
	for k, v := range doc.Fields {
		fields[k] = v
	}
	return &types.FeedbackDocument{ID: doc.ID, Fields: fields}
}
