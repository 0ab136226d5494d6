package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonathan/mock-interview/internal/types"
)

const defaultKeyPrefix = "mock-interview:"

// maxWriteAttempts bounds optimistic retries when a watched key changes
const maxWriteAttempts = 10

// RedisStore keeps documents in Redis as JSON strings, indexed by sorted sets
// scored by creation time.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// storedFeedback is the value written at a feedback key
type storedFeedback struct {
	InterviewID string          `json:"interviewId"`
	UserID      string          `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
	Document    json.RawMessage `json:"document"`
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, opts Options) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, opts.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// Close closes the client
func (s *RedisStore) Close() {
	_ = s.client.Close()
}

func (s *RedisStore) feedbackKey(id string) string {
	return s.prefix + "feedback:" + id
}

func (s *RedisStore) feedbackIndexKey(interviewID, userID string) string {
	return s.prefix + "feedback-by:" + interviewID + ":" + userID
}

func (s *RedisStore) interviewKey(id string) string {
	return s.prefix + "interview:" + id
}

func (s *RedisStore) userInterviewsKey(userID string) string {
	return s.prefix + "interviews-by-user:" + userID
}

func (s *RedisStore) finalizedKey() string {
	return s.prefix + "interviews-finalized"
}

// Save writes a feedback document at feedbackID, or at a new UUID
func (s *RedisStore) Save(ctx context.Context, interviewID, userID string, fb *types.Feedback, feedbackID string) (string, error) {
	id := feedbackID
	if id == "" {
		id = uuid.NewString()
	}

	rec := types.NewFeedbackRecord(id, interviewID, userID, fb, s.now())
	doc, err := types.NewFeedbackDocument(rec)
	if err != nil {
		return "", err
	}
	if err := s.writeDocument(ctx, doc, interviewID, userID, rec.CreatedAt); err != nil {
		return "", err
	}
	return id, nil
}

// PutDocument stores a raw document as-is. Used to seed data written by other clients.
func (s *RedisStore) PutDocument(ctx context.Context, doc *types.FeedbackDocument, createdAt time.Time) error {
	interviewID, _ := doc.String("interviewId")
	userID, _ := doc.String("userId")
	return s.writeDocument(ctx, doc, interviewID, userID, createdAt.UTC())
}

func (s *RedisStore) writeDocument(ctx context.Context, doc *types.FeedbackDocument, interviewID, userID string, createdAt time.Time) error {
	body, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback document: %w", err)
	}
	value, err := json.Marshal(storedFeedback{
		InterviewID: interviewID,
		UserID:      userID,
		CreatedAt:   createdAt,
		Document:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal feedback entry: %w", err)
	}

	key := s.feedbackKey(doc.ID)
	// An overwrite may move the document to another interview/user pair, so the
	// previous entry is read under WATCH and the write retried if it changed.
	write := func(tx *redis.Tx) error {
		prev, err := s.readEntry(ctx, tx, doc.ID)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if prev != nil && (prev.InterviewID != interviewID || prev.UserID != userID) {
				pipe.ZRem(ctx, s.feedbackIndexKey(prev.InterviewID, prev.UserID), doc.ID)
			}
			pipe.Set(ctx, key, value, 0)
			pipe.ZAdd(ctx, s.feedbackIndexKey(interviewID, userID), redis.Z{
				Score:  float64(createdAt.UnixMilli()),
				Member: doc.ID,
			})
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		err = s.client.Watch(ctx, write, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to save feedback %s: %w", doc.ID, err)
	}
	return nil
}

func (s *RedisStore) loadEntry(ctx context.Context, id string) (*storedFeedback, error) {
	return s.readEntry(ctx, s.client, id)
}

func (s *RedisStore) readEntry(ctx context.Context, c redis.Cmdable, id string) (*storedFeedback, error) {
	raw, err := c.Get(ctx, s.feedbackKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback %s: %w", id, err)
	}
	var entry storedFeedback
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("corrupt feedback entry %s: %w", id, err)
	}
	return &entry, nil
}

// FindByInterviewAndUser returns the newest matching document, or nil, nil
func (s *RedisStore) FindByInterviewAndUser(ctx context.Context, interviewID, userID string) (*types.FeedbackDocument, error) {
	ids, err := s.client.ZRevRange(ctx, s.feedbackIndexKey(interviewID, userID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	entry, err := s.loadEntry(ctx, ids[0])
	if err != nil || entry == nil {
		return nil, err
	}
	return types.ParseFeedbackDocument(ids[0], entry.Document)
}

// PutInterview stores an interview and indexes it
func (s *RedisStore) PutInterview(ctx context.Context, iv types.Interview) error {
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = s.now().UTC()
	}
	value, err := json.Marshal(iv)
	if err != nil {
		return fmt.Errorf("failed to marshal interview: %w", err)
	}
	score := float64(iv.CreatedAt.UnixMilli())

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.interviewKey(iv.ID), value, 0)
		pipe.ZAdd(ctx, s.userInterviewsKey(iv.UserID), redis.Z{Score: score, Member: iv.ID})
		if iv.Finalized {
			pipe.ZAdd(ctx, s.finalizedKey(), redis.Z{Score: score, Member: iv.ID})
		} else {
			pipe.ZRem(ctx, s.finalizedKey(), iv.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save interview %s: %w", iv.ID, err)
	}
	return nil
}

// GetInterview returns an interview by id, or nil, nil
func (s *RedisStore) GetInterview(ctx context.Context, id string) (*types.Interview, error) {
	raw, err := s.client.Get(ctx, s.interviewKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interview %s: %w", id, err)
	}
	var iv types.Interview
	if err := json.Unmarshal(raw, &iv); err != nil {
		return nil, fmt.Errorf("corrupt interview %s: %w", id, err)
	}
	return &iv, nil
}

// ListInterviewsByUser returns the user's interviews, newest first
func (s *RedisStore) ListInterviewsByUser(ctx context.Context, userID string) ([]types.Interview, error) {
	ids, err := s.client.ZRevRange(ctx, s.userInterviewsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	out, err := s.loadInterviews(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

// ListLatestInterviews returns finalized interviews by other users, newest first
func (s *RedisStore) ListLatestInterviews(ctx context.Context, userID string, limit int) ([]types.Interview, error) {
	ids, err := s.client.ZRevRange(ctx, s.finalizedKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list latest interviews: %w", err)
	}
	all, err := s.loadInterviews(ctx, ids)
	if err != nil {
		return nil, err
	}
	return latestOf(all, userID, limit), nil
}

func (s *RedisStore) loadInterviews(ctx context.Context, ids []string) ([]types.Interview, error) {
	out := []types.Interview{}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.interviewKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load interviews: %w", err)
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// index entry without a document
			continue
		}
		var iv types.Interview
		if err := json.Unmarshal([]byte(str), &iv); err != nil {
			return nil, fmt.Errorf("corrupt interview %s: %w", ids[i], err)
		}
		out = append(out, iv)
	}
	return out, nil
}
