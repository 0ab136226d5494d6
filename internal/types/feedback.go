package types

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// CategoryScore is the score and comment for one evaluation category
type CategoryScore struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// Feedback is the validated assessment returned by the language model
type Feedback struct {
	TotalScore          float64         `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
}

// FeedbackRecord is the persisted evaluation of one interview attempt
type FeedbackRecord struct {
	ID                  string          `json:"id,omitempty"`
	InterviewID         string          `json:"interviewId"`
	UserID              string          `json:"userId"`
	TotalScore          int             `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// NewFeedbackRecord builds the record persisted for an assessment.
// The total score is rounded to the nearest integer.
func NewFeedbackRecord(id, interviewID, userID string, fb *Feedback, createdAt time.Time) *FeedbackRecord {
	return &FeedbackRecord{
		ID:                  id,
		InterviewID:         interviewID,
		UserID:              userID,
		TotalScore:          int(math.Round(fb.TotalScore)),
		CategoryScores:      fb.CategoryScores,
		Strengths:           fb.Strengths,
		AreasForImprovement: fb.AreasForImprovement,
		FinalAssessment:     fb.FinalAssessment,
		CreatedAt:           createdAt.UTC(),
	}
}

// FeedbackDocument is a feedback record as it sits in the document store.
// Fields are untyped: documents written by other clients may be incomplete or malformed.
type FeedbackDocument struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// NewFeedbackDocument converts a record into its stored document form
func NewFeedbackDocument(rec *FeedbackRecord) (*FeedbackDocument, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feedback record: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to convert feedback record: %w", err)
	}
	delete(fields, "id")
	return &FeedbackDocument{ID: rec.ID, Fields: fields}, nil
}

// ParseFeedbackDocument decodes a stored JSON document body
func ParseFeedbackDocument(id string, data []byte) (*FeedbackDocument, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse feedback document %s: %w", id, err)
	}
	delete(fields, "id")
	return &FeedbackDocument{ID: id, Fields: fields}, nil
}

// Decode converts the document into a typed record.
// It fails when a field has the wrong type.
func (d *FeedbackDocument) Decode() (*FeedbackRecord, error) {
	data, err := json.Marshal(d.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feedback document: %w", err)
	}
	var rec FeedbackRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("malformed feedback document %s: %w", d.ID, err)
	}
	rec.ID = d.ID
	return &rec, nil
}

// String returns the value of a string field, if present
func (d *FeedbackDocument) String(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	s, ok := d.Fields[key].(string)
	return s, ok
}
