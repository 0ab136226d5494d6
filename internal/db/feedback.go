package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/mock-interview/internal/types"
)

// Save writes a feedback document. An existing feedbackID is overwritten,
// an unknown one is created; an empty one gets a new UUID.
func (db *DB) Save(ctx context.Context, interviewID, userID string, fb *types.Feedback, feedbackID string) (string, error) {
	id := feedbackID
	if id == "" {
		id = uuid.NewString()
	}

	rec := types.NewFeedbackRecord(id, interviewID, userID, fb, db.now())
	doc, err := types.NewFeedbackDocument(rec)
	if err != nil {
		return "", err
	}
	document, err := json.Marshal(doc.Fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal feedback document: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO feedback (id, interview_id, user_id, document, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   interview_id = EXCLUDED.interview_id,
		   user_id = EXCLUDED.user_id,
		   document = EXCLUDED.document,
		   created_at = EXCLUDED.created_at`,
		id, interviewID, userID, document, rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save feedback %s: %w", id, err)
	}
	return id, nil
}

// FindByInterviewAndUser returns the newest feedback for the pair, or nil, nil
func (db *DB) FindByInterviewAndUser(ctx context.Context, interviewID, userID string) (*types.FeedbackDocument, error) {
	var (
		id       string
		document []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, document FROM feedback
		 WHERE interview_id = $1 AND user_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		interviewID, userID,
	).Scan(&id, &document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}
	return types.ParseFeedbackDocument(id, document)
}
