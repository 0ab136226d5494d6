package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/mock-interview/internal/types"
)

// DefaultLatestLimit is used when ListLatestInterviews gets a non-positive limit
const DefaultLatestLimit = 20

const interviewColumns = `id, user_id, role, level, type, techstack, questions, finalized, created_at`

// UpsertInterview writes an interview. The question-generation flow owns
// interviews; this exists for seeding and tests.
func (db *DB) UpsertInterview(ctx context.Context, iv *types.Interview) error {
	techstack, err := json.Marshal(nonNil(iv.TechStack))
	if err != nil {
		return fmt.Errorf("failed to marshal techstack: %w", err)
	}
	questions, err := json.Marshal(nonNil(iv.Questions))
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}
	createdAt := iv.CreatedAt
	if createdAt.IsZero() {
		createdAt = db.now()
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO interviews (`+interviewColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   user_id = EXCLUDED.user_id, role = EXCLUDED.role, level = EXCLUDED.level,
		   type = EXCLUDED.type, techstack = EXCLUDED.techstack, questions = EXCLUDED.questions,
		   finalized = EXCLUDED.finalized, created_at = EXCLUDED.created_at`,
		iv.ID, iv.UserID, iv.Role, iv.Level, iv.Type, techstack, questions, iv.Finalized, createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert interview %s: %w", iv.ID, err)
	}
	return nil
}

// GetInterview returns an interview by id, or nil, nil
func (db *DB) GetInterview(ctx context.Context, id string) (*types.Interview, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`,
		id,
	)
	iv, err := scanInterview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview %s: %w", id, err)
	}
	return iv, nil
}

// ListInterviewsByUser returns the user's interviews, newest first
func (db *DB) ListInterviewsByUser(ctx context.Context, userID string) ([]types.Interview, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	return collectInterviews(rows)
}

// ListLatestInterviews returns finalized interviews by other users, newest first
func (db *DB) ListLatestInterviews(ctx context.Context, userID string, limit int) ([]types.Interview, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews
		 WHERE finalized = TRUE AND user_id <> $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest interviews: %w", err)
	}
	return collectInterviews(rows)
}

func collectInterviews(rows pgx.Rows) ([]types.Interview, error) {
	defer rows.Close()

	interviews := []types.Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, *iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interviews: %w", err)
	}
	return interviews, nil
}

func scanInterview(row pgx.Row) (*types.Interview, error) {
	var (
		iv        types.Interview
		techstack []byte
		questions []byte
	)
	if err := row.Scan(&iv.ID, &iv.UserID, &iv.Role, &iv.Level, &iv.Type,
		&techstack, &questions, &iv.Finalized, &iv.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(techstack, &iv.TechStack); err != nil {
		return nil, fmt.Errorf("invalid techstack for interview %s: %w", iv.ID, err)
	}
	if err := json.Unmarshal(questions, &iv.Questions); err != nil {
		return nil, fmt.Errorf("invalid questions for interview %s: %w", iv.ID, err)
	}
	return &iv, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
