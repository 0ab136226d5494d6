package feedback

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonathan/mock-interview/internal/types"
)

// Store persists assessments. Implementations stamp createdAt at write time.
type Store interface {
	// Save writes the feedback at feedbackID, creating it if absent, or under a
	// new identifier when feedbackID is empty. It returns the identifier.
	Save(ctx context.Context, interviewID, userID string, fb *types.Feedback, feedbackID string) (string, error)
	// FindByInterviewAndUser returns the newest matching document, or nil, nil.
	FindByInterviewAndUser(ctx context.Context, interviewID, userID string) (*types.FeedbackDocument, error)
}

// InterviewReader reads interviews owned by the question-generation flow
type InterviewReader interface {
	// GetInterview returns nil, nil when the interview does not exist
	GetInterview(ctx context.Context, id string) (*types.Interview, error)
	ListInterviewsByUser(ctx context.Context, userID string) ([]types.Interview, error)
	// ListLatestInterviews returns finalized interviews of other users, newest first
	ListLatestInterviews(ctx context.Context, userID string, limit int) ([]types.Interview, error)
}

// Repository is a backend serving both collections
type Repository interface {
	Store
	InterviewReader
}

// Scorer produces an assessment from a prompt
type Scorer interface {
	Generate(ctx context.Context, prompt string) (*types.Feedback, error)
}

// Service runs the transcript to stored feedback flow
type Service struct {
	store  Store
	scorer Scorer
	opts   PromptOptions
	logger *slog.Logger
}

// NewService creates a feedback service
func NewService(store Store, scorer Scorer, opts PromptOptions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, scorer: scorer, opts: opts, logger: logger}
}

// Create scores the transcript and stores the result, returning the feedback id.
// Nothing is written when validation or generation fails.
func (s *Service) Create(ctx context.Context, req *types.CreateFeedbackRequest) (string, error) {
	if err := req.Validate(); err != nil {
		field := types.FirstInvalidField(err)
		if field == "" {
			field = "request"
		}
		return "", &MissingInputError{Field: field}
	}

	prompt, err := BuildPrompt(req.Transcript, s.opts)
	if err != nil {
		return "", err
	}

	fb, err := s.scorer.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	id, err := s.store.Save(ctx, req.InterviewID, req.UserID, fb, req.FeedbackID)
	if err != nil {
		s.logger.Error("failed to save feedback",
			slog.String("interview_id", req.InterviewID),
			slog.String("user_id", req.UserID),
			slog.Any("error", err),
		)
		var perr *PersistenceError
		if errors.As(err, &perr) {
			return "", err
		}
		return "", &PersistenceError{Message: "failed to save feedback", Cause: err}
	}

	s.logger.Info("feedback saved",
		slog.String("feedback_id", id),
		slog.String("interview_id", req.InterviewID),
		slog.Float64("total_score", fb.TotalScore),
	)
	return id, nil
}

// Find returns the stored feedback for an interview attempt, or nil, nil
func (s *Service) Find(ctx context.Context, interviewID, userID string) (*types.FeedbackDocument, error) {
	return s.store.FindByInterviewAndUser(ctx, interviewID, userID)
}
