package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/presenter"
	"github.com/jonathan/mock-interview/internal/types"
)

// ---------------------------------------------------------------------
// Feedback Handlers
// ---------------------------------------------------------------------

func (s *Server) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req types.CreateFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := s.checkUser(r.Context(), req.UserID); err != nil {
		s.failure(w, r, err)
		return
	}

	id, err := s.feedback.Create(r.Context(), &req)
	if err != nil {
		s.createFailure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.CreateFeedbackResponse{Success: true, FeedbackID: id})
}

// createFailure logs the generation outcome; the service has already logged
// provider output for schema violations
func (s *Server) createFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	s.logger.Warn("feedback not created",
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	s.jsonResponse(w, status, types.CreateFeedbackResponse{Success: false, Error: publicMessage(err)})
}

func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadFeedbackView(r.Context(), r.PathValue("id"), queryParam(r, "userId"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleFeedbackPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadFeedbackView(r.Context(), r.PathValue("id"), queryParam(r, "userId"))
	if err != nil {
		status := HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("failed to load feedback page", slog.String("error", err.Error()))
		}
		http.Error(w, publicMessage(err), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := presenter.RenderHTML(w, view); err != nil {
		s.logger.Error("failed to render feedback page", slog.String("error", err.Error()))
	}
}

// loadFeedbackView fetches the interview and the caller's newest feedback
// concurrently. A missing feedback record yields the all-defaults view; a
// missing interview is NotFound.
func (s *Server) loadFeedbackView(ctx context.Context, interviewID, userID string) (presenter.View, error) {
	if userID == "" {
		return presenter.View{}, &feedback.MissingInputError{Field: "userId"}
	}
	if err := s.checkUser(ctx, userID); err != nil {
		return presenter.View{}, err
	}

	var (
		iv  *types.Interview
		doc *types.FeedbackDocument
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		iv, err = s.repo.GetInterview(gctx, interviewID)
		if err != nil {
			return fmt.Errorf("failed to load interview: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		doc, err = s.repo.FindByInterviewAndUser(gctx, interviewID, userID)
		if err != nil {
			return fmt.Errorf("failed to load feedback: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return presenter.View{}, err
	}
	if iv == nil {
		return presenter.View{}, &ErrNotFound{Resource: "interview", ID: interviewID}
	}

	return presenter.Present(doc).WithInterview(iv), nil
}
