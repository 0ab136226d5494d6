package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/store"
	"github.com/jonathan/mock-interview/internal/types"
)

// ---------------------------------------------------------------------
// Interview Handlers
// ---------------------------------------------------------------------

// maxLatestLimit caps the page size of the latest-interviews listing
const maxLatestLimit = 100

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	iv, err := s.repo.GetInterview(r.Context(), id)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if iv == nil {
		s.failure(w, r, &ErrNotFound{Resource: "interview", ID: id})
		return
	}
	s.jsonResponse(w, http.StatusOK, iv)
}

func (s *Server) handleListUserInterviews(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if err := s.checkUser(r.Context(), userID); err != nil {
		s.failure(w, r, err)
		return
	}

	list, err := s.repo.ListInterviewsByUser(r.Context(), userID)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if list == nil {
		list = []types.Interview{}
	}
	s.jsonResponse(w, http.StatusOK, list)
}

func (s *Server) handleLatestInterviews(w http.ResponseWriter, r *http.Request) {
	userID := queryParam(r, "userId")
	if userID == "" {
		s.failure(w, r, &feedback.MissingInputError{Field: "userId"})
		return
	}

	limit := store.DefaultLatestLimit
	if raw := queryParam(r, "limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.failure(w, r, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = min(n, maxLatestLimit)
	}

	list, err := s.repo.ListLatestInterviews(r.Context(), userID, limit)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if list == nil {
		list = []types.Interview{}
	}
	s.jsonResponse(w, http.StatusOK, list)
}
