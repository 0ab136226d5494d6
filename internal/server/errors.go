// Package server provides the HTTP API of the mock interview feedback service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/mock-interview/internal/feedback"
)

// ErrValidation indicates a malformed request outside the feedback flow
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrForbidden indicates the caller acts for another user
type ErrForbidden struct{}

func (e *ErrForbidden) Error() string {
	return "forbidden"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		notFound   *ErrNotFound
		forbidden  *ErrForbidden
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, feedback.ErrMissingInput), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, feedback.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, feedback.ErrSchemaViolation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text sent to clients. Provider output and
// storage causes stay in the logs.
func publicMessage(err error) string {
	var (
		missing   *feedback.MissingInputError
		violation *feedback.SchemaViolationError
		generate  *feedback.GenerationError
		persist   *feedback.PersistenceError
	)
	switch {
	case errors.As(err, &missing):
		return missing.Error()
	case errors.As(err, &violation):
		if violation.Field != "" {
			return fmt.Sprintf("generated feedback is invalid: %s", violation.Field)
		}
		return "generated feedback is invalid"
	case errors.As(err, &generate):
		return "feedback generation failed"
	case errors.As(err, &persist):
		return "failed to save feedback: " + persist.CauseClass()
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
