package feedback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Sentinels matched by the typed errors below via errors.Is
var (
	ErrMissingInput      = errors.New("missing input")
	ErrGenerationFailed  = errors.New("generation failed")
	ErrSchemaViolation   = errors.New("schema violation")
	ErrPersistenceFailed = errors.New("persistence failed")
)

// MissingInputError represents a required request field that is absent
type MissingInputError struct {
	Field string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing or invalid field: %s", e.Field)
}

// Is matches ErrMissingInput
func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

// GenerationError represents a failure reaching or calling the language model
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("feedback generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("feedback generation failed: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrGenerationFailed
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// SchemaViolationError represents a model response that does not match the feedback schema.
// Raw holds the response text for logging; it is never sent to clients.
type SchemaViolationError struct {
	Field   string
	Message string
	Raw     string
	Cause   error
}

func (e *SchemaViolationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema violation in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("schema violation: %s", e.Message)
}

func (e *SchemaViolationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrSchemaViolation
func (e *SchemaViolationError) Is(target error) bool {
	return target == ErrSchemaViolation
}

// PersistenceError represents a failed write to the feedback store
type PersistenceError struct {
	Message string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Is matches ErrPersistenceFailed
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailed
}

// Persistence cause classes safe to show to callers
const (
	CauseStoreTimeout     = "store timeout"
	CauseStoreUnavailable = "store unavailable"
	CauseCancelled        = "request cancelled"
	CauseWriteRejected    = "write rejected"
)

// CauseClass names the kind of failure without exposing the underlying error
func (e *PersistenceError) CauseClass() string {
	var netErr net.Error
	switch {
	case errors.Is(e.Cause, context.DeadlineExceeded):
		return CauseStoreTimeout
	case errors.As(e.Cause, &netErr) && netErr.Timeout():
		return CauseStoreTimeout
	case errors.Is(e.Cause, context.Canceled):
		return CauseCancelled
	case errors.Is(e.Cause, syscall.ECONNREFUSED),
		errors.Is(e.Cause, syscall.ECONNRESET),
		errors.Is(e.Cause, net.ErrClosed),
		errors.As(e.Cause, &netErr):
		return CauseStoreUnavailable
	default:
		return CauseWriteRejected
	}
}
