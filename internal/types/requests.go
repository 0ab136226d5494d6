package types

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CreateFeedbackRequest asks for a transcript to be scored and stored
type CreateFeedbackRequest struct {
	InterviewID string            `json:"interviewId" validate:"required"`
	UserID      string            `json:"userId" validate:"required"`
	Transcript  []TranscriptEntry `json:"transcript" validate:"required,dive"`
	FeedbackID  string            `json:"feedbackId,omitempty"`
}

// CreateFeedbackResponse is returned by the feedback endpoint
type CreateFeedbackResponse struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StartCallRequest opens a call session for an interview attempt
type StartCallRequest struct {
	InterviewID string `json:"interviewId" validate:"required"`
	UserID      string `json:"userId" validate:"required"`
	FeedbackID  string `json:"feedbackId,omitempty"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the CreateFeedbackRequest using the validator.
func (r *CreateFeedbackRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the StartCallRequest using the validator.
func (r *StartCallRequest) Validate() error {
	return validate.Struct(r)
}

// FirstInvalidField returns the JSON path of the first field rejected by the validator,
// e.g. "userId" or "transcript[1].content". It returns "" when err is not a validation error.
func FirstInvalidField(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ""
	}
	ns := verrs[0].Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}
