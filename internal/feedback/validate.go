package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/mock-interview/internal/schemas"
	"github.com/jonathan/mock-interview/internal/types"
)

// fieldOrder is the order in which failing fields are reported
var fieldOrder = []string{
	"totalScore",
	"categoryScores",
	"strengths",
	"areasForImprovement",
	"finalAssessment",
}

// Validate checks a decoded model response against the feedback schema and
// converts it. A violation names the first failing field.
func Validate(value any) (*types.Feedback, error) {
	err := schemas.ValidateDocument(schemas.FeedbackSchema, value)
	if err != nil {
		var verr *schemas.ValidationError
		if !errors.As(err, &verr) {
			return nil, &SchemaViolationError{Message: "schema could not be applied", Cause: err}
		}
		first := firstFieldError(verr.Errors)
		return nil, &SchemaViolationError{
			Field:   first.Field,
			Message: first.Message,
			Cause:   err,
		}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, &SchemaViolationError{Message: "response could not be re-encoded", Cause: err}
	}
	var fb types.Feedback
	if err := json.Unmarshal(data, &fb); err != nil {
		return nil, &SchemaViolationError{Message: "response could not be decoded", Cause: err}
	}
	return &fb, nil
}

// ParseAndValidate decodes raw JSON text and validates it
func ParseAndValidate(text string) (*types.Feedback, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, &SchemaViolationError{
			Message: fmt.Sprintf("response is not valid JSON: %v", err),
			Raw:     text,
			Cause:   err,
		}
	}
	fb, err := Validate(value)
	if err != nil {
		var sv *SchemaViolationError
		if errors.As(err, &sv) {
			sv.Raw = text
		}
		return nil, err
	}
	return fb, nil
}

// firstFieldError picks the error whose top-level field comes first in fieldOrder.
// Ties keep the validator's order.
func firstFieldError(errs []schemas.FieldError) schemas.FieldError {
	sorted := make([]schemas.FieldError, len(errs))
	copy(sorted, errs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return fieldRank(sorted[i].Field) < fieldRank(sorted[j].Field)
	})
	return sorted[0]
}

func fieldRank(field string) int {
	top, _, _ := strings.Cut(field, ".")
	for i, name := range fieldOrder {
		if top == name {
			return i
		}
	}
	// (root) type errors outrank everything; unknown fields sort last
	if top == "(root)" {
		return -1
	}
	return len(fieldOrder)
}
