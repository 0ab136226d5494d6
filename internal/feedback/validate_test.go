package feedback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	fb, err := Validate(sampleFeedbackMap())
	require.NoError(t, err)
	assert.Equal(t, 82.0, fb.TotalScore)
	require.Len(t, fb.CategoryScores, 5)
	assert.Equal(t, "Communication Skills", fb.CategoryScores[0].Name)
	assert.Equal(t, []string{"clear communication", "relevant experience"}, fb.Strengths)
	assert.Equal(t, "Solid candidate.", fb.FinalAssessment)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(m map[string]any)
		wantField string
	}{
		{
			name:      "missing strengths",
			mutate:    func(m map[string]any) { delete(m, "strengths") },
			wantField: "strengths",
		},
		{
			name:      "one strength",
			mutate:    func(m map[string]any) { m["strengths"] = []any{"only one"} },
			wantField: "strengths",
		},
		{
			name:      "empty strengths",
			mutate:    func(m map[string]any) { m["strengths"] = []any{} },
			wantField: "strengths",
		},
		{
			name:      "strengths not text",
			mutate:    func(m map[string]any) { m["strengths"] = []any{1.0, 2.0} },
			wantField: "strengths.0",
		},
		{
			name:      "one improvement area",
			mutate:    func(m map[string]any) { m["areasForImprovement"] = []any{"x"} },
			wantField: "areasForImprovement",
		},
		{
			name:      "total score as text",
			mutate:    func(m map[string]any) { m["totalScore"] = "82" },
			wantField: "totalScore",
		},
		{
			name:      "category scores not an array",
			mutate:    func(m map[string]any) { m["categoryScores"] = "not an array" },
			wantField: "categoryScores",
		},
		{
			name: "category missing comment",
			mutate: func(m map[string]any) {
				m["categoryScores"] = []any{map[string]any{"name": "Problem Solving", "score": 70.0}}
			},
			wantField: "categoryScores.0.comment",
		},
		{
			name:      "missing final assessment",
			mutate:    func(m map[string]any) { delete(m, "finalAssessment") },
			wantField: "finalAssessment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleFeedbackMap()
			tt.mutate(m)

			_, err := Validate(m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaViolation))

			var sv *SchemaViolationError
			require.ErrorAs(t, err, &sv)
			assert.Equal(t, tt.wantField, sv.Field)
		})
	}
}

func TestValidate_ReportsFirstFieldInOrder(t *testing.T) {
	m := sampleFeedbackMap()
	delete(m, "finalAssessment")
	delete(m, "strengths")
	m["totalScore"] = "high"

	_, err := Validate(m)
	var sv *SchemaViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, "totalScore", sv.Field)
}

func TestValidate_NotAnObject(t *testing.T) {
	_, err := Validate([]any{"a", "b"})
	var sv *SchemaViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, "(root)", sv.Field)
}

func TestParseAndValidate_ProseIsRejected(t *testing.T) {
	raw := "Here is the feedback: " + sampleFeedbackJSON()

	_, err := ParseAndValidate(raw)
	var sv *SchemaViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, raw, sv.Raw)
	assert.Contains(t, sv.Message, "not valid JSON")
}

func TestFieldRank(t *testing.T) {
	assert.Equal(t, -1, fieldRank("(root)"))
	assert.Equal(t, 0, fieldRank("totalScore"))
	assert.Equal(t, 1, fieldRank("categoryScores.3.name"))
	assert.Equal(t, len(fieldOrder), fieldRank("extra"))
}
