package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() map[string]any {
	return map[string]any{
		"totalScore": 82.0,
		"categoryScores": []any{
			map[string]any{"name": "Communication Skills", "score": 85.0, "comment": "Clear answers"},
		},
		"strengths":           []any{"clear communication", "relevant experience"},
		"areasForImprovement": []any{"limited detail", "no metrics"},
		"finalAssessment":     "Solid candidate.",
	}
}

func fields(err error) []string {
	ve, ok := err.(*ValidationError)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		out = append(out, fe.Field)
	}
	return out
}

func TestLoad_FeedbackSchemaCompiles(t *testing.T) {
	s, err := Load(FeedbackSchema)
	require.NoError(t, err)
	require.NotNil(t, s)

	again, err := Load(FeedbackSchema)
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestLoad_UnknownSchema(t *testing.T) {
	_, err := Load("missing.schema.json")
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateDocument_Valid(t *testing.T) {
	assert.NoError(t, ValidateDocument(FeedbackSchema, validDocument()))
}

func TestValidateDocument_MissingField(t *testing.T) {
	doc := validDocument()
	delete(doc, "strengths")

	err := ValidateDocument(FeedbackSchema, doc)
	require.Error(t, err)
	assert.Contains(t, fields(err), "strengths")

	ve := err.(*ValidationError)
	assert.Equal(t, "required", ve.Errors[0].Type)
}

func TestValidateDocument_TooFewItems(t *testing.T) {
	doc := validDocument()
	doc["areasForImprovement"] = []any{"only one"}

	err := ValidateDocument(FeedbackSchema, doc)
	require.Error(t, err)
	assert.Equal(t, []string{"areasForImprovement"}, fields(err))
}

func TestValidateDocument_NestedMissingProperty(t *testing.T) {
	doc := validDocument()
	doc["categoryScores"] = []any{map[string]any{"score": 50.0, "comment": "ok"}}

	err := ValidateDocument(FeedbackSchema, doc)
	require.Error(t, err)
	assert.Equal(t, []string{"categoryScores.0.name"}, fields(err))
}

func TestValidateDocument_WrongType(t *testing.T) {
	doc := validDocument()
	doc["totalScore"] = "eighty"

	err := ValidateDocument(FeedbackSchema, doc)
	require.Error(t, err)
	assert.Equal(t, []string{"totalScore"}, fields(err))
}

func TestValidateDocument_NotAnObject(t *testing.T) {
	err := ValidateDocument(FeedbackSchema, "just prose")
	require.Error(t, err)
	assert.Equal(t, []string{"(root)"}, fields(err))
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name":"x"}`))

	err := ValidateJSONString(schema, `{}`)
	require.Error(t, err)
	assert.Equal(t, []string{"name"}, fields(err))
	assert.Contains(t, err.Error(), "validation failed")
}

func TestRaw(t *testing.T) {
	data, err := Raw(FeedbackSchema)
	require.NoError(t, err)
	assert.Contains(t, string(data), "areasForImprovement")
}
