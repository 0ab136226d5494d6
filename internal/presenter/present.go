// Package presenter renders stored feedback, substituting defaults for any
// field that is absent or malformed.
package presenter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/mock-interview/internal/types"
)

// Display defaults
const (
	NotAvailable          = "N/A"
	NoCategoryScores      = "No category scores available."
	NoStrengths           = "No strengths provided."
	NoImprovementAreas    = "No improvement areas provided."
	NoFinalAssessment     = "No final assessment available."
	UnnamedCategory       = "Unnamed Category"
	NoComment             = "No comment provided."
	DateLayout            = "Jan 2, 2006 3:04 PM"
	defaultInterviewTitle = "Feedback on the Interview"
)

// CategoryView is one rendered category row
type CategoryView struct {
	Name    string `json:"name"`
	Score   string `json:"score"`
	Comment string `json:"comment"`
}

// View is a feedback record ready for display. Every field is populated.
// The *Message fields are set only when the matching list is empty.
type View struct {
	Title               string         `json:"title"`
	FeedbackID          string         `json:"feedbackId,omitempty"`
	Found               bool           `json:"found"`
	TotalScore          string         `json:"totalScore"`
	CreatedAt           string         `json:"createdAt"`
	CategoryScores      []CategoryView `json:"categoryScores"`
	CategoriesMessage   string         `json:"categoriesMessage,omitempty"`
	Strengths           []string       `json:"strengths"`
	StrengthsMessage    string         `json:"strengthsMessage,omitempty"`
	AreasForImprovement []string       `json:"areasForImprovement"`
	ImprovementsMessage string         `json:"improvementsMessage,omitempty"`
	FinalAssessment     string         `json:"finalAssessment"`
}

// Present builds the view of a stored document. A nil document yields the
// all-defaults view.
func Present(doc *types.FeedbackDocument) View {
	var fields map[string]any
	v := View{Title: defaultInterviewTitle}
	if doc != nil {
		fields = doc.Fields
		v.FeedbackID = doc.ID
		v.Found = true
	}

	v.TotalScore = formatNumber(fields["totalScore"])
	v.CreatedAt = formatDate(fields["createdAt"])

	v.CategoryScores = []CategoryView{}
	for _, item := range asList(fields["categoryScores"]) {
		v.CategoryScores = append(v.CategoryScores, presentCategory(item))
	}
	if len(v.CategoryScores) == 0 {
		v.CategoriesMessage = NoCategoryScores
	}

	v.Strengths = asStrings(fields["strengths"])
	if len(v.Strengths) == 0 {
		v.StrengthsMessage = NoStrengths
	}

	v.AreasForImprovement = asStrings(fields["areasForImprovement"])
	if len(v.AreasForImprovement) == 0 {
		v.ImprovementsMessage = NoImprovementAreas
	}

	v.FinalAssessment = NoFinalAssessment
	if s, ok := fields["finalAssessment"].(string); ok && strings.TrimSpace(s) != "" {
		v.FinalAssessment = s
	}
	return v
}

// WithInterview sets the page title from the interview role
func (v View) WithInterview(iv *types.Interview) View {
	if iv != nil && strings.TrimSpace(iv.Role) != "" {
		v.Title = fmt.Sprintf("%s - %s Interview", defaultInterviewTitle, iv.Role)
	}
	return v
}

func presentCategory(item any) CategoryView {
	c := CategoryView{Name: UnnamedCategory, Score: NotAvailable, Comment: NoComment}
	m, ok := item.(map[string]any)
	if !ok {
		return c
	}
	if s, ok := m["name"].(string); ok && strings.TrimSpace(s) != "" {
		c.Name = s
	}
	c.Score = formatNumber(m["score"])
	if s, ok := m["comment"].(string); ok && strings.TrimSpace(s) != "" {
		c.Comment = s
	}
	return c
}

// asList returns the elements of a JSON array, or nil for anything else
func asList(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []map[string]any:
		out := make([]any, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

// asStrings keeps the non-blank text elements of a JSON array
func asStrings(v any) []string {
	out := []string{}
	switch list := v.(type) {
	case []string:
		for _, s := range list {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func formatNumber(v any) string {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return NotAvailable
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return NotAvailable
		}
		f = parsed
	default:
		return NotAvailable
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NotAvailable
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDate(v any) string {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, d)
		if err != nil {
			return NotAvailable
		}
		t = parsed
	default:
		return NotAvailable
	}
	if t.IsZero() {
		return NotAvailable
	}
	return t.UTC().Format(DateLayout)
}
