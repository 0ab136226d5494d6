// Package feedback turns an interview transcript into a validated, persisted assessment.
package feedback

import (
	"fmt"
	"strings"

	"github.com/jonathan/mock-interview/internal/prompts"
	"github.com/jonathan/mock-interview/internal/types"
)

// CategoryNames are the fixed evaluation categories, in display order
var CategoryNames = []string{
	"Communication Skills",
	"Technical Knowledge",
	"Problem Solving",
	"Cultural & Role Fit",
	"Confidence & Clarity",
}

// PromptOptions configures prompt construction
type PromptOptions struct {
	// AllowEmpty lets an empty transcript through instead of rejecting it
	AllowEmpty bool
}

// FormatTranscript renders one "- role: content" line per entry, in order
func FormatTranscript(entries []types.TranscriptEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s: %s\n", e.Role, e.Content)
	}
	return sb.String()
}

// BuildPrompt embeds the transcript in the evaluation template
func BuildPrompt(entries []types.TranscriptEntry, opts PromptOptions) (string, error) {
	if len(entries) == 0 && !opts.AllowEmpty {
		return "", &MissingInputError{Field: "transcript"}
	}

	template, err := prompts.Get(prompts.FeedbackFile, "evaluate")
	if err != nil {
		return "", fmt.Errorf("failed to load evaluation prompt: %w", err)
	}

	var categories strings.Builder
	for _, name := range CategoryNames {
		fmt.Fprintf(&categories, "  - %s\n", name)
	}

	return prompts.Format(template, map[string]string{
		"Transcript": FormatTranscript(entries),
		"Categories": strings.TrimRight(categories.String(), "\n"),
	}), nil
}

// SystemInstruction returns the interviewer persona used for structured generation
func SystemInstruction() string {
	return prompts.MustGet(prompts.FeedbackFile, "system")
}
