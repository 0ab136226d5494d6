// Package observability provides logging setup and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/mock-interview/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to max runes, marking the cut
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// PrintTranscript outputs the first lines of a transcript
func (p *Printer) PrintTranscript(entries []types.TranscriptEntry) {
	if len(entries) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d messages\n\n", len(entries)))

	count := min(len(entries), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("%-9s %s\n", string(entries[i].Role)+":", entries[i].Content))
	}
	if len(entries) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more", len(entries)-maxItemsToShow))
	}

	p.printBox("TRANSCRIPT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFeedback outputs a summary of a generated assessment
func (p *Printer) PrintFeedback(fb *types.Feedback) {
	if fb == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total score: %.0f/100\n\n", fb.TotalScore))

	if len(fb.CategoryScores) > 0 {
		sb.WriteString("Categories:\n")
		for _, c := range fb.CategoryScores {
			sb.WriteString(fmt.Sprintf("  %-28s %5.1f\n", c.Name, c.Score))
		}
		sb.WriteString("\n")
	}

	writeItems(&sb, "Strengths", fb.Strengths)
	writeItems(&sb, "Areas for improvement", fb.AreasForImprovement)

	p.printBox("INTERVIEW FEEDBACK", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSaved reports where feedback was stored
func (p *Printer) PrintSaved(feedbackID, interviewID string) {
	p.printBox("FEEDBACK SAVED", fmt.Sprintf("Feedback:  %s\nInterview: %s", feedbackID, interviewID))
}

func writeItems(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(title + ":\n")
	count := min(len(items), 3)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > 3 {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-3))
	}
}
