package presenter

import (
	"bufio"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"sync"
)

//go:embed feedback.html.tmpl
var pageSource string

var (
	pageOnce sync.Once
	page     *template.Template
	pageErr  error
)

func pageTemplate() (*template.Template, error) {
	pageOnce.Do(func() {
		page, pageErr = template.New("feedback").Parse(pageSource)
		if pageErr != nil {
			pageErr = &TemplateError{Message: "failed to parse feedback page", Cause: pageErr}
		}
	})
	return page, pageErr
}

// RenderHTML writes the feedback page. Values are HTML-escaped.
func RenderHTML(w io.Writer, v View) error {
	tmpl, err := pageTemplate()
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, v); err != nil {
		return &TemplateError{Message: "failed to execute feedback page", Cause: err}
	}
	return nil
}

// RenderText writes a plain-text rendition for terminals
func RenderText(w io.Writer, v View) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n\n", v.Title)
	fmt.Fprintf(bw, "Overall Impression: %s/100\n", v.TotalScore)
	fmt.Fprintf(bw, "Date: %s\n\n", v.CreatedAt)
	fmt.Fprintf(bw, "%s\n\n", v.FinalAssessment)

	fmt.Fprintln(bw, "Breakdown of the Interview:")
	if len(v.CategoryScores) == 0 {
		fmt.Fprintf(bw, "  %s\n", v.CategoriesMessage)
	}
	for i, c := range v.CategoryScores {
		fmt.Fprintf(bw, "  %d. %s (%s/100)\n     %s\n", i+1, c.Name, c.Score, c.Comment)
	}

	fmt.Fprintln(bw, "\nStrengths:")
	writeList(bw, v.Strengths, v.StrengthsMessage)

	fmt.Fprintln(bw, "\nAreas for Improvement:")
	writeList(bw, v.AreasForImprovement, v.ImprovementsMessage)

	return bw.Flush()
}

func writeList(w io.Writer, items []string, empty string) {
	if len(items) == 0 {
		fmt.Fprintf(w, "  %s\n", empty)
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  • %s\n", item)
	}
}
