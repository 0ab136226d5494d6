package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/presenter"
	"github.com/jonathan/mock-interview/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Render stored feedback for an interview attempt",
	Long:  "Render the newest stored feedback for an interview and user. Missing fields show their defaults.",
	RunE:  runShow,
}

var (
	showInterviewID string
	showUserID      string
	showHTML        bool
)

func init() {
	showCmd.Flags().StringVar(&showInterviewID, "interview-id", "", "Interview ID (required)")
	showCmd.Flags().StringVar(&showUserID, "user-id", "", "User ID (required)")
	showCmd.Flags().BoolVar(&showHTML, "html", false, "Write the HTML page instead of text")

	_ = showCmd.MarkFlagRequired("interview-id")
	_ = showCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := store.Open(ctx, storeOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	defer backend.Close()

	return show(ctx, backend, os.Stdout, showInterviewID, showUserID, showHTML)
}

// show renders the feedback view of one interview attempt to w
func show(ctx context.Context, repo feedback.Repository, w io.Writer, interviewID, userID string, html bool) error {
	doc, err := repo.FindByInterviewAndUser(ctx, interviewID, userID)
	if err != nil {
		return fmt.Errorf("failed to load feedback: %w", err)
	}
	iv, err := repo.GetInterview(ctx, interviewID)
	if err != nil {
		return fmt.Errorf("failed to load interview: %w", err)
	}

	view := presenter.Present(doc).WithInterview(iv)
	if html {
		return presenter.RenderHTML(w, view)
	}
	return presenter.RenderText(w, view)
}
