package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/observability"
	"github.com/jonathan/mock-interview/internal/store"
	"github.com/jonathan/mock-interview/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Score a transcript file and print the validated feedback",
	Long: `Score a transcript file with the configured language model.
The file holds either a JSON array of {role, content} entries or an object with a "transcript" field.
With --save the feedback is written to the configured store.`,
	RunE: runGenerate,
}

var (
	generateTranscriptFile string
	generateInterviewID    string
	generateUserID         string
	generateFeedbackID     string
	generateOutputFile     string
	generateSave           bool
	generateVerbose        bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateTranscriptFile, "transcript", "t", "", "Path to transcript JSON file (required)")
	generateCmd.Flags().StringVar(&generateInterviewID, "interview-id", "", "Interview ID (required with --save)")
	generateCmd.Flags().StringVar(&generateUserID, "user-id", "", "User ID (required with --save)")
	generateCmd.Flags().StringVar(&generateFeedbackID, "feedback-id", "", "Existing feedback ID to overwrite")
	generateCmd.Flags().StringVarP(&generateOutputFile, "out", "o", "", "Write the feedback JSON to this file instead of stdout")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "Save the feedback to the configured store")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print the transcript and a feedback summary")

	_ = generateCmd.MarkFlagRequired("transcript")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if generateSave && (generateInterviewID == "" || generateUserID == "") {
		return fmt.Errorf("--interview-id and --user-id are required with --save")
	}

	entries, err := readTranscript(generateTranscriptFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	printer := observability.NewPrinter(os.Stderr)
	if generateVerbose {
		printer.PrintTranscript(entries)
	}

	gen, client, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	if !generateSave {
		prompt, err := feedback.BuildPrompt(entries, promptOptions(cfg))
		if err != nil {
			return err
		}
		fb, err := gen.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		if generateVerbose {
			printer.PrintFeedback(fb)
		}
		return writeJSON(fb, generateOutputFile)
	}

	backend, err := store.Open(ctx, storeOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	defer backend.Close()

	svc := feedback.NewService(backend, gen, promptOptions(cfg), logger)
	id, err := svc.Create(ctx, &types.CreateFeedbackRequest{
		InterviewID: generateInterviewID,
		UserID:      generateUserID,
		Transcript:  entries,
		FeedbackID:  generateFeedbackID,
	})
	if err != nil {
		return err
	}
	printer.PrintSaved(id, generateInterviewID)

	doc, err := svc.Find(ctx, generateInterviewID, generateUserID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("saved feedback %s not found", id)
	}
	return writeJSON(doc.Fields, generateOutputFile)
}

// readTranscript loads a transcript from a JSON array or a {"transcript": [...]} object
func readTranscript(path string) ([]types.TranscriptEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}
	return parseTranscript(data)
}

func parseTranscript(data []byte) ([]types.TranscriptEntry, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var entries []types.TranscriptEntry
		if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
			return nil, fmt.Errorf("failed to parse transcript: %w", err)
		}
		return entries, nil
	}

	var wrapped struct {
		Transcript []types.TranscriptEntry `json:"transcript"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	if wrapped.Transcript == nil {
		return nil, &feedback.MissingInputError{Field: "transcript"}
	}
	return wrapped.Transcript, nil
}

// writeJSON writes indented JSON to path, or stdout when path is empty
func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
