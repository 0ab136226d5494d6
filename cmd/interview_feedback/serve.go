package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/mock-interview/internal/call"
	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/server"
	"github.com/jonathan/mock-interview/internal/server/ratelimit"
	"github.com/jonathan/mock-interview/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that accepts transcripts and call events, and serves stored feedback.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := store.Shared(ctx, storeOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	defer backend.Close()

	gen, client, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	svc := feedback.NewService(backend, gen, promptOptions(cfg), logger)
	calls := call.NewRegistry(context.Background(), svc, logger)
	calls.SetRetention(cfg.Server.CallRetention())

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv, err := server.New(server.Options{
		Addr:           addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Feedback:       svc,
		Repository:     backend,
		Calls:          calls,
		Verifier:       server.NewTokenVerifier(cfg.Auth),
		AuthRequired:   cfg.Auth.Required,
		WebhookSecret:  cfg.Auth.WebhookSecret,
		RateLimit:      ratelimit.LoadConfig(os.LookupEnv),
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
