package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/jonathan/mock-interview/internal/call"
	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/server/middleware"
	"github.com/jonathan/mock-interview/internal/server/ratelimit"
)

// Options wires the server to its collaborators
type Options struct {
	Addr           string
	AllowedOrigins []string

	Feedback   call.FeedbackCreator
	Repository feedback.Repository
	Calls      *call.Registry

	// Verifier enables bearer tokens; nil disables authentication
	Verifier     *TokenVerifier
	AuthRequired bool
	// WebhookSecret must accompany provider call events when set
	WebhookSecret string

	// RateLimit defaults to ratelimit.DefaultConfig
	RateLimit *ratelimit.Config
	Logger    *slog.Logger
}

// Server is the HTTP API server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	feedback    call.FeedbackCreator
	repo        feedback.Repository
	calls       *call.Registry
	rateLimiter *ratelimit.Limiter
	auth        func(http.Handler) http.Handler
	webhookKey  []byte
	origins     []string
	logger      *slog.Logger
}

// New creates a server and registers its routes
func New(opts Options) (*Server, error) {
	if opts.Feedback == nil || opts.Repository == nil || opts.Calls == nil {
		return nil, fmt.Errorf("server requires feedback, repository and calls")
	}
	if opts.AuthRequired && opts.Verifier == nil {
		return nil, fmt.Errorf("auth is required but no token verifier is configured")
	}
	if opts.AuthRequired && opts.WebhookSecret == "" {
		return nil, fmt.Errorf("auth is required but no call webhook secret is configured")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	s := &Server{
		feedback:    opts.Feedback,
		repo:        opts.Repository,
		calls:       opts.Calls,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		webhookKey:  []byte(opts.WebhookSecret),
		origins:     opts.AllowedOrigins,
		logger:      opts.Logger,
		auth:        func(next http.Handler) http.Handler { return next },
	}
	switch {
	case opts.Verifier != nil && opts.AuthRequired:
		s.auth = middleware.AuthMiddleware(opts.Verifier)
	case opts.Verifier != nil:
		s.auth = middleware.OptionalAuthMiddleware(opts.Verifier)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("POST /api/feedback", s.protect(s.handleCreateFeedback))
	mux.Handle("GET /api/interviews/{id}/feedback", s.protect(s.handleGetFeedback))
	mux.Handle("GET /interviews/{id}/feedback", s.protect(s.handleFeedbackPage))

	mux.Handle("GET /api/interviews/latest", s.protect(s.handleLatestInterviews))
	mux.Handle("GET /api/interviews/{id}", s.protect(s.handleGetInterview))
	mux.Handle("GET /api/users/{id}/interviews", s.protect(s.handleListUserInterviews))

	mux.Handle("POST /api/calls", s.protect(s.handleOpenCall))
	mux.Handle("GET /api/calls/{callId}", s.protect(s.handleGetCall))
	mux.Handle("GET /api/calls/{callId}/stream", s.protect(s.handleCallStream))
	mux.Handle("POST /api/calls/{callId}/disconnect", s.protect(s.handleDisconnectCall))
	// the voice provider authenticates with the webhook secret, not a user token
	mux.HandleFunc("POST /api/calls/{callId}/events", s.handleCallEvent)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// generation is bounded by its own timeout; streams are long-lived
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// Close releases background resources without serving
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// protect applies the configured authentication
func (s *Server) protect(h http.HandlerFunc) http.Handler {
	return s.auth(h)
}

// checkUser rejects requests where an authenticated caller acts for another user
func (s *Server) checkUser(ctx context.Context, userID string) error {
	authed, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil
	}
	if userID != "" && authed != userID {
		return &ErrForbidden{}
	}
	return nil
}

// withCORS allows the configured origins; an empty list allows any origin
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.origins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Flush keeps event streams working behind the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote", r.RemoteAddr),
		)
	})
}

// withRateLimit applies per-client limits before any other work
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the remote IP. Forwarded headers are not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"success": false,
		"error":   "rate limit exceeded",
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retryAfter"] = secs
		w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	}

	s.logger.Warn("rate limit exceeded",
		slog.String("client", extractClientID(r)),
		slog.String("path", r.URL.Path),
		slog.Int("limit", info.Limit),
	)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"calls":  s.calls.Len(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// errorResponse writes the {success:false, error} envelope
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"success": false, "error": message})
}

// failure maps err to a status and writes its public message
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	s.errorResponse(w, status, publicMessage(err))
}

// decodeJSON reads a JSON body, rejecting unknown trailing data
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	if dec.More() {
		return &ErrValidation{Field: "body", Message: "unexpected data after JSON object"}
	}
	return nil
}

// maxBodyBytes bounds request bodies; transcripts of long calls fit comfortably
const maxBodyBytes = 2 << 20

// queryParam returns a trimmed query value
func queryParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
