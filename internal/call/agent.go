package call

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/mock-interview/internal/types"
)

// Status is the lifecycle state of a call
type Status string

// Call statuses
const (
	StatusInactive   Status = "INACTIVE"
	StatusConnecting Status = "CONNECTING"
	StatusActive     Status = "ACTIVE"
	StatusFinished   Status = "FINISHED"
)

// FeedbackCreator scores a transcript and stores the result
type FeedbackCreator interface {
	Create(ctx context.Context, req *types.CreateFeedbackRequest) (string, error)
}

// Result is the outcome of the single feedback attempt of a call
type Result struct {
	FeedbackID string
	// Redirect is the feedback page to navigate to; empty on failure
	Redirect string
	Err      error
	// Skipped is set when the call ended without any transcript
	Skipped bool
}

// AgentConfig configures an Agent
type AgentConfig struct {
	CallID      string
	InterviewID string
	UserID      string
	FeedbackID  string
	Creator     FeedbackCreator
	Logger      *slog.Logger
	// Context is the parent of the feedback attempt; defaults to context.Background
	Context context.Context
}

// Agent drives one interview call from start to feedback
type Agent struct {
	cfg       AgentConfig
	events    *Session
	updates   *Session
	acc       *Accumulator
	subs      Subscriptions
	startedAt time.Time

	mu        sync.Mutex
	status    Status
	lastError string
	result    *Result

	finishOnce sync.Once
	done       chan struct{}
}

// NewAgent creates an inactive agent listening to its own session
func NewAgent(cfg AgentConfig) *Agent {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	cfg.Logger = cfg.Logger.With(slog.String("call_id", cfg.CallID), slog.String("interview_id", cfg.InterviewID))

	a := &Agent{
		cfg:       cfg,
		events:    NewSession(),
		updates:   NewSession(),
		acc:       NewAccumulator(),
		status:    StatusInactive,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	a.subs.Add(a.acc.Attach(a.events))
	a.subs.Add(a.events.Subscribe(EventCallStart, func(Event) { a.setStatus(StatusActive) }))
	a.subs.Add(a.events.Subscribe(EventCallEnd, func(Event) { a.finish() }))
	a.subs.Add(a.events.Subscribe(EventError, func(ev Event) {
		a.mu.Lock()
		a.lastError = ev.Error
		a.mu.Unlock()
		a.cfg.Logger.Warn("call provider error", slog.String("error", ev.Error))
	}))
	return a
}

// ID returns the call identifier
func (a *Agent) ID() string { return a.cfg.CallID }

// Start marks the call as connecting
func (a *Agent) Start() {
	a.mu.Lock()
	if a.status != StatusInactive {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	a.setStatus(StatusConnecting)
}

// Publish feeds a provider event to the agent
func (a *Agent) Publish(ev Event) {
	a.events.Publish(ev)
}

// Disconnect ends the call from the user's side. It behaves like call-end.
func (a *Agent) Disconnect() {
	a.finish()
}

// Watch subscribes h to status changes
func (a *Agent) Watch(h Handler) *Subscription {
	return a.updates.Subscribe(EventStatus, h)
}

// Done is closed when the feedback attempt has completed or was skipped
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

// Result returns the feedback outcome once Done is closed
func (a *Agent) Result() (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.result == nil {
		return Result{}, false
	}
	return *a.result, true
}

// Status returns the current lifecycle state
func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Transcript returns a copy of the finalized transcript so far
func (a *Agent) Transcript() []types.TranscriptEntry {
	return a.acc.Entries()
}

// Snapshot is the JSON view of a call
type Snapshot struct {
	CallID      string    `json:"callId"`
	InterviewID string    `json:"interviewId"`
	UserID      string    `json:"userId"`
	Status      Status    `json:"status"`
	Messages    int       `json:"messages"`
	StartedAt   time.Time `json:"startedAt"`
	LastError   string    `json:"lastError,omitempty"`
	Completed   bool      `json:"completed"`
	FeedbackID  string    `json:"feedbackId,omitempty"`
	Redirect    string    `json:"redirect,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Snapshot returns the current state of the call
func (a *Agent) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{
		CallID:      a.cfg.CallID,
		InterviewID: a.cfg.InterviewID,
		UserID:      a.cfg.UserID,
		Status:      a.status,
		Messages:    a.acc.Len(),
		StartedAt:   a.startedAt,
		LastError:   a.lastError,
	}
	if a.result != nil {
		s.Completed = true
		s.FeedbackID = a.result.FeedbackID
		s.Redirect = a.result.Redirect
		if a.result.Err != nil {
			s.Error = a.result.Err.Error()
		}
	}
	return s
}

func (a *Agent) setStatus(st Status) {
	a.mu.Lock()
	if a.status == st || a.status == StatusFinished {
		a.mu.Unlock()
		return
	}
	a.status = st
	a.mu.Unlock()

	a.cfg.Logger.Debug("call status changed", slog.String("status", string(st)))
	a.updates.Publish(Event{Kind: EventStatus, Status: st})
}

// finish runs at most once: it freezes the transcript, drops the provider
// subscriptions and starts the feedback attempt when there is anything to score.
func (a *Agent) finish() {
	a.finishOnce.Do(func() {
		a.acc.Seal()
		a.subs.Close()
		a.setStatus(StatusFinished)

		entries := a.acc.Entries()
		if len(entries) == 0 {
			a.cfg.Logger.Info("call ended without transcript; skipping feedback")
			a.complete(Result{Skipped: true})
			return
		}
		go a.generate(entries)
	})
}

func (a *Agent) generate(entries []types.TranscriptEntry) {
	req := &types.CreateFeedbackRequest{
		InterviewID: a.cfg.InterviewID,
		UserID:      a.cfg.UserID,
		Transcript:  entries,
		FeedbackID:  a.cfg.FeedbackID,
	}

	if a.cfg.Creator == nil {
		a.complete(Result{Err: errors.New("no feedback service configured")})
		return
	}

	id, err := a.cfg.Creator.Create(a.cfg.Context, req)
	if err != nil {
		a.cfg.Logger.Error("feedback attempt failed", slog.Any("error", err))
		a.complete(Result{Err: err})
		return
	}

	a.cfg.Logger.Info("feedback attempt succeeded", slog.String("feedback_id", id))
	a.complete(Result{
		FeedbackID: id,
		Redirect:   FeedbackPath(a.cfg.InterviewID),
	})
}

func (a *Agent) complete(r Result) {
	a.mu.Lock()
	a.result = &r
	a.mu.Unlock()
	close(a.done)
	a.updates.Publish(Event{Kind: EventStatus, Status: StatusFinished})
}

// FeedbackPath is the page shown after a successful attempt
func FeedbackPath(interviewID string) string {
	return fmt.Sprintf("/interviews/%s/feedback", interviewID)
}
