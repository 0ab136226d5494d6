package call

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/types"
)

// DefaultRetention is how long a finished call stays readable
const DefaultRetention = 10 * time.Minute

// Registry holds the live calls of the process
type Registry struct {
	mu        sync.RWMutex
	agents    map[string]*Agent
	creator   FeedbackCreator
	logger    *slog.Logger
	ctx       context.Context
	retention time.Duration
}

// NewRegistry creates a registry whose agents report to creator
func NewRegistry(ctx context.Context, creator FeedbackCreator, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Registry{
		agents:    make(map[string]*Agent),
		creator:   creator,
		logger:    logger,
		ctx:       ctx,
		retention: DefaultRetention,
	}
}

// SetRetention changes how long finished calls are kept. It applies to calls
// opened afterwards.
func (r *Registry) SetRetention(d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.mu.Lock()
	r.retention = d
	r.mu.Unlock()
}

// Open starts a call for an interview attempt
func (r *Registry) Open(req *types.StartCallRequest) (*Agent, error) {
	if err := req.Validate(); err != nil {
		return nil, &feedback.MissingInputError{Field: types.FirstInvalidField(err)}
	}

	agent := NewAgent(AgentConfig{
		CallID:      uuid.NewString(),
		InterviewID: req.InterviewID,
		UserID:      req.UserID,
		FeedbackID:  req.FeedbackID,
		Creator:     r.creator,
		Logger:      r.logger,
		Context:     r.ctx,
	})
	agent.Start()

	r.mu.Lock()
	r.agents[agent.ID()] = agent
	retention := r.retention
	r.mu.Unlock()
	go r.expire(agent, retention)

	r.logger.Info("call opened",
		slog.String("call_id", agent.ID()),
		slog.String("interview_id", req.InterviewID),
	)
	return agent, nil
}

// Get returns a call by id, or nil
func (r *Registry) Get(callID string) *Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[callID]
}

// expire forgets the agent once its feedback attempt is done and the
// retention window has passed
func (r *Registry) expire(agent *Agent, retention time.Duration) {
	select {
	case <-agent.Done():
	case <-r.ctx.Done():
		return
	}

	timer := time.NewTimer(retention)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-r.ctx.Done():
		return
	}

	r.Forget(agent.ID())
	r.logger.Debug("call expired", slog.String("call_id", agent.ID()))
}

// Forget drops a call from the registry. It does not end the call.
func (r *Registry) Forget(callID string) {
	r.mu.Lock()
	delete(r.agents, callID)
	r.mu.Unlock()
}

// Len returns the number of tracked calls
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
