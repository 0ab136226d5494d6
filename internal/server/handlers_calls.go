package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/mock-interview/internal/call"
	"github.com/jonathan/mock-interview/internal/types"
)

// ---------------------------------------------------------------------
// Call Handlers
// ---------------------------------------------------------------------

// WebhookSecretHeader carries the shared secret on provider call events
const WebhookSecretHeader = "X-Webhook-Secret"

// streamKeepAlive is the interval of comment lines on idle streams
var streamKeepAlive = 15 * time.Second

// CallEventRequest is a voice provider webhook payload
type CallEventRequest struct {
	Type           string `json:"type"`
	Role           string `json:"role,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	TranscriptType string `json:"transcriptType,omitempty"`
	Error          string `json:"error,omitempty"`
}

// toEvent converts the payload into a call event
func (req CallEventRequest) toEvent() (call.Event, error) {
	kind := call.EventKind(strings.TrimSpace(req.Type))
	switch kind {
	case call.EventCallStart, call.EventCallEnd, call.EventSpeechStart, call.EventSpeechEnd:
		return call.Event{Kind: kind}, nil
	case call.EventError:
		return call.Event{Kind: kind, Error: req.Error}, nil
	case call.EventMessage:
		role, _ := types.ParseRole(req.Role)
		return call.Event{Kind: kind, Message: &call.Message{
			Role:           role,
			Transcript:     req.Transcript,
			TranscriptType: req.TranscriptType,
		}}, nil
	}
	return call.Event{}, &ErrValidation{Field: "type", Message: "unknown event type"}
}

// agent resolves the call in the path or writes 404
func (s *Server) agent(w http.ResponseWriter, r *http.Request) (*call.Agent, bool) {
	id := r.PathValue("callId")
	agent := s.calls.Get(id)
	if agent == nil {
		s.failure(w, r, &ErrNotFound{Resource: "call", ID: id})
		return nil, false
	}
	return agent, true
}

func (s *Server) handleOpenCall(w http.ResponseWriter, r *http.Request) {
	var req types.StartCallRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := s.checkUser(r.Context(), req.UserID); err != nil {
		s.failure(w, r, err)
		return
	}

	agent, err := s.calls.Open(&req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, agent.Snapshot())
}

// webhookAuthorized reports whether r carries the configured provider secret
func (s *Server) webhookAuthorized(r *http.Request) bool {
	if len(s.webhookKey) == 0 {
		return true
	}
	got := []byte(r.Header.Get(WebhookSecretHeader))
	return subtle.ConstantTimeCompare(got, s.webhookKey) == 1
}

func (s *Server) handleCallEvent(w http.ResponseWriter, r *http.Request) {
	if !s.webhookAuthorized(r) {
		s.logger.Warn("call event rejected",
			slog.String("call_id", r.PathValue("callId")),
			slog.String("client", extractClientID(r)),
		)
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	agent, ok := s.agent(w, r)
	if !ok {
		return
	}

	var req CallEventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		s.failure(w, r, err)
		return
	}

	agent.Publish(ev)
	s.jsonResponse(w, http.StatusAccepted, map[string]any{
		"accepted": true,
		"status":   agent.Status(),
	})
}

func (s *Server) handleDisconnectCall(w http.ResponseWriter, r *http.Request) {
	agent, ok := s.agent(w, r)
	if !ok {
		return
	}
	if err := s.checkUser(r.Context(), agent.Snapshot().UserID); err != nil {
		s.failure(w, r, err)
		return
	}

	agent.Disconnect()
	s.jsonResponse(w, http.StatusAccepted, agent.Snapshot())
}

func (s *Server) handleGetCall(w http.ResponseWriter, r *http.Request) {
	agent, ok := s.agent(w, r)
	if !ok {
		return
	}
	snap := agent.Snapshot()
	if err := s.checkUser(r.Context(), snap.UserID); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, snap)
}

// handleCallStream sends status changes until the feedback attempt completes
func (s *Server) handleCallStream(w http.ResponseWriter, r *http.Request) {
	agent, ok := s.agent(w, r)
	if !ok {
		return
	}
	if err := s.checkUser(r.Context(), agent.Snapshot().UserID); err != nil {
		s.failure(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	updates := make(chan call.Event, 8)
	sub := agent.Watch(func(ev call.Event) {
		select {
		case updates <- ev:
		default:
			// the client will see the latest state in the snapshot
		}
	})
	defer sub.Unsubscribe()

	if err := sse.WriteEvent("snapshot", agent.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-updates:
			if err := sse.WriteEvent("status", ev); err != nil {
				s.logger.Debug("call stream closed", slog.String("error", err.Error()))
				return
			}
		case <-agent.Done():
			drainUpdates(sse, updates)
			sse.WriteEvent("complete", agent.Snapshot()) //nolint:errcheck
			return
		case <-ticker.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		}
	}
}

// drainUpdates forwards status changes queued before completion
func drainUpdates(sse *SSEWriter, updates <-chan call.Event) {
	for {
		select {
		case ev := <-updates:
			if err := sse.WriteEvent("status", ev); err != nil {
				return
			}
		default:
			return
		}
	}
}
