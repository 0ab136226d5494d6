// Package call tracks live voice-call sessions and turns their transcript
// into a feedback request when the call ends.
package call

import (
	"sort"
	"sync"

	"github.com/jonathan/mock-interview/internal/types"
)

// EventKind identifies a call-provider event
type EventKind string

// Events emitted by the voice provider
const (
	EventCallStart   EventKind = "call-start"
	EventCallEnd     EventKind = "call-end"
	EventSpeechStart EventKind = "speech-start"
	EventSpeechEnd   EventKind = "speech-end"
	EventMessage     EventKind = "message"
	EventError       EventKind = "error"
	// EventStatus is published by the Agent when its status changes
	EventStatus EventKind = "status"
)

// Transcript fragment types
const (
	TranscriptFinal   = "final"
	TranscriptPartial = "partial"
)

// Message is a transcript fragment
type Message struct {
	Role           types.Role `json:"role"`
	Transcript     string     `json:"transcript"`
	TranscriptType string     `json:"transcriptType"`
}

// Final reports whether the provider marked the fragment complete
func (m Message) Final() bool {
	return m.TranscriptType == TranscriptFinal
}

// Event is one provider or agent event
type Event struct {
	Kind    EventKind `json:"type"`
	Message *Message  `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
	Status  Status    `json:"status,omitempty"`
}

// Handler receives events of the kind it subscribed to
type Handler func(Event)

// Session fans provider events out to subscribers.
// Events are delivered one at a time in the order they were published.
type Session struct {
	mu       sync.Mutex
	handlers map[EventKind]map[uint64]Handler
	nextID   uint64

	dispatchMu sync.Mutex
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{handlers: make(map[EventKind]map[uint64]Handler)}
}

// Subscribe registers h for events of the given kind
func (s *Session) Subscribe(kind EventKind, h Handler) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.handlers[kind] == nil {
		s.handlers[kind] = make(map[uint64]Handler)
	}
	s.handlers[kind][id] = h

	return &Subscription{release: func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers[kind], id)
	}}
}

// HandlerCount returns the number of live subscriptions for a kind
func (s *Session) HandlerCount(kind EventKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers[kind])
}

// Publish delivers ev to the current subscribers of its kind, in subscription order.
// Handlers may subscribe or unsubscribe while being called; changes apply to the next event.
func (s *Session) Publish(ev Event) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	for _, h := range s.snapshot(ev.Kind) {
		h(ev)
	}
}

func (s *Session) snapshot(kind EventKind) []Handler {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint64, 0, len(s.handlers[kind]))
	for id := range s.handlers[kind] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Handler, len(ids))
	for i, id := range ids {
		out[i] = s.handlers[kind][id]
	}
	return out
}

// Subscription is the token returned by Subscribe
type Subscription struct {
	once    sync.Once
	release func()
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
func (sub *Subscription) Unsubscribe() {
	if sub == nil {
		return
	}
	sub.once.Do(sub.release)
}

// Subscriptions releases a group of subscriptions together
type Subscriptions struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add tracks sub and returns it
func (g *Subscriptions) Add(sub *Subscription) *Subscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs = append(g.subs, sub)
	return sub
}

// Close unsubscribes everything added so far
func (g *Subscriptions) Close() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
