package call

import (
	"strings"
	"sync"

	"github.com/jonathan/mock-interview/internal/types"
)

// Accumulator collects the finalized utterances of a call in arrival order
type Accumulator struct {
	mu      sync.Mutex
	entries []types.TranscriptEntry
	sealed  bool
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Attach subscribes the accumulator to message events of a session
func (a *Accumulator) Attach(s *Session) *Subscription {
	return s.Subscribe(EventMessage, func(ev Event) {
		if ev.Message != nil {
			a.Add(*ev.Message)
		}
	})
}

// Add appends a final fragment. Interim fragments, unknown roles, blank text
// and anything arriving after Seal are dropped. It reports whether msg was kept.
func (a *Accumulator) Add(msg Message) bool {
	if !msg.Final() || strings.TrimSpace(msg.Transcript) == "" {
		return false
	}
	role, ok := types.ParseRole(string(msg.Role))
	if !ok {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sealed {
		return false
	}
	a.entries = append(a.entries, types.TranscriptEntry{Role: role, Content: msg.Transcript})
	return true
}

// Seal freezes the transcript
func (a *Accumulator) Seal() {
	a.mu.Lock()
	a.sealed = true
	a.mu.Unlock()
}

// Sealed reports whether Seal has been called
func (a *Accumulator) Sealed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sealed
}

// Len returns the number of entries collected
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Entries returns a copy of the transcript
func (a *Accumulator) Entries() []types.TranscriptEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.TranscriptEntry, len(a.entries))
	copy(out, a.entries)
	return out
}
