package call

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mock-interview/internal/types"
)

func finalMsg(role types.Role, text string) *Message {
	return &Message{Role: role, Transcript: text, TranscriptType: TranscriptFinal}
}

func TestAccumulator_KeepsOnlyFinalFragmentsInOrder(t *testing.T) {
	s := NewSession()
	acc := NewAccumulator()
	sub := acc.Attach(s)
	defer sub.Unsubscribe()

	s.Publish(Event{Kind: EventMessage, Message: &Message{Role: types.RoleAssistant, Transcript: "Tell me", TranscriptType: TranscriptPartial}})
	s.Publish(Event{Kind: EventMessage, Message: finalMsg(types.RoleAssistant, "Tell me about yourself")})
	s.Publish(Event{Kind: EventMessage, Message: &Message{Role: types.RoleUser, Transcript: "I am", TranscriptType: TranscriptPartial}})
	s.Publish(Event{Kind: EventMessage, Message: finalMsg(types.RoleUser, "I am a backend engineer")})
	s.Publish(Event{Kind: EventMessage})

	assert.Equal(t, []types.TranscriptEntry{
		{Role: types.RoleAssistant, Content: "Tell me about yourself"},
		{Role: types.RoleUser, Content: "I am a backend engineer"},
	}, acc.Entries())
}

func TestAccumulator_DropsInvalidFragments(t *testing.T) {
	acc := NewAccumulator()

	assert.False(t, acc.Add(Message{Role: "narrator", Transcript: "hi", TranscriptType: TranscriptFinal}))
	assert.False(t, acc.Add(Message{Role: types.RoleUser, Transcript: "   ", TranscriptType: TranscriptFinal}))
	assert.True(t, acc.Add(Message{Role: "USER", Transcript: "hello", TranscriptType: TranscriptFinal}))

	require.Equal(t, 1, acc.Len())
	assert.Equal(t, types.RoleUser, acc.Entries()[0].Role)
}

func TestAccumulator_SealFreezes(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(*finalMsg(types.RoleUser, "one"))
	acc.Seal()

	assert.True(t, acc.Sealed())
	assert.False(t, acc.Add(*finalMsg(types.RoleUser, "two")))
	assert.Equal(t, 1, acc.Len())
}

func TestAccumulator_EntriesIsACopy(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(*finalMsg(types.RoleUser, "original"))

	entries := acc.Entries()
	entries[0].Content = "changed"
	assert.Equal(t, "original", acc.Entries()[0].Content)
}
