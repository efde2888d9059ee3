package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendDropsDuplicateIDs(t *testing.T) {
	s := NewMessageStore()

	assert.True(t, s.Append(Message{ID: "m1", Sender: "alice", Body: "hi"}))
	assert.False(t, s.Append(Message{ID: "m1", Sender: "alice", Body: "hi again"}))
	assert.True(t, s.Append(Message{ID: "m2", Sender: "bob", Body: "yo"}))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.Equal(t, "m2", msgs[1].ID)
}

func TestAppendPreservesOrder(t *testing.T) {
	s := NewMessageStore()
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		s.Append(Message{ID: id})
	}

	msgs := s.Messages()
	require.Len(t, msgs, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, msgs[i].ID)
	}
}

func TestReactionLastWriteWins(t *testing.T) {
	s := NewMessageStore()
	s.Append(Message{ID: "m1", Sender: "alice", Body: "hi"})

	require.NoError(t, s.ApplyReaction("m1", "❤️"))
	require.NoError(t, s.ApplyReaction("m1", "👍"))

	msg, ok := s.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "👍", msg.Reaction)
}

func TestReactionUnknownMessage(t *testing.T) {
	s := NewMessageStore()

	err := s.ApplyReaction("missing", "👍")
	assert.ErrorIs(t, err, ErrUnknownMessage)
	assert.Zero(t, s.Len(), "a reaction must never append an entry")
}

func TestSeenSetSemantics(t *testing.T) {
	s := NewMessageStore()
	s.Append(Message{ID: "m1", Sender: "alice", Body: "hi"})

	require.NoError(t, s.ApplySeen("m1", "bob"))
	require.NoError(t, s.ApplySeen("m1", "bob"))
	require.NoError(t, s.ApplySeen("m1", "carol"))

	msg, _ := s.Get("m1")
	assert.Equal(t, []string{"bob", "carol"}, msg.SeenBy)
}

func TestSeenUnknownMessage(t *testing.T) {
	s := NewMessageStore()
	assert.ErrorIs(t, s.ApplySeen("missing", "bob"), ErrUnknownMessage)
}

func TestSystemMessagesNeverMutated(t *testing.T) {
	s := NewMessageStore()
	s.Append(Message{ID: "sys1", Body: "bob joined the chat", System: true})

	require.NoError(t, s.ApplyReaction("sys1", "👍"))
	require.NoError(t, s.ApplySeen("sys1", "alice"))

	msg, _ := s.Get("sys1")
	assert.Empty(t, msg.Reaction)
	assert.Empty(t, msg.SeenBy)
}

func TestResetDiscardsLog(t *testing.T) {
	s := NewMessageStore()
	s.Append(Message{ID: "m1"})
	s.Reset()

	assert.Zero(t, s.Len())
	assert.True(t, s.Append(Message{ID: "m1"}), "ids from before the reset are free again")
}
