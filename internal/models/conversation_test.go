package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSortedParticipantsCanonical(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.Equal(t, SortedParticipants(a, b), SortedParticipants(b, a))

	pair := SortedParticipants(a, b)
	assert.True(t, pair[0] < pair[1])
}

func TestConversationKeySymmetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.Equal(t, ConversationKey(a, b), ConversationKey(b, a))
}

func TestConversationKeyDistinctPerPair(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	// Pairs sharing a participant must still key to distinct values, so one
	// user can hold many conversations under the unique index.
	assert.NotEqual(t, ConversationKey(a, b), ConversationKey(a, c))
	assert.NotEqual(t, ConversationKey(a, b), ConversationKey(b, c))
}

func TestUnreadForDefaultsToZero(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	conv := &Conversation{
		Participants: SortedParticipants(a, b),
		UnreadCount:  map[string]int{a.String(): 2},
	}

	assert.Equal(t, 2, conv.UnreadFor(a))
	assert.Equal(t, 0, conv.UnreadFor(b))
}
