package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the durable association between exactly two users. It
// carries the denormalized preview of the latest message and a per-user
// unread counter keyed by participant ID.
type Conversation struct {
	ID            uuid.UUID      `json:"id"`
	Participants  [2]string      `json:"participants"` // Always sorted, always 2
	LastMessageID *uuid.UUID     `json:"lastMessageId,omitempty"`
	LastMessageAt time.Time      `json:"lastMessageAt"`
	UnreadCount   map[string]int `json:"unreadCount"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// SortedParticipants maps an unordered pair of user IDs onto its canonical
// ordering, so lookups are independent of which side initiated the
// conversation.
func SortedParticipants(a, b uuid.UUID) [2]string {
	s1, s2 := a.String(), b.String()
	if s2 < s1 {
		s1, s2 = s2, s1
	}
	return [2]string{s1, s2}
}

// ConversationKey joins the sorted pair into a single scalar. The storage
// layer's uniqueness constraint hangs off this value: a unique index over
// the participants array itself would be multikey and enforce uniqueness
// per element, capping every user at one conversation.
func ConversationKey(a, b uuid.UUID) string {
	pair := SortedParticipants(a, b)
	return pair[0] + "|" + pair[1]
}

// UnreadFor returns the unread entry for a participant, defaulting missing
// entries to zero.
func (c *Conversation) UnreadFor(userID uuid.UUID) int {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[userID.String()]
}

// OtherParticipant returns the participant that is not the given user.
func (c *Conversation) OtherParticipant(userID uuid.UUID) (uuid.UUID, error) {
	id := userID.String()
	other := c.Participants[0]
	if other == id {
		other = c.Participants[1]
	}
	return uuid.Parse(other)
}

// HasParticipant reports whether the user belongs to this conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	id := userID.String()
	return c.Participants[0] == id || c.Participants[1] == id
}
