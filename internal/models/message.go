package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one directed unit of text from sender to receiver inside a
// conversation. The log is append-only; the only mutation after creation is
// the read transition.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	SenderID       uuid.UUID  `json:"senderId"`
	ReceiverID     uuid.UUID  `json:"receiverId"`
	Content        string     `json:"content"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`

	// Display fields populated from the user records when a message is
	// returned to a client, never persisted with the message itself.
	SenderName     string `json:"senderName,omitempty"`
	SenderAvatar   string `json:"senderAvatar,omitempty"`
	ReceiverName   string `json:"receiverName,omitempty"`
	ReceiverAvatar string `json:"receiverAvatar,omitempty"`
}
