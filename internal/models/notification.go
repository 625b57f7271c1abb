package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationMessage marks a notification raised by an incoming message.
const NotificationMessage = "message"

// Notification is an append-only event addressed to a single user. Stored
// in its own collection keyed by recipient rather than embedded in the user
// record, so the feed can grow without bloating the identity document.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Type      string    `json:"type"`
	FromID    uuid.UUID `json:"fromId"`
	Text      string    `json:"text"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
