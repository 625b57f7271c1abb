package database

import (
	"context"
	"time"

	"campus-collab/internal/models"

	"github.com/google/uuid"
)

// Store defines the common interface for database operations. The MongoDB
// implementation is the production backend; MemoryStore backs the tests.
type Store interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserActivity(ctx context.Context, id uuid.UUID) error

	// Conversation methods. All counter and preview updates must be
	// single-document operations so concurrent sends and fetches on the
	// same conversation cannot lose increments or resets.
	FindOrCreateConversation(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	GetConversationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error)
	RecordMessageSent(ctx context.Context, convID, msgID, receiverID uuid.UUID, at time.Time) error
	ResetUnread(ctx context.Context, convID, userID uuid.UUID) error
	DecrementUnread(ctx context.Context, convID, userID uuid.UUID) error
	SetLastMessage(ctx context.Context, convID uuid.UUID, msgID *uuid.UUID, at time.Time) error

	// Message methods
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	GetMessagesByConversation(ctx context.Context, convID uuid.UUID) ([]*models.Message, error)
	GetLatestMessage(ctx context.Context, convID uuid.UUID) (*models.Message, error)
	MarkMessagesRead(ctx context.Context, convID, receiverID uuid.UUID, at time.Time) (int64, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error

	// Notification methods
	SaveNotification(ctx context.Context, n *models.Notification) error
	GetNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID uuid.UUID) error
}
