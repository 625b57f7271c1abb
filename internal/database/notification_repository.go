package database

import (
	"context"
	"fmt"
	"time"

	"campus-collab/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// NotificationDocument represents the MongoDB document structure for notifications
type NotificationDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Type      string    `bson:"type"`
	FromID    string    `bson:"fromId"`
	Text      string    `bson:"text"`
	IsRead    bool      `bson:"isRead"`
	CreatedAt time.Time `bson:"createdAt"`
}

// SaveNotification appends a notification onto the recipient's feed
func (m *MongoDB) SaveNotification(ctx context.Context, n *models.Notification) error {
	doc := NotificationDocument{
		ID:        n.ID.String(),
		UserID:    n.UserID.String(),
		Type:      n.Type,
		FromID:    n.FromID.String(),
		Text:      n.Text,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}

	_, err := m.Notifications.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save notification: %v", err)
	}
	return nil
}

// GetNotificationsByUser retrieves a user's notifications, newest first
func (m *MongoDB) GetNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	filter := bson.M{"userId": userID.String()}

	cursor, err := m.Notifications.Find(ctx, filter, optionsFindSortedBy("createdAt", -1))
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %v", err)
	}
	defer cursor.Close(ctx)

	var notifications []*models.Notification
	for cursor.Next(ctx) {
		var doc NotificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %v", err)
		}

		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid notification ID in database: %v", err)
		}
		recipientID, err := uuid.Parse(doc.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in database: %v", err)
		}
		fromID, err := uuid.Parse(doc.FromID)
		if err != nil {
			return nil, fmt.Errorf("invalid sender ID in database: %v", err)
		}

		notifications = append(notifications, &models.Notification{
			ID:        id,
			UserID:    recipientID,
			Type:      doc.Type,
			FromID:    fromID,
			Text:      doc.Text,
			IsRead:    doc.IsRead,
			CreatedAt: doc.CreatedAt,
		})
	}

	return notifications, nil
}

// MarkNotificationsRead flips every unread notification for the user
func (m *MongoDB) MarkNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	filter := bson.M{"userId": userID.String(), "isRead": false}
	update := bson.M{"$set": bson.M{"isRead": true}}

	_, err := m.Notifications.UpdateMany(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %v", err)
	}
	return nil
}
