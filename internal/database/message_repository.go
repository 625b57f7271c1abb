package database

import (
	"context"
	"fmt"
	"time"

	"campus-collab/internal/models"
	"campus-collab/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageDocument represents the MongoDB document structure for messages
type MessageDocument struct {
	ID             string     `bson:"_id"`
	ConversationID string     `bson:"conversationId"`
	SenderID       string     `bson:"senderId"`
	ReceiverID     string     `bson:"receiverId"`
	Content        string     `bson:"content"`
	IsRead         bool       `bson:"isRead"`
	ReadAt         *time.Time `bson:"readAt"`
	CreatedAt      time.Time  `bson:"createdAt"`
}

func optionsFindSortedBy(field string, dir int) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: dir}})
}

func messageFromDocument(doc *MessageDocument) (*models.Message, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid message ID in database: %v", err)
	}
	convID, err := uuid.Parse(doc.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation ID in database: %v", err)
	}
	senderID, err := uuid.Parse(doc.SenderID)
	if err != nil {
		return nil, fmt.Errorf("invalid sender ID in database: %v", err)
	}
	receiverID, err := uuid.Parse(doc.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("invalid receiver ID in database: %v", err)
	}

	return &models.Message{
		ID:             id,
		ConversationID: convID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        doc.Content,
		IsRead:         doc.IsRead,
		ReadAt:         doc.ReadAt,
		CreatedAt:      doc.CreatedAt,
	}, nil
}

// SaveMessage appends a new message to the log
func (m *MongoDB) SaveMessage(ctx context.Context, msg *models.Message) error {
	doc := MessageDocument{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		ReceiverID:     msg.ReceiverID.String(),
		Content:        msg.Content,
		IsRead:         msg.IsRead,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
	}

	_, err := m.Messages.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}
	return nil
}

// GetMessage retrieves a single message by ID
func (m *MongoDB) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var doc MessageDocument
	err := m.Messages.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Message not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %v", err)
	}
	return messageFromDocument(&doc)
}

// GetMessagesByConversation retrieves a conversation's messages oldest-first
func (m *MongoDB) GetMessagesByConversation(ctx context.Context, convID uuid.UUID) ([]*models.Message, error) {
	filter := bson.M{"conversationId": convID.String()}

	cursor, err := m.Messages.Find(ctx, filter, optionsFindSortedBy("createdAt", 1))
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation messages: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	for cursor.Next(ctx) {
		var doc MessageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message: %v", err)
		}
		msg, err := messageFromDocument(&doc)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// GetLatestMessage returns the most recent message of a conversation, or a
// NOT_FOUND error when the conversation has no messages left.
func (m *MongoDB) GetLatestMessage(ctx context.Context, convID uuid.UUID) (*models.Message, error) {
	filter := bson.M{"conversationId": convID.String()}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var doc MessageDocument
	err := m.Messages.FindOne(ctx, filter, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Conversation has no messages", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest message: %v", err)
	}
	return messageFromDocument(&doc)
}

// MarkMessagesRead flips every unread message addressed to the receiver in
// one bulk transition and stamps the read time. Returns how many messages
// changed state.
func (m *MongoDB) MarkMessagesRead(ctx context.Context, convID, receiverID uuid.UUID, at time.Time) (int64, error) {
	filter := bson.M{
		"conversationId": convID.String(),
		"receiverId":     receiverID.String(),
		"isRead":         false,
	}
	update := bson.M{"$set": bson.M{"isRead": true, "readAt": at}}

	result, err := m.Messages.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %v", err)
	}
	return result.ModifiedCount, nil
}

// DeleteMessage hard-deletes a message by ID
func (m *MongoDB) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	result, err := m.Messages.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete message: %v", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Message not found", nil)
	}
	return nil
}
