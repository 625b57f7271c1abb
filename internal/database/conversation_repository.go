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
)

// ConversationDocument represents the MongoDB document structure for
// conversations. PairKey is the scalar the unique index lives on; the
// participants array exists for membership queries only.
type ConversationDocument struct {
	ID            string         `bson:"_id"`
	PairKey       string         `bson:"pairKey"`
	Participants  []string       `bson:"participants"`
	LastMessageID *string        `bson:"lastMessageId"`
	LastMessageAt time.Time      `bson:"lastMessageAt"`
	UnreadCount   map[string]int `bson:"unreadCount"`
	CreatedAt     time.Time      `bson:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt"`
}

func conversationFromDocument(doc *ConversationDocument) (*models.Conversation, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation ID in database: %v", err)
	}
	if len(doc.Participants) != 2 {
		return nil, fmt.Errorf("conversation %s has %d participants", doc.ID, len(doc.Participants))
	}

	conv := &models.Conversation{
		ID:            id,
		Participants:  [2]string{doc.Participants[0], doc.Participants[1]},
		LastMessageAt: doc.LastMessageAt,
		UnreadCount:   doc.UnreadCount,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if conv.UnreadCount == nil {
		conv.UnreadCount = map[string]int{}
	}
	if doc.LastMessageID != nil {
		msgID, err := uuid.Parse(*doc.LastMessageID)
		if err != nil {
			return nil, fmt.Errorf("invalid last message ID in database: %v", err)
		}
		conv.LastMessageID = &msgID
	}
	return conv, nil
}

// FindOrCreateConversation returns the single conversation for an unordered
// pair of users, creating it when absent. A concurrent first-contact send
// from the other direction can win the insert; the duplicate key error from
// the unique pairKey index is resolved by re-fetching.
func (m *MongoDB) FindOrCreateConversation(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, error) {
	if userA == userB {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "conversation requires two distinct users", nil)
	}

	pair := models.SortedParticipants(userA, userB)
	filter := bson.M{"pairKey": models.ConversationKey(userA, userB)}

	var doc ConversationDocument
	err := m.Conversations.FindOne(ctx, filter).Decode(&doc)
	if err == nil {
		return conversationFromDocument(&doc)
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to find conversation: %v", err)
	}

	now := time.Now()
	doc = ConversationDocument{
		ID:            uuid.New().String(),
		PairKey:       models.ConversationKey(userA, userB),
		Participants:  []string{pair[0], pair[1]},
		LastMessageAt: now,
		UnreadCount:   map[string]int{pair[0]: 0, pair[1]: 0},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = m.Conversations.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the creation race, the other side's conversation is canonical.
		if err := m.Conversations.FindOne(ctx, filter).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to fetch conversation after duplicate insert: %v", err)
		}
		return conversationFromDocument(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %v", err)
	}

	return conversationFromDocument(&doc)
}

// GetConversation retrieves a conversation by its ID
func (m *MongoDB) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var doc ConversationDocument
	err := m.Conversations.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Conversation not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %v", err)
	}
	return conversationFromDocument(&doc)
}

// GetConversationsByUser retrieves all conversations a user participates in,
// most recent activity first.
func (m *MongoDB) GetConversationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	filter := bson.M{"participants": userID.String()}
	opts := optionsFindSortedBy("lastMessageAt", -1)

	cursor, err := m.Conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get user conversations: %v", err)
	}
	defer cursor.Close(ctx)

	var conversations []*models.Conversation
	for cursor.Next(ctx) {
		var doc ConversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %v", err)
		}
		conv, err := conversationFromDocument(&doc)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, nil
}

// RecordMessageSent applies the denormalized effects of a send in a single
// document update: preview pointer, activity timestamp and the receiver's
// unread counter.
func (m *MongoDB) RecordMessageSent(ctx context.Context, convID, msgID, receiverID uuid.UUID, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"lastMessageId": msgID.String(),
			"lastMessageAt": at,
			"updatedAt":     at,
		},
		"$inc": bson.M{"unreadCount." + receiverID.String(): 1},
	}

	result, err := m.Conversations.UpdateOne(ctx, bson.M{"_id": convID.String()}, update)
	if err != nil {
		return fmt.Errorf("failed to record message send: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Conversation not found", nil)
	}
	return nil
}

// ResetUnread zeroes a participant's unread counter
func (m *MongoDB) ResetUnread(ctx context.Context, convID, userID uuid.UUID) error {
	update := bson.M{"$set": bson.M{"unreadCount." + userID.String(): 0}}

	result, err := m.Conversations.UpdateOne(ctx, bson.M{"_id": convID.String()}, update)
	if err != nil {
		return fmt.Errorf("failed to reset unread count: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Conversation not found", nil)
	}
	return nil
}

// DecrementUnread lowers a participant's unread counter by one, never below
// zero. Used when an unread message is deleted by its sender.
func (m *MongoDB) DecrementUnread(ctx context.Context, convID, userID uuid.UUID) error {
	field := "unreadCount." + userID.String()
	filter := bson.M{"_id": convID.String(), field: bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{field: -1}}

	// Zero matches means the counter was already 0, which is fine.
	_, err := m.Conversations.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement unread count: %v", err)
	}
	return nil
}

// SetLastMessage repoints the conversation preview, clearing it when msgID
// is nil.
func (m *MongoDB) SetLastMessage(ctx context.Context, convID uuid.UUID, msgID *uuid.UUID, at time.Time) error {
	var lastMessageID *string
	if msgID != nil {
		s := msgID.String()
		lastMessageID = &s
	}

	update := bson.M{"$set": bson.M{
		"lastMessageId": lastMessageID,
		"lastMessageAt": at,
		"updatedAt":     time.Now(),
	}}

	result, err := m.Conversations.UpdateOne(ctx, bson.M{"_id": convID.String()}, update)
	if err != nil {
		return fmt.Errorf("failed to update last message: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Conversation not found", nil)
	}
	return nil
}
