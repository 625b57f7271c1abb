package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"campus-collab/internal/models"
	"campus-collab/internal/utils"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation. It mirrors the MongoDB
// backend's semantics, including the uniqueness of the participant pair and
// atomic counter updates, and backs the test suite.
type MemoryStore struct {
	mu             sync.RWMutex
	users          map[uuid.UUID]*models.User
	emailIndex     map[string]uuid.UUID
	conversations  map[uuid.UUID]*models.Conversation
	pairIndex      map[[2]string]uuid.UUID
	messages       map[uuid.UUID]*models.Message
	byConversation map[uuid.UUID][]uuid.UUID
	notifications  map[uuid.UUID][]*models.Notification
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:          make(map[uuid.UUID]*models.User),
		emailIndex:     make(map[string]uuid.UUID),
		conversations:  make(map[uuid.UUID]*models.Conversation),
		pairIndex:      make(map[[2]string]uuid.UUID),
		messages:       make(map[uuid.UUID]*models.Message),
		byConversation: make(map[uuid.UUID][]uuid.UUID),
		notifications:  make(map[uuid.UUID][]*models.Notification),
	}
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// User methods

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.emailIndex[user.Email]; ok && existingID != user.ID {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil)
	}

	copied := *user
	s.users[user.ID] = &copied
	s.emailIndex[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIndex[email]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *MemoryStore) UpdateUserActivity(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	user.LastActive = time.Now()
	return nil
}

// Conversation methods

func copyConversation(c *models.Conversation) *models.Conversation {
	copied := *c
	copied.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		copied.UnreadCount[k] = v
	}
	if c.LastMessageID != nil {
		id := *c.LastMessageID
		copied.LastMessageID = &id
	}
	return &copied
}

func (s *MemoryStore) FindOrCreateConversation(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, error) {
	if userA == userB {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "conversation requires two distinct users", nil)
	}

	pair := models.SortedParticipants(userA, userB)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The pair index plays the role of the unique participants index: the
	// whole find-or-create runs under the lock, so concurrent callers
	// always converge on a single conversation.
	if id, ok := s.pairIndex[pair]; ok {
		return copyConversation(s.conversations[id]), nil
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:            uuid.New(),
		Participants:  pair,
		LastMessageAt: now,
		UnreadCount:   map[string]int{pair[0]: 0, pair[1]: 0},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.conversations[conv.ID] = conv
	s.pairIndex[pair] = conv.ID

	return copyConversation(conv), nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Conversation not found", nil)
	}
	return copyConversation(conv), nil
}

func (s *MemoryStore) GetConversationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Conversation
	for _, conv := range s.conversations {
		if conv.HasParticipant(userID) {
			result = append(result, copyConversation(conv))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastMessageAt.After(result[j].LastMessageAt)
	})
	return result, nil
}

func (s *MemoryStore) RecordMessageSent(ctx context.Context, convID, msgID, receiverID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Conversation not found", nil)
	}

	id := msgID
	conv.LastMessageID = &id
	conv.LastMessageAt = at
	conv.UpdatedAt = at
	conv.UnreadCount[receiverID.String()]++
	return nil
}

func (s *MemoryStore) ResetUnread(ctx context.Context, convID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Conversation not found", nil)
	}
	conv.UnreadCount[userID.String()] = 0
	return nil
}

func (s *MemoryStore) DecrementUnread(ctx context.Context, convID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Conversation not found", nil)
	}
	if conv.UnreadCount[userID.String()] > 0 {
		conv.UnreadCount[userID.String()]--
	}
	return nil
}

func (s *MemoryStore) SetLastMessage(ctx context.Context, convID uuid.UUID, msgID *uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Conversation not found", nil)
	}
	if msgID != nil {
		id := *msgID
		conv.LastMessageID = &id
	} else {
		conv.LastMessageID = nil
	}
	conv.LastMessageAt = at
	conv.UpdatedAt = time.Now()
	return nil
}

// Message methods

func copyMessage(m *models.Message) *models.Message {
	copied := *m
	if m.ReadAt != nil {
		at := *m.ReadAt
		copied.ReadAt = &at
	}
	return &copied
}

func (s *MemoryStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.ID] = copyMessage(msg)
	s.byConversation[msg.ConversationID] = append(s.byConversation[msg.ConversationID], msg.ID)
	return nil
}

func (s *MemoryStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Message not found", nil)
	}
	return copyMessage(msg), nil
}

func (s *MemoryStore) GetMessagesByConversation(ctx context.Context, convID uuid.UUID) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Message
	for _, id := range s.byConversation[convID] {
		if msg, ok := s.messages[id]; ok {
			result = append(result, copyMessage(msg))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) GetLatestMessage(ctx context.Context, convID uuid.UUID) (*models.Message, error) {
	messages, err := s.GetMessagesByConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, utils.NewAppError(utils.ErrNotFound, "Conversation has no messages", nil)
	}
	return messages[len(messages)-1], nil
}

func (s *MemoryStore) MarkMessagesRead(ctx context.Context, convID, receiverID uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	for _, id := range s.byConversation[convID] {
		msg, ok := s.messages[id]
		if !ok {
			continue
		}
		if msg.ReceiverID == receiverID && !msg.IsRead {
			msg.IsRead = true
			readAt := at
			msg.ReadAt = &readAt
			modified++
		}
	}
	return modified, nil
}

func (s *MemoryStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Message not found", nil)
	}
	delete(s.messages, id)

	ids := s.byConversation[msg.ConversationID]
	for i, msgID := range ids {
		if msgID == id {
			s.byConversation[msg.ConversationID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Notification methods

func (s *MemoryStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *n
	s.notifications[n.UserID] = append(s.notifications[n.UserID], &copied)
	return nil
}

func (s *MemoryStore) GetNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.notifications[userID]
	result := make([]*models.Notification, 0, len(list))
	for _, n := range list {
		copied := *n
		result = append(result, &copied)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) MarkNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[userID] {
		n.IsRead = true
	}
	return nil
}
