package actors

import (
	"log"
	"strings"
	"time"

	stdctx "context"

	"campus-collab/internal/database"
	"campus-collab/internal/models"
	"campus-collab/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for MessagingActor
type (
	SendMessageMsg struct {
		FromID  uuid.UUID `json:"fromId"`
		ToID    uuid.UUID `json:"toId"`
		Content string    `json:"content"`
	}

	GetConversationMsg struct {
		UserID      uuid.UUID `json:"userId"`
		OtherUserID uuid.UUID `json:"otherUserId"`
	}

	ListConversationsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetUnreadCountMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	DeleteMessageMsg struct {
		MessageID uuid.UUID `json:"messageId"`
		UserID    uuid.UUID `json:"userId"` // The user deleting the message
	}
)

// ConversationThread is the response to GetConversationMsg: the conversation
// record plus its full ordered message list, after the read transition.
type ConversationThread struct {
	Conversation *models.Conversation `json:"conversation"`
	Messages     []*models.Message    `json:"messages"`
}

// ConversationSummary is one entry of the conversation list view.
type ConversationSummary struct {
	Conversation *models.Conversation `json:"conversation"`
	OtherUserID  uuid.UUID            `json:"otherUserId"`
	OtherName    string               `json:"otherName"`
	OtherAvatar  string               `json:"otherAvatar,omitempty"`
	UnreadCount  int                  `json:"unreadCount"`
	LastMessage  string               `json:"lastMessage,omitempty"`
}

// UnreadCountResult is the response to GetUnreadCountMsg.
type UnreadCountResult struct {
	UnreadCount int `json:"unreadCount"`
}

// MessagingActor orchestrates the conversation subsystem: find-or-create of
// conversations, sends, thread fetches with their read-state transition,
// unread aggregation and sender-only deletes.
type MessagingActor struct {
	db        database.Store
	metrics   *utils.MetricsCollector
	userCache map[uuid.UUID]*models.User // Simple cache for display info
}

func NewMessagingActor(db database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &MessagingActor{
		db:        db,
		metrics:   metrics,
		userCache: make(map[uuid.UUID]*models.User),
	}
}

func (a *MessagingActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *SendMessageMsg:
		a.handleSendMessage(context, msg)
	case *GetConversationMsg:
		a.handleGetConversation(context, msg)
	case *ListConversationsMsg:
		a.handleListConversations(context, msg)
	case *GetUnreadCountMsg:
		a.handleGetUnreadCount(context, msg)
	case *DeleteMessageMsg:
		a.handleDeleteMessage(context, msg)
	}
}

// respondError keeps AppErrors intact and wraps anything else as a database
// failure so handlers can map codes to HTTP statuses.
func respondError(context actor.Context, err error) {
	if appErr, ok := err.(*utils.AppError); ok {
		context.Respond(appErr)
		return
	}
	context.Respond(utils.NewAppError(utils.ErrDatabase, "storage operation failed", err))
}

// getUserDisplay fetches a user for display purposes, using the cache first
func (a *MessagingActor) getUserDisplay(ctx stdctx.Context, userID uuid.UUID) *models.User {
	if user, ok := a.userCache[userID]; ok {
		return user
	}

	user, err := a.db.GetUser(ctx, userID)
	if err != nil {
		log.Printf("Error fetching user %s for display: %v", userID, err)
		return &models.User{ID: userID, Name: "[unknown]"}
	}

	a.userCache[userID] = user
	return user
}

func (a *MessagingActor) populateDisplay(ctx stdctx.Context, msg *models.Message) {
	sender := a.getUserDisplay(ctx, msg.SenderID)
	receiver := a.getUserDisplay(ctx, msg.ReceiverID)
	msg.SenderName = sender.Name
	msg.SenderAvatar = sender.ProfilePicture
	msg.ReceiverName = receiver.Name
	msg.ReceiverAvatar = receiver.ProfilePicture
}

func (a *MessagingActor) handleSendMessage(context actor.Context, msg *SendMessageMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Message content is required", nil))
		return
	}
	if msg.FromID == msg.ToID {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Cannot send a message to yourself", nil))
		return
	}

	// Check if receiver exists before touching any state
	receiver, err := a.db.GetUser(ctx, msg.ToID)
	if err != nil {
		respondError(context, err)
		return
	}
	sender, err := a.db.GetUser(ctx, msg.FromID)
	if err != nil {
		respondError(context, err)
		return
	}

	conversation, err := a.db.FindOrCreateConversation(ctx, msg.FromID, msg.ToID)
	if err != nil {
		respondError(context, err)
		return
	}

	now := time.Now()
	newMessage := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		SenderID:       msg.FromID,
		ReceiverID:     msg.ToID,
		Content:        content,
		IsRead:         false,
		CreatedAt:      now,
	}

	if err := a.db.SaveMessage(ctx, newMessage); err != nil {
		respondError(context, err)
		return
	}

	// Denormalized conversation update: preview pointer, activity time and
	// the receiver's unread counter, all in one storage operation.
	if err := a.db.RecordMessageSent(ctx, conversation.ID, newMessage.ID, msg.ToID, now); err != nil {
		respondError(context, err)
		return
	}

	// Notification is best-effort: a failure here must never fail the send.
	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    receiver.ID,
		Type:      models.NotificationMessage,
		FromID:    sender.ID,
		Text:      "sent you a message",
		CreatedAt: now,
	}
	if err := a.db.SaveNotification(ctx, notification); err != nil {
		log.Printf("Failed to append notification for user %s: %v", receiver.ID, err)
	}

	newMessage.SenderName = sender.Name
	newMessage.SenderAvatar = sender.ProfilePicture
	newMessage.ReceiverName = receiver.Name
	newMessage.ReceiverAvatar = receiver.ProfilePicture

	a.metrics.AddOperationLatency("send_message", time.Since(startTime))
	log.Printf("New message sent from %s to %s", msg.FromID, msg.ToID)
	context.Respond(newMessage)
}

func (a *MessagingActor) handleGetConversation(context actor.Context, msg *GetConversationMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	conversation, err := a.db.FindOrCreateConversation(ctx, msg.UserID, msg.OtherUserID)
	if err != nil {
		respondError(context, err)
		return
	}

	messages, err := a.db.GetMessagesByConversation(ctx, conversation.ID)
	if err != nil {
		respondError(context, err)
		return
	}

	// Bulk read transition for everything addressed to the requester,
	// then zero the requester's unread counter.
	now := time.Now()
	if _, err := a.db.MarkMessagesRead(ctx, conversation.ID, msg.UserID, now); err != nil {
		respondError(context, err)
		return
	}
	if err := a.db.ResetUnread(ctx, conversation.ID, msg.UserID); err != nil {
		respondError(context, err)
		return
	}

	// The returned thread reflects the transition that this fetch caused.
	conversation.UnreadCount[msg.UserID.String()] = 0
	for _, m := range messages {
		if m.ReceiverID == msg.UserID && !m.IsRead {
			m.IsRead = true
			readAt := now
			m.ReadAt = &readAt
		}
		a.populateDisplay(ctx, m)
	}

	a.metrics.AddOperationLatency("get_conversation", time.Since(startTime))
	context.Respond(&ConversationThread{
		Conversation: conversation,
		Messages:     messages,
	})
}

func (a *MessagingActor) handleListConversations(context actor.Context, msg *ListConversationsMsg) {
	ctx := stdctx.Background()

	conversations, err := a.db.GetConversationsByUser(ctx, msg.UserID)
	if err != nil {
		respondError(context, err)
		return
	}

	summaries := make([]*ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		otherID, err := conv.OtherParticipant(msg.UserID)
		if err != nil {
			log.Printf("Skipping conversation %s with bad participant: %v", conv.ID, err)
			continue
		}
		other := a.getUserDisplay(ctx, otherID)

		summary := &ConversationSummary{
			Conversation: conv,
			OtherUserID:  otherID,
			OtherName:    other.Name,
			OtherAvatar:  other.ProfilePicture,
			UnreadCount:  conv.UnreadFor(msg.UserID),
		}
		if conv.LastMessageID != nil {
			if last, err := a.db.GetMessage(ctx, *conv.LastMessageID); err == nil {
				summary.LastMessage = last.Content
			}
		}
		summaries = append(summaries, summary)
	}

	context.Respond(summaries)
}

func (a *MessagingActor) handleGetUnreadCount(context actor.Context, msg *GetUnreadCountMsg) {
	ctx := stdctx.Background()

	conversations, err := a.db.GetConversationsByUser(ctx, msg.UserID)
	if err != nil {
		respondError(context, err)
		return
	}

	total := 0
	for _, conv := range conversations {
		total += conv.UnreadFor(msg.UserID)
	}

	context.Respond(&UnreadCountResult{UnreadCount: total})
}

func (a *MessagingActor) handleDeleteMessage(context actor.Context, msg *DeleteMessageMsg) {
	ctx := stdctx.Background()

	message, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		respondError(context, err)
		return
	}

	// Only the sender can delete
	if message.SenderID != msg.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Not authorized to delete this message", nil))
		return
	}

	if err := a.db.DeleteMessage(ctx, msg.MessageID); err != nil {
		respondError(context, err)
		return
	}

	// Repair the denormalized state the deleted message backed: the
	// receiver's unread counter and the conversation preview pointer.
	if !message.IsRead {
		if err := a.db.DecrementUnread(ctx, message.ConversationID, message.ReceiverID); err != nil {
			log.Printf("Failed to decrement unread count after delete: %v", err)
		}
	}

	conversation, err := a.db.GetConversation(ctx, message.ConversationID)
	if err == nil && conversation.LastMessageID != nil && *conversation.LastMessageID == message.ID {
		latest, err := a.db.GetLatestMessage(ctx, message.ConversationID)
		switch {
		case err == nil:
			err = a.db.SetLastMessage(ctx, message.ConversationID, &latest.ID, latest.CreatedAt)
		case utils.IsErrorCode(err, utils.ErrNotFound):
			err = a.db.SetLastMessage(ctx, message.ConversationID, nil, conversation.CreatedAt)
		}
		if err != nil {
			log.Printf("Failed to repoint last message after delete: %v", err)
		}
	}

	log.Printf("Message %s deleted by %s", msg.MessageID, msg.UserID)
	context.Respond(true)
}
