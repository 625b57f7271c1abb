package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"campus-collab/internal/engine/actors"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// SendMessageRequest represents a request to send a direct message
type SendMessageRequest struct {
	Content string `json:"content"`
}

// HandleListConversations returns the caller's conversations, most recent
// activity first, with the caller's unread count per conversation.
func (s *Server) HandleListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		s.Metrics.IncrementRequests()

		result, err := s.ask(s.Engine.GetMessagingActor(), &actors.ListConversationsMsg{UserID: userID})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// HandleGetConversation returns the thread between the caller and another
// user. Fetching marks the caller's unread messages as read.
func (s *Server) HandleGetConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		otherID, err := uuid.Parse(mux.Vars(r)["userId"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		s.Metrics.IncrementRequests()

		result, err := s.ask(s.Engine.GetMessagingActor(), &actors.GetConversationMsg{
			UserID:      userID,
			OtherUserID: otherID,
		})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// HandleSendMessage sends a message from the caller to the user in the path
func (s *Server) HandleSendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		receiverID, err := uuid.Parse(mux.Vars(r)["userId"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid recipient ID")
			return
		}

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		s.Metrics.IncrementRequests()

		start := time.Now()
		result, err := s.ask(s.Engine.GetMessagingActor(), &actors.SendMessageMsg{
			FromID:  userID,
			ToID:    receiverID,
			Content: req.Content,
		})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}
		s.Metrics.AddOperationLatency("http_send_message", time.Since(start))

		writeJSON(w, http.StatusCreated, result)
	}
}

// HandleDeleteMessage deletes one of the caller's own messages
func (s *Server) HandleDeleteMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		messageID, err := uuid.Parse(mux.Vars(r)["messageId"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid message ID")
			return
		}
		s.Metrics.IncrementRequests()

		_, err = s.ask(s.Engine.GetMessagingActor(), &actors.DeleteMessageMsg{
			MessageID: messageID,
			UserID:    userID,
		})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted"})
	}
}

// HandleUnreadCount returns the caller's total unread count across all
// conversations
func (s *Server) HandleUnreadCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		s.Metrics.IncrementRequests()

		result, err := s.ask(s.Engine.GetMessagingActor(), &actors.GetUnreadCountMsg{UserID: userID})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
