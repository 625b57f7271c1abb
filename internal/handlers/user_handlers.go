package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"campus-collab/internal/engine/actors"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	College  string `json:"college"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the issued token back to the client
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		s.Metrics.IncrementRequests()

		result, err := s.ask(s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			College:  req.College,
		})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, result)
	}
}

// HandleUserLogin handles requests to log in a user
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		s.Metrics.IncrementRequests()

		result, err := s.ask(s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}

		loginResp, ok := result.(*actors.LoginResponse)
		if !ok {
			log.Printf("HTTP Handler: unexpected login response type: %T", result)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if !loginResp.Success {
			writeError(w, http.StatusUnauthorized, loginResp.Error)
			return
		}

		userID, err := uuid.Parse(loginResp.UserID)
		if err != nil {
			log.Printf("HTTP Handler: invalid user ID in login response: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		token, err := s.JWT.GenerateToken(userID)
		if err != nil {
			log.Printf("HTTP Handler: failed to generate token: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}

		writeJSON(w, http.StatusOK, &LoginResult{Token: token, UserID: loginResp.UserID})
	}
}

// HandleGetUserProfile returns a user's public profile
func (s *Server) HandleGetUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := callerID(w, r); !ok {
			return
		}

		userID, err := uuid.Parse(mux.Vars(r)["userId"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		s.Metrics.IncrementRequests()

		result, err := s.ask(s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: userID})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// HandleGetNotifications returns the caller's notification feed
func (s *Server) HandleGetNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		s.Metrics.IncrementRequests()

		result, err := s.ask(s.Engine.GetUserActor(), &actors.GetNotificationsMsg{UserID: userID})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// HandleMarkNotificationsRead marks the caller's notifications as read
func (s *Server) HandleMarkNotificationsRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		s.Metrics.IncrementRequests()

		_, err := s.ask(s.Engine.GetUserActor(), &actors.MarkNotificationsReadMsg{UserID: userID})
		if err != nil {
			s.Metrics.IncrementErrors()
			writeAskError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Notifications marked read"})
	}
}
