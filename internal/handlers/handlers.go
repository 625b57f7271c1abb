package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"campus-collab/internal/database"
	"campus-collab/internal/engine"
	"campus-collab/internal/middleware"
	"campus-collab/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	DB             database.Store
	JWT            *middleware.JWTAuth
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	db database.Store,
	jwtAuth *middleware.JWTAuth,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        metrics,
		DB:             db,
		JWT:            jwtAuth,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// Router wires every route of the API surface
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.HandleHealth()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/users/register", s.HandleUserRegistration()).Methods(http.MethodPost)
	api.HandleFunc("/users/login", s.HandleUserLogin()).Methods(http.MethodPost)
	api.HandleFunc("/users/notifications", s.HandleGetNotifications()).Methods(http.MethodGet)
	api.HandleFunc("/users/notifications/read", s.HandleMarkNotificationsRead()).Methods(http.MethodPut)
	api.HandleFunc("/users/{userId}", s.HandleGetUserProfile()).Methods(http.MethodGet)

	api.HandleFunc("/messages/conversations", s.HandleListConversations()).Methods(http.MethodGet)
	api.HandleFunc("/messages/conversation/{userId}", s.HandleGetConversation()).Methods(http.MethodGet)
	api.HandleFunc("/messages/send/{userId}", s.HandleSendMessage()).Methods(http.MethodPost)
	api.HandleFunc("/messages/unread-count", s.HandleUnreadCount()).Methods(http.MethodGet)
	api.HandleFunc("/messages/{messageId}", s.HandleDeleteMessage()).Methods(http.MethodDelete)

	return r
}

// apiResponse is the JSON envelope every endpoint answers with
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Message: message})
}

// ask sends a message to an actor and waits for its reply. AppError replies
// are surfaced as errors so callers fall through a single error path.
func (s *Server) ask(pid *actor.PID, msg interface{}) (interface{}, error) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		return nil, utils.NewActorTimeoutError("request")
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

// writeAskError maps actor-level failures onto HTTP statuses
func writeAskError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*utils.AppError); ok {
		writeError(w, utils.AppErrorToHTTPStatus(appErr.Code), appErr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// callerID extracts the authenticated user from the request context
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, found := middleware.GetUserIDFromContext(r.Context())
	if !found {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

// HandleHealth reports liveness together with basic operational counters
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, errors, ops := s.Metrics.Snapshot()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"uptime":     s.Metrics.Uptime().String(),
			"requests":   requests,
			"errors":     errors,
			"operations": ops,
		})
	}
}
