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
	"golang.org/x/crypto/bcrypt"
)

// Message types for UserActor
type (
	RegisterUserMsg struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		College  string `json:"college"`
	}

	LoginMsg struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetNotificationsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	MarkNotificationsReadMsg struct {
		UserID uuid.UUID `json:"userId"`
	}
)

// LoginResponse reports authentication outcome; the HTTP layer issues the
// token for successful logins.
type LoginResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UserActor manages registration, login and the notification feed. It is
// the identity collaborator the messaging subsystem resolves senders and
// receivers against.
type UserActor struct {
	db      database.Store
	metrics *utils.MetricsCollector
}

func NewUserActor(db database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &UserActor{db: db, metrics: metrics}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *RegisterUserMsg:
		a.handleRegisterUser(context, msg)
	case *LoginMsg:
		a.handleLogin(context, msg)
	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)
	case *GetNotificationsMsg:
		a.handleGetNotifications(context, msg)
	case *MarkNotificationsReadMsg:
		a.handleMarkNotificationsRead(context, msg)
	}
}

func (a *UserActor) handleRegisterUser(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	name := strings.TrimSpace(msg.Name)
	email := strings.ToLower(strings.TrimSpace(msg.Email))
	if len(name) < 3 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Name must be at least 3 characters", nil))
		return
	}
	if email == "" || !strings.Contains(email, "@") {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "A valid email is required", nil))
		return
	}
	if len(msg.Password) < 8 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Password must be at least 8 characters", nil))
		return
	}

	// Check if email is already registered
	if existing, _ := a.db.GetUserByEmail(ctx, email); existing != nil {
		log.Printf("Email already registered: %s", email)
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(msg.Password), bcrypt.DefaultCost)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
		return
	}

	now := time.Now()
	user := &models.User{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		HashedPassword: string(hashedPassword),
		College:        strings.TrimSpace(msg.College),
		Skills:         []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActive:     now,
	}

	if err := a.db.SaveUser(ctx, user); err != nil {
		respondError(context, err)
		return
	}

	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	log.Printf("Registered new user %s (%s)", user.ID, user.Email)
	context.Respond(user)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	ctx := stdctx.Background()

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	user, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	if err := a.db.UpdateUserActivity(ctx, user.ID); err != nil {
		log.Printf("Failed to update activity for user %s: %v", user.ID, err)
	}

	context.Respond(&LoginResponse{Success: true, UserID: user.ID.String()})
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	ctx := stdctx.Background()

	user, err := a.db.GetUser(ctx, msg.UserID)
	if err != nil {
		respondError(context, err)
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleGetNotifications(context actor.Context, msg *GetNotificationsMsg) {
	ctx := stdctx.Background()

	notifications, err := a.db.GetNotificationsByUser(ctx, msg.UserID)
	if err != nil {
		respondError(context, err)
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	context.Respond(notifications)
}

func (a *UserActor) handleMarkNotificationsRead(context actor.Context, msg *MarkNotificationsReadMsg) {
	ctx := stdctx.Background()

	if err := a.db.MarkNotificationsRead(ctx, msg.UserID); err != nil {
		respondError(context, err)
		return
	}
	context.Respond(true)
}
