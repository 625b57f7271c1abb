package actors

import (
	"context"
	"testing"
	"time"

	"campus-collab/internal/database"
	"campus-collab/internal/models"
	"campus-collab/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnUserActor(t *testing.T) (*actor.ActorSystem, *actor.PID, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(store, utils.NewMetricsCollector())
	})
	return system, system.Root.Spawn(props), store
}

func askUser(t *testing.T, system *actor.ActorSystem, pid *actor.PID, msg interface{}) interface{} {
	t.Helper()
	future := system.Root.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result
}

func TestRegisterAndLogin(t *testing.T) {
	system, pid, _ := spawnUserActor(t)

	result := askUser(t, system, pid, &RegisterUserMsg{
		Name:     "Alice Smith",
		Email:    "Alice@UFL.edu",
		Password: "supersecret",
		College:  "Engineering",
	})
	user, ok := result.(*models.User)
	require.True(t, ok, "expected user, got %T: %v", result, result)
	assert.Equal(t, "Alice Smith", user.Name)
	// Email is normalized to lower case
	assert.Equal(t, "alice@ufl.edu", user.Email)
	assert.NotEqual(t, "supersecret", user.HashedPassword)

	result = askUser(t, system, pid, &LoginMsg{Email: "alice@ufl.edu", Password: "supersecret"})
	login, ok := result.(*LoginResponse)
	require.True(t, ok)
	assert.True(t, login.Success)
	assert.Equal(t, user.ID.String(), login.UserID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	system, pid, _ := spawnUserActor(t)

	askUser(t, system, pid, &RegisterUserMsg{
		Name:     "Bob Jones",
		Email:    "bob@ufl.edu",
		Password: "supersecret",
	})

	result := askUser(t, system, pid, &LoginMsg{Email: "bob@ufl.edu", Password: "wrongpass"})
	login, ok := result.(*LoginResponse)
	require.True(t, ok)
	assert.False(t, login.Success)
	assert.Empty(t, login.UserID)

	result = askUser(t, system, pid, &LoginMsg{Email: "nobody@ufl.edu", Password: "supersecret"})
	login, ok = result.(*LoginResponse)
	require.True(t, ok)
	assert.False(t, login.Success)
}

func TestRegisterValidation(t *testing.T) {
	system, pid, _ := spawnUserActor(t)

	cases := []struct {
		name string
		msg  *RegisterUserMsg
	}{
		{"short name", &RegisterUserMsg{Name: "Al", Email: "a@b.edu", Password: "supersecret"}},
		{"bad email", &RegisterUserMsg{Name: "Alice", Email: "not-an-email", Password: "supersecret"}},
		{"short password", &RegisterUserMsg{Name: "Alice", Email: "a@b.edu", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := askUser(t, system, pid, tc.msg)
			appErr, ok := result.(*utils.AppError)
			require.True(t, ok, "expected error, got %T: %v", result, result)
			assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	system, pid, _ := spawnUserActor(t)

	first := askUser(t, system, pid, &RegisterUserMsg{
		Name:     "Alice Smith",
		Email:    "alice@ufl.edu",
		Password: "supersecret",
	})
	_, ok := first.(*models.User)
	require.True(t, ok)

	second := askUser(t, system, pid, &RegisterUserMsg{
		Name:     "Other Alice",
		Email:    "ALICE@ufl.edu",
		Password: "differentpass",
	})
	appErr, ok := second.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrUserAlreadyExists, appErr.Code)
}

func TestGetProfile(t *testing.T) {
	system, pid, _ := spawnUserActor(t)

	result := askUser(t, system, pid, &RegisterUserMsg{
		Name:     "Alice Smith",
		Email:    "alice@ufl.edu",
		Password: "supersecret",
	})
	user := result.(*models.User)

	result = askUser(t, system, pid, &GetUserProfileMsg{UserID: user.ID})
	profile, ok := result.(*models.User)
	require.True(t, ok)
	assert.Equal(t, user.ID, profile.ID)

	result = askUser(t, system, pid, &GetUserProfileMsg{UserID: uuid.New()})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrUserNotFound, appErr.Code)
}

func TestNotificationFeed(t *testing.T) {
	system, pid, store := spawnUserActor(t)

	result := askUser(t, system, pid, &RegisterUserMsg{
		Name:     "Alice Smith",
		Email:    "alice@ufl.edu",
		Password: "supersecret",
	})
	user := result.(*models.User)

	// Empty feed comes back as an empty slice, never nil
	result = askUser(t, system, pid, &GetNotificationsMsg{UserID: user.ID})
	feed, ok := result.([]*models.Notification)
	require.True(t, ok)
	assert.Empty(t, feed)

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    user.ID,
		Type:      models.NotificationMessage,
		FromID:    uuid.New(),
		Text:      "sent you a message",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.SaveNotification(context.Background(), notification))

	result = askUser(t, system, pid, &GetNotificationsMsg{UserID: user.ID})
	feed = result.([]*models.Notification)
	require.Len(t, feed, 1)
	assert.False(t, feed[0].IsRead)

	result = askUser(t, system, pid, &MarkNotificationsReadMsg{UserID: user.ID})
	assert.Equal(t, true, result)

	result = askUser(t, system, pid, &GetNotificationsMsg{UserID: user.ID})
	feed = result.([]*models.Notification)
	require.Len(t, feed, 1)
	assert.True(t, feed[0].IsRead)
}
