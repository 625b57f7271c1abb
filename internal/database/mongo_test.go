package database

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMongoDB connects to the instance named by TEST_MONGODB_URI and
// provisions a throwaway database that is dropped on cleanup. Without the
// variable (or under -short) the test is skipped, so the suite stays
// runnable with no mongod around.
func newTestMongoDB(t *testing.T) *MongoDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set, skipping MongoDB integration test")
	}

	dbName := fmt.Sprintf("campus_collab_test_%s", uuid.New().String()[:8])
	db, err := NewMongoDB(uri, dbName)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Client.Database(dbName).Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func TestMongoFindOrCreateConversationSharedParticipant(t *testing.T) {
	db := newTestMongoDB(t)
	ctx := context.Background()

	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()

	convAB, err := db.FindOrCreateConversation(ctx, userA, userB)
	require.NoError(t, err)

	// A second conversation sharing participant A must not trip the
	// uniqueness constraint.
	convAC, err := db.FindOrCreateConversation(ctx, userA, userC)
	require.NoError(t, err)
	assert.NotEqual(t, convAB.ID, convAC.ID)

	// Either direction resolves to the same conversation
	again, err := db.FindOrCreateConversation(ctx, userB, userA)
	require.NoError(t, err)
	assert.Equal(t, convAB.ID, again.ID)

	conversations, err := db.GetConversationsByUser(ctx, userA)
	require.NoError(t, err)
	assert.Len(t, conversations, 2)
}

func TestMongoFindOrCreateConversationConcurrent(t *testing.T) {
	db := newTestMongoDB(t)
	ctx := context.Background()

	userA, userB := uuid.New(), uuid.New()

	const workers = 16
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := userA, userB
			if i%2 == 1 {
				a, b = b, a
			}
			conv, err := db.FindOrCreateConversation(ctx, a, b)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "worker %d", i)
		assert.Equal(t, ids[0], ids[i], "worker %d converged on a different conversation", i)
	}
}

func TestMongoUnreadCounterFlow(t *testing.T) {
	db := newTestMongoDB(t)
	ctx := context.Background()

	userA, userB := uuid.New(), uuid.New()
	conv, err := db.FindOrCreateConversation(ctx, userA, userB)
	require.NoError(t, err)

	msgID := uuid.New()
	require.NoError(t, db.RecordMessageSent(ctx, conv.ID, msgID, userB, time.Now()))
	require.NoError(t, db.RecordMessageSent(ctx, conv.ID, uuid.New(), userB, time.Now()))

	fetched, err := db.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.UnreadFor(userB))
	assert.Equal(t, 0, fetched.UnreadFor(userA))

	require.NoError(t, db.ResetUnread(ctx, conv.ID, userB))
	fetched, err = db.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fetched.UnreadFor(userB))

	// Guarded decrement never takes the counter below zero
	require.NoError(t, db.DecrementUnread(ctx, conv.ID, userB))
	fetched, err = db.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fetched.UnreadFor(userB))
}
