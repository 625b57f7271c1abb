package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-collab/internal/database"
	"campus-collab/internal/engine"
	"campus-collab/internal/handlers"
	"campus-collab/internal/middleware"
	"campus-collab/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelope mirrors the JSON wrapper every endpoint answers with
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := database.NewMemoryStore()
	metrics := utils.NewMetricsCollector()
	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, store, metrics)
	jwtAuth := middleware.NewJWTAuth("test-secret")

	srv := handlers.NewServer(system, eng, metrics, store, jwtAuth)
	handler := middleware.CORSMiddleware(middleware.DefaultCORSConfig(nil))(jwtAuth.Middleware(srv.Router()))

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return &testAPI{t: t, server: ts, client: ts.Client()}
}

func (a *testAPI) do(method, path, token string, body interface{}) (*http.Response, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	// Middleware rejections use http.Error and are not JSON
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func (a *testAPI) registerAndLogin(name, email string) (userID, token string) {
	a.t.Helper()

	resp, env := a.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "supersecret",
		"college":  "Engineering",
	})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)

	resp, env = a.do(http.MethodPost, "/api/users/login", "", map[string]string{
		"email":    email,
		"password": "supersecret",
	})
	require.Equal(a.t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(a.t, login.Token)
	return login.UserID, login.Token
}

func TestMessagingFlow(t *testing.T) {
	api := newTestAPI(t)

	aliceID, aliceToken := api.registerAndLogin("Alice Smith", "alice@ufl.edu")
	bobID, bobToken := api.registerAndLogin("Bob Jones", "bob@ufl.edu")

	// Alice sends Bob a message
	resp, env := api.do(http.MethodPost, "/api/messages/send/"+bobID, aliceToken,
		map[string]string{"content": "hey"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sent struct {
		ID             string `json:"id"`
		ConversationID string `json:"conversationId"`
		Content        string `json:"content"`
		SenderName     string `json:"senderName"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	assert.Equal(t, "hey", sent.Content)
	assert.Equal(t, "Alice Smith", sent.SenderName)

	// Bob sees one unread message
	resp, env = api.do(http.MethodGet, "/api/messages/unread-count", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var unread struct {
		UnreadCount int `json:"unreadCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	assert.Equal(t, 1, unread.UnreadCount)

	// Fetching the thread marks it read
	resp, env = api.do(http.MethodGet, "/api/messages/conversation/"+aliceID, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var thread struct {
		Messages []struct {
			ID     string `json:"id"`
			IsRead bool   `json:"isRead"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &thread))
	require.Len(t, thread.Messages, 1)
	assert.True(t, thread.Messages[0].IsRead)

	resp, env = api.do(http.MethodGet, "/api/messages/unread-count", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	assert.Equal(t, 0, unread.UnreadCount)

	// Bob's conversation list shows the exchange with Alice
	resp, env = api.do(http.MethodGet, "/api/messages/conversations", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []struct {
		OtherUserID string `json:"otherUserId"`
		OtherName   string `json:"otherName"`
		UnreadCount int    `json:"unreadCount"`
		LastMessage string `json:"lastMessage"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, aliceID, summaries[0].OtherUserID)
	assert.Equal(t, "Alice Smith", summaries[0].OtherName)
	assert.Equal(t, "hey", summaries[0].LastMessage)

	// Bob received a notification for the send
	resp, env = api.do(http.MethodGet, "/api/users/notifications", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed []struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "message", feed[0].Type)

	// Only the sender may delete a message
	resp, _ = api.do(http.MethodDelete, "/api/messages/"+sent.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = api.do(http.MethodDelete, "/api/messages/"+sent.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = api.do(http.MethodGet, "/api/messages/conversation/"+aliceID, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &thread))
	assert.Empty(t, thread.Messages)
}

func TestAuthenticationRequired(t *testing.T) {
	api := newTestAPI(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/messages/conversations"},
		{http.MethodGet, "/api/messages/unread-count"},
		{http.MethodPost, "/api/messages/send/00000000-0000-0000-0000-000000000000"},
		{http.MethodGet, "/api/users/notifications"},
	}
	for _, p := range paths {
		resp, _ := api.do(p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", p.method, p.path)
	}

	// Garbage tokens are rejected too
	resp, _ := api.do(http.MethodGet, "/api/messages/conversations", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthIsUnprotected(t *testing.T) {
	api := newTestAPI(t)

	resp, env := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	api := newTestAPI(t)
	api.registerAndLogin("Alice Smith", "alice@ufl.edu")

	resp, _ := api.do(http.MethodPost, "/api/users/login", "", map[string]string{
		"email":    "alice@ufl.edu",
		"password": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
