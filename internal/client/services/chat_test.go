package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nixixoo/Notex/internal/client/models"
	"github.com/nixixoo/Notex/internal/common"
)

func TestChat_RequireActiveMode(t *testing.T) {
	store := newMemStore()
	api := unusedAPI(t, store)
	sess := NewSession(api, store, nil)
	svc := NewChatService(sess, store, api, nil)
	t.Cleanup(svc.Close)

	_, err := svc.Send(context.Background(), "hello", "")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestChat_GuestSendUsesCredentialFreeEndpoint(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	// A stale token must not leak onto the guest chat endpoint.
	require.NoError(t, store.Set(ctx, common.StorageKeyAuthToken, []byte("stale")))

	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/guest/message", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))

		var req models.SendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeData(t, w, models.ChatResponse{Message: "echo: " + req.Message, Timestamp: time.Now().UTC()})
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.EnableGuestMode(ctx))

	svc := NewChatService(sess, store, api, nil)
	t.Cleanup(svc.Close)

	reply, err := svc.Send(ctx, "what is this note about?", "note-1")
	require.NoError(t, err)
	require.False(t, reply.IsUser)
	require.Equal(t, "echo: what is this note about?", reply.Content)
	require.Equal(t, "note-1", reply.NoteID)

	// Both sides of the exchange are persisted on-device, oldest first.
	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.True(t, history[0].IsUser)
	require.Equal(t, common.GuestUserID, history[0].UserID)
	require.False(t, history[1].IsUser)
}

func TestChat_GuestHistorySurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, models.ChatResponse{Message: "hi", Timestamp: time.Now().UTC()})
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.EnableGuestMode(ctx))

	svc := NewChatService(sess, store, api, nil)
	_, err := svc.Send(ctx, "hello", "")
	require.NoError(t, err)
	svc.Close()

	svc2 := NewChatService(sess, store, api, nil)
	t.Cleanup(svc2.Close)
	history, err := svc2.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestChat_GuestClearWipesHistory(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, models.ChatResponse{Message: "hi", Timestamp: time.Now().UTC()})
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.EnableGuestMode(ctx))

	svc := NewChatService(sess, store, api, nil)
	t.Cleanup(svc.Close)

	_, err := svc.Send(ctx, "hello", "")
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx))

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestChat_AuthenticatedSendUsesServerHistory(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	asked := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeData(t, w, models.AuthResponse{User: models.User{ID: "u1", Username: "alice"}, Token: signedToken(t, "u1", "alice")})
		case "/chat/message":
			require.NotEmpty(t, r.Header.Get("Authorization"))
			writeData(t, w, models.ChatResponse{Message: "server reply", UserID: "u1", Timestamp: asked})
		case "/chat/history":
			require.NotEmpty(t, r.Header.Get("Authorization"))
			writeData(t, w, []models.ChatMessage{
				{ID: "m1", Content: "question", IsUser: true, UserID: "u1", CreatedAt: asked.Add(-time.Minute)},
				{ID: "m2", Content: "server reply", IsUser: false, UserID: "u1", CreatedAt: asked},
			})
		default:
			writeAPIError(t, w, http.StatusNotFound, "no route")
		}
	}))
	sess := NewSession(api, store, nil)
	svc := NewChatService(sess, store, api, nil)
	t.Cleanup(svc.Close)

	_, err := sess.Login(ctx, models.LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	reply, err := svc.Send(ctx, "question", "")
	require.NoError(t, err)
	require.Equal(t, "server reply", reply.Content)
	require.Equal(t, asked, reply.CreatedAt)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "m1", history[0].ID)

	// Nothing was written to the guest blob.
	blob, err := store.Get(ctx, common.StorageKeyGuestChat)
	require.NoError(t, err)
	require.Nil(t, blob)
}

func TestChat_AssistantFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(t, w, http.StatusServiceUnavailable, "assistant down")
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.EnableGuestMode(ctx))

	svc := NewChatService(sess, store, api, nil)
	t.Cleanup(svc.Close)

	_, err := svc.Send(ctx, "hello?", "")
	require.ErrorIs(t, err, common.ErrUnavailable)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.True(t, history[0].IsUser)
}
