package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/nixixoo/Notex/internal/client/models"
	"github.com/nixixoo/Notex/internal/common"
)

func signedToken(t *testing.T, sub, username string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      sub,
		"username": username,
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestRestore_NothingStored(t *testing.T) {
	store := newMemStore()
	sess := NewSession(unusedAPI(t, store), store, nil)

	require.NoError(t, sess.Restore(context.Background()))
	require.Equal(t, ModeUninitialized, sess.Mode())
	require.False(t, sess.IsActive())
	require.Equal(t, "", sess.OwnerID())
}

func TestRestore_GuestFlag(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Set(ctx, common.StorageKeyGuestMode, []byte("true")))

	sess := NewSession(unusedAPI(t, store), store, nil)
	require.NoError(t, sess.Restore(ctx))

	require.Equal(t, ModeGuest, sess.Mode())
	require.True(t, sess.IsActive())
	require.Equal(t, common.GuestUserID, sess.OwnerID())
	require.Nil(t, sess.CurrentUser())
}

func TestRestore_TokenWithCachedProfile(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Set(ctx, common.StorageKeyAuthToken, []byte(signedToken(t, "u1", "alice"))))
	blob, err := json.Marshal(models.User{ID: "u1", Username: "alice"})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, common.StorageKeyUser, blob))

	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		writeData(t, w, models.User{ID: "u1", Username: "alice"})
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.Restore(ctx))

	// Authenticated immediately from the cached profile, before the
	// background verification completes.
	require.Equal(t, ModeAuthenticated, sess.Mode())
	require.Equal(t, "u1", sess.OwnerID())

	u := sess.CurrentUser()
	require.NotNil(t, u)
	require.Equal(t, "alice", u.Username)
}

func TestRestore_TokenWithoutProfileFallsBackToClaims(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Set(ctx, common.StorageKeyAuthToken, []byte(signedToken(t, "u7", "bob"))))

	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, models.User{ID: "u7", Username: "bob"})
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.Restore(ctx))

	require.Equal(t, ModeAuthenticated, sess.Mode())
	require.Equal(t, "u7", sess.OwnerID())
}

func TestRestore_RejectedTokenResetsSession(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Set(ctx, common.StorageKeyAuthToken, []byte(signedToken(t, "u1", "alice"))))

	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(t, w, http.StatusUnauthorized, "token expired")
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.Restore(ctx))

	require.Eventually(t, func() bool {
		return sess.Mode() == ModeUninitialized
	}, 2*time.Second, 10*time.Millisecond)

	token, err := store.Get(ctx, common.StorageKeyAuthToken)
	require.NoError(t, err)
	require.Nil(t, token)
}

func TestRestore_VerificationOutageKeepsSession(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Set(ctx, common.StorageKeyAuthToken, []byte(signedToken(t, "u1", "alice"))))

	var calls atomic.Int32
	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(t, w, http.StatusInternalServerError, "down")
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.Restore(ctx))

	// Wait until the background verification has exhausted its retries.
	require.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, ModeAuthenticated, sess.Mode())
	token, err := store.Get(ctx, common.StorageKeyAuthToken)
	require.NoError(t, err)
	require.NotNil(t, token)
}

func TestLogin_PersistsSessionAndEndsGuestMode(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))

		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "alice", req.Username)

		writeData(t, w, models.AuthResponse{
			User:  models.User{ID: "u1", Username: "alice"},
			Token: signedToken(t, "u1", "alice"),
		})
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.EnableGuestMode(ctx))

	resp, err := sess.Login(ctx, models.LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "u1", resp.User.ID)
	require.Equal(t, ModeAuthenticated, sess.Mode())

	guest, err := store.Get(ctx, common.StorageKeyGuestMode)
	require.NoError(t, err)
	require.Nil(t, guest, "logging in must clear the guest flag")

	token, ok := NewStoredTokenSource(store).Token(ctx)
	require.True(t, ok)
	require.Equal(t, resp.Token, token)
}

func TestLogin_FailureLeavesModeUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(t, w, http.StatusUnauthorized, "bad credentials")
	}))
	sess := NewSession(api, store, nil)
	require.NoError(t, sess.EnableGuestMode(ctx))

	_, err := sess.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	require.Contains(t, err.Error(), "bad credentials")
	require.Equal(t, ModeGuest, sess.Mode())
}

func TestEnableGuestMode_ClearsStaleCredential(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Set(ctx, common.StorageKeyAuthToken, []byte("stale")))

	sess := NewSession(unusedAPI(t, store), store, nil)
	require.NoError(t, sess.EnableGuestMode(ctx))

	require.Equal(t, ModeGuest, sess.Mode())
	_, ok := NewStoredTokenSource(store).Token(ctx)
	require.False(t, ok, "guest requests must never carry a token")
}

func TestLogout_ClearsAllStoredState(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	api := newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, models.AuthResponse{
			User:  models.User{ID: "u1", Username: "alice"},
			Token: signedToken(t, "u1", "alice"),
		})
	}))
	sess := NewSession(api, store, nil)
	_, err := sess.Login(ctx, models.LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, sess.Logout(ctx))
	require.Equal(t, ModeUninitialized, sess.Mode())
	require.False(t, sess.IsActive())

	for _, key := range []string{common.StorageKeyAuthToken, common.StorageKeyUser, common.StorageKeyGuestMode} {
		v, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.Nil(t, v)
	}
}

func TestObserve_ReplaysCurrentStateAndEmitsTransitions(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sess := NewSession(unusedAPI(t, store), store, nil)

	ch, cancel := sess.Observe()
	defer cancel()

	st := <-ch
	require.Equal(t, ModeUninitialized, st.Mode)

	require.NoError(t, sess.EnableGuestMode(ctx))
	st = <-ch
	require.Equal(t, ModeGuest, st.Mode)
}

func TestStoredTokenSource_GuestFlagSuppressesStaleToken(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Set(ctx, common.StorageKeyAuthToken, []byte("stale")))
	require.NoError(t, store.Set(ctx, common.StorageKeyGuestMode, []byte("true")))

	_, ok := NewStoredTokenSource(store).Token(ctx)
	require.False(t, ok)
}
