// Package services contains the Notex client services: the session/mode
// authority and the resource synchronization services for notes, groups and
// chat. Every data-access service presents one reactive collection plus CRUD
// methods, transparently backed by the on-device store (guest mode) or the
// remote API (authenticated mode).
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nixixoo/Notex/internal/client/client"
	"github.com/nixixoo/Notex/internal/client/models"
	"github.com/nixixoo/Notex/internal/client/observe"
	"github.com/nixixoo/Notex/internal/client/repositories/kv"
	"github.com/nixixoo/Notex/internal/common"
	"github.com/nixixoo/Notex/internal/logging"
)

// Mode is the persistence mode of the session.
type Mode string

const (
	ModeUninitialized Mode = "uninitialized"
	ModeGuest         Mode = "guest"
	ModeAuthenticated Mode = "authenticated"
)

// SessionState is the snapshot published to observers on every transition.
type SessionState struct {
	Mode   Mode
	UserID string
}

// Active reports whether data operations are allowed in this state.
func (s SessionState) Active() bool {
	return s.Mode == ModeGuest || s.Mode == ModeAuthenticated
}

// Session is the single source of truth for who the current actor is and how
// data must be persisted. It is constructed once at process start and passed
// by reference to every service that needs it.
//
// Exactly one mode is active at a time. Authenticated implies a stored token
// and user; guest implies neither. Switching to one clears the other.
type Session struct {
	api   *client.Client
	store kv.Repository
	log   logging.Logger

	mu    sync.Mutex
	mode  Mode
	user  *models.User
	token string

	state *observe.Value[SessionState]
}

func NewSession(api *client.Client, store kv.Repository, log logging.Logger) *Session {
	if log == nil {
		log = logging.Discard()
	}
	s := &Session{
		api:   api,
		store: store,
		log:   log.With("component", "session"),
		mode:  ModeUninitialized,
		state: observe.NewValue[SessionState](),
	}
	s.state.Set(SessionState{Mode: ModeUninitialized})
	return s
}

// Restore rebuilds the session from the on-device store at startup.
//
// If a token is present the session becomes authenticated immediately using
// the cached profile, and the token is verified against the API in the
// background: only an explicit authorization rejection clears the session;
// any other failure (network, server, timeout) leaves it intact so the user
// keeps working. If no token exists but the guest flag is set, the session
// becomes guest. Otherwise it stays uninitialized.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.store.Get(ctx, common.StorageKeyAuthToken)
	if err != nil {
		return fmt.Errorf("failed to read stored token: %w", err)
	}

	if len(token) > 0 {
		user := s.restoreUser(ctx, string(token))
		s.setAuthenticated(string(token), user)
		go s.verify(context.Background())
		return nil
	}

	guest, err := s.store.Get(ctx, common.StorageKeyGuestMode)
	if err != nil {
		return fmt.Errorf("failed to read guest flag: %w", err)
	}
	if string(guest) == "true" {
		s.setMode(ModeGuest, nil, "")
		return nil
	}

	s.setMode(ModeUninitialized, nil, "")
	return nil
}

// restoreUser recovers the cached profile, falling back to the token's own
// unverified claims when the profile blob is missing or unreadable.
func (s *Session) restoreUser(ctx context.Context, token string) *models.User {
	blob, err := s.store.Get(ctx, common.StorageKeyUser)
	if err == nil && len(blob) > 0 {
		var user models.User
		if err := json.Unmarshal(blob, &user); err == nil && user.ID != "" {
			return &user
		}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		s.log.Warn(ctx, "stored token is not parseable, awaiting verification")
		return &models.User{}
	}
	user := &models.User{}
	if sub, err := claims.GetSubject(); err == nil {
		user.ID = sub
	}
	if name, ok := claims["username"].(string); ok {
		user.Username = name
	}
	return user
}

// verify confirms the restored token against auth/me. Fail open: only an
// explicit rejection resets the session.
func (s *Session) verify(ctx context.Context) {
	var user models.User
	err := s.api.Get(ctx, "auth/me", &user)
	switch {
	case err == nil:
		s.mu.Lock()
		if s.mode == ModeAuthenticated {
			s.user = &user
		}
		s.mu.Unlock()
		s.publish()
	case errors.Is(err, common.ErrUnauthorized):
		s.log.Warn(ctx, "stored token rejected, clearing session", "error", err)
		if err := s.clearStoredState(ctx); err != nil {
			s.log.Error(ctx, "failed to clear stored session state", "error", err)
		}
		s.setMode(ModeUninitialized, nil, "")
	default:
		s.log.Warn(ctx, "token verification failed, keeping session", "error", err)
	}
}

// Login authenticates against the API and persists the session. On failure
// the mode is unchanged and the error is returned as-is for the caller.
func (s *Session) Login(ctx context.Context, creds models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.api.Post(ctx, "auth/login", creds, &resp); err != nil {
		return nil, err
	}
	if err := s.persistAuth(ctx, resp); err != nil {
		return nil, err
	}
	s.setAuthenticated(resp.Token, &resp.User)
	return &resp, nil
}

// Register creates an account and logs the new user in.
func (s *Session) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.api.Post(ctx, "auth/register", req, &resp); err != nil {
		return nil, err
	}
	if err := s.persistAuth(ctx, resp); err != nil {
		return nil, err
	}
	s.setAuthenticated(resp.Token, &resp.User)
	return &resp, nil
}

// EnableGuestMode switches to local-only persistence. Any stored credential
// is cleared first; guest and authenticated are mutually exclusive.
func (s *Session) EnableGuestMode(ctx context.Context) error {
	if err := s.store.Delete(ctx, common.StorageKeyAuthToken); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, common.StorageKeyUser); err != nil {
		return err
	}
	if err := s.store.Set(ctx, common.StorageKeyGuestMode, []byte("true")); err != nil {
		return err
	}
	s.setMode(ModeGuest, nil, "")
	return nil
}

// Logout clears all persisted credential and guest state and resets the
// session to uninitialized.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.clearStoredState(ctx); err != nil {
		return err
	}
	s.setMode(ModeUninitialized, nil, "")
	return nil
}

// IsActive is the single predicate for route and feature gating.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode == ModeGuest || s.mode == ModeAuthenticated
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// CurrentUser returns a copy of the authenticated profile, or nil.
func (s *Session) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// OwnerID is the identity stamped onto items created by this session: the
// guest sentinel in guest mode, the user id when authenticated.
func (s *Session) OwnerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.mode {
	case ModeGuest:
		return common.GuestUserID
	case ModeAuthenticated:
		if s.user != nil {
			return s.user.ID
		}
	}
	return ""
}

// Observe returns the session state stream. The latest state is replayed to
// new subscribers.
func (s *Session) Observe() (<-chan SessionState, func()) {
	return s.state.Subscribe()
}

func (s *Session) persistAuth(ctx context.Context, resp models.AuthResponse) error {
	blob, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("failed to encode user profile: %w", err)
	}
	if err := s.store.Set(ctx, common.StorageKeyAuthToken, []byte(resp.Token)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, common.StorageKeyUser, blob); err != nil {
		return err
	}
	// Logging in ends guest mode.
	return s.store.Delete(ctx, common.StorageKeyGuestMode)
}

func (s *Session) clearStoredState(ctx context.Context) error {
	for _, key := range []string{
		common.StorageKeyAuthToken,
		common.StorageKeyUser,
		common.StorageKeyGuestMode,
	} {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) setAuthenticated(token string, user *models.User) {
	s.setMode(ModeAuthenticated, user, token)
}

func (s *Session) setMode(mode Mode, user *models.User, token string) {
	s.mu.Lock()
	s.mode = mode
	s.user = user
	s.token = token
	s.mu.Unlock()
	s.publish()
}

func (s *Session) publish() {
	s.mu.Lock()
	st := SessionState{Mode: s.mode}
	if s.user != nil {
		st.UserID = s.user.ID
	}
	s.mu.Unlock()
	s.state.Set(st)
}
