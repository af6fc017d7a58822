package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nixixoo/Notex/internal/client/client"
	"github.com/nixixoo/Notex/internal/client/models"
	"github.com/nixixoo/Notex/internal/client/observe"
	"github.com/nixixoo/Notex/internal/client/repositories/kv"
	"github.com/nixixoo/Notex/internal/common"
	"github.com/nixixoo/Notex/internal/logging"
)

// chatBackend is the persistence strategy behind ChatService. History keeps
// conversation order (oldest first). Ask performs the assistant round trip:
// the guest variant hits the credential-free endpoint, the remote variant the
// authenticated one (which also persists history server-side, so its Append
// is a no-op).
type chatBackend interface {
	History(ctx context.Context) ([]models.ChatMessage, error)
	Append(ctx context.Context, msg models.ChatMessage) error
	Ask(ctx context.Context, req models.SendMessageRequest) (*models.ChatResponse, error)
	Clear(ctx context.Context) error
}

// ---------------------------------------------------------------------------
// local (guest) backend
// ---------------------------------------------------------------------------

type localChat struct {
	col *kv.Collection[models.ChatMessage]
	api *client.Client
}

func newLocalChat(store kv.Repository, api *client.Client) *localChat {
	return &localChat{
		col: kv.NewCollection[models.ChatMessage](store, common.StorageKeyGuestChat),
		api: api,
	}
}

func (l *localChat) History(ctx context.Context) ([]models.ChatMessage, error) {
	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	sortMessages(items)
	return items, nil
}

func (l *localChat) Append(ctx context.Context, msg models.ChatMessage) error {
	items, err := l.col.Load(ctx)
	if err != nil {
		return err
	}
	return l.col.Save(ctx, append(items, msg))
}

// Ask uses the guest chat endpoint; the token source suppresses the bearer
// header while the guest flag is set, so no credential can leak here.
func (l *localChat) Ask(ctx context.Context, req models.SendMessageRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := l.api.Post(ctx, "chat/guest/message", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (l *localChat) Clear(ctx context.Context) error {
	return l.col.Save(ctx, []models.ChatMessage{})
}

// ---------------------------------------------------------------------------
// remote backend
// ---------------------------------------------------------------------------

type remoteChat struct {
	api *client.Client
}

func newRemoteChat(api *client.Client) *remoteChat {
	return &remoteChat{api: api}
}

func (r *remoteChat) History(ctx context.Context) ([]models.ChatMessage, error) {
	var items []models.ChatMessage
	if err := r.api.Get(ctx, "chat/history", &items); err != nil {
		return nil, err
	}
	sortMessages(items)
	return items, nil
}

// Append is a no-op: the authenticated chat endpoint persists both sides of
// the exchange server-side.
func (r *remoteChat) Append(ctx context.Context, msg models.ChatMessage) error {
	return nil
}

func (r *remoteChat) Ask(ctx context.Context, req models.SendMessageRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := r.api.Post(ctx, "chat/message", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear drops only the client-side view; there is no history deletion
// endpoint.
func (r *remoteChat) Clear(ctx context.Context) error {
	return nil
}

// ---------------------------------------------------------------------------
// service
// ---------------------------------------------------------------------------

// ChatService synchronizes the assistant conversation. Same dual-mode
// contract as the other services; a message may reference the note it was
// asked about.
type ChatService struct {
	sess   *Session
	local  chatBackend
	remote chatBackend
	cache  *observe.Value[[]models.ChatMessage]
	log    logging.Logger

	mu          sync.Mutex
	cancelWatch func()
}

func NewChatService(sess *Session, store kv.Repository, api *client.Client, log logging.Logger) *ChatService {
	if log == nil {
		log = logging.Discard()
	}
	s := &ChatService{
		sess:   sess,
		local:  newLocalChat(store, api),
		remote: newRemoteChat(api),
		cache:  observe.NewValue[[]models.ChatMessage](),
		log:    log.With("component", "chat"),
	}
	ch, cancel := sess.Observe()
	s.cancelWatch = cancel
	go watchSession(ch, func(ctx context.Context) {
		// Discard the previous mode's messages before fetching: if the
		// reload fails the conversation shows empty, never the other
		// mode's history.
		s.cache.Set([]models.ChatMessage{})
		if err := s.Reload(ctx); err != nil {
			s.log.Warn(ctx, "cache reload failed", "error", err)
		}
	})
	return s
}

func (s *ChatService) Close() {
	s.cancelWatch()
}

// Observe returns the reactive conversation stream, oldest message first.
func (s *ChatService) Observe() (<-chan []models.ChatMessage, func()) {
	return s.cache.Subscribe()
}

func (s *ChatService) backend() chatBackend {
	switch s.sess.Mode() {
	case ModeGuest:
		return s.local
	case ModeAuthenticated:
		return s.remote
	}
	return nil
}

func (s *ChatService) Reload(ctx context.Context) error {
	b := s.backend()
	if b == nil {
		s.cache.Set([]models.ChatMessage{})
		return nil
	}
	items, err := b.History(ctx)
	if err != nil {
		return err
	}
	s.cache.Set(items)
	return nil
}

// History is a one-shot fetch of the conversation.
func (s *ChatService) History(ctx context.Context) ([]models.ChatMessage, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	return b.History(ctx)
}

// Send records the user message, asks the assistant, records the reply and
// returns it. The user message reaches the cache before the round trip so
// the conversation renders immediately. If the assistant call fails, the
// user message is kept and the error is returned for the caller to surface.
func (s *ChatService) Send(ctx context.Context, content, noteID string) (*models.ChatMessage, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}

	userMsg := models.ChatMessage{
		ID:        uuid.NewString(),
		Content:   content,
		IsUser:    true,
		NoteID:    noteID,
		UserID:    s.sess.OwnerID(),
		CreatedAt: time.Now().UTC(),
	}
	if err := b.Append(ctx, userMsg); err != nil {
		return nil, err
	}
	s.cacheAppend(userMsg)

	resp, err := b.Ask(ctx, models.SendMessageRequest{Message: content, NoteID: noteID})
	if err != nil {
		return nil, err
	}

	reply := models.ChatMessage{
		ID:        uuid.NewString(),
		Content:   resp.Message,
		IsUser:    false,
		NoteID:    noteID,
		UserID:    userMsg.UserID,
		CreatedAt: resp.Timestamp,
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}
	if err := b.Append(ctx, reply); err != nil {
		return nil, err
	}

	if b == s.remote {
		// The server's copy of the exchange is authoritative.
		if err := s.Reload(ctx); err != nil {
			s.log.Warn(ctx, "cache reload after send failed", "error", err)
		}
	} else {
		s.cacheAppend(reply)
	}
	return &reply, nil
}

// Clear empties the visible conversation (and the guest history blob).
func (s *ChatService) Clear(ctx context.Context) error {
	b := s.backend()
	if b == nil {
		return common.ErrUnauthenticated
	}
	if err := b.Clear(ctx); err != nil {
		return err
	}
	s.cache.Set([]models.ChatMessage{})
	return nil
}

func (s *ChatService) cacheAppend(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, _ := s.cache.Get()
	next := make([]models.ChatMessage, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, msg)
	s.cache.Set(next)
}

func sortMessages(items []models.ChatMessage) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
