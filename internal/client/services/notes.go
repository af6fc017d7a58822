package services

import (
	"context"
	"fmt"
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

// notesBackend is the persistence strategy behind NotesService. The local
// variant serves guest mode from the on-device store; the remote variant
// talks to the API. The service swaps the active one on mode change, so no
// method ever branches on mode itself.
type notesBackend interface {
	List(ctx context.Context, f models.NoteFilter) ([]models.Note, error)
	GetByID(ctx context.Context, id string) (*models.Note, error)
	Create(ctx context.Context, req models.CreateNoteRequest) (*models.Note, error)
	Update(ctx context.Context, id string, req models.UpdateNoteRequest) (*models.Note, error)
	Delete(ctx context.Context, id string) (bool, error)
	Counts(ctx context.Context) (*models.NoteCounts, error)
}

// ---------------------------------------------------------------------------
// local backend
// ---------------------------------------------------------------------------

type localNotes struct {
	col *kv.Collection[models.Note]
}

func newLocalNotes(store kv.Repository) *localNotes {
	return &localNotes{col: kv.NewCollection[models.Note](store, common.StorageKeyGuestNotes)}
}

func (l *localNotes) List(ctx context.Context, f models.NoteFilter) ([]models.Note, error) {
	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]models.Note, 0, len(items))
	for _, n := range items {
		if f.Match(n) {
			result = append(result, n)
		}
	}
	sortNotes(result)
	return result, nil
}

func (l *localNotes) GetByID(ctx context.Context, id string) (*models.Note, error) {
	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range items {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, common.ErrNotFound
}

func (l *localNotes) Create(ctx context.Context, req models.CreateNoteRequest) (*models.Note, error) {
	now := time.Now().UTC()
	note := models.Note{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Subtitle:  req.Subtitle,
		Content:   req.Content,
		Status:    models.NoteStatusActive,
		GroupID:   req.GroupID,
		UserID:    common.GuestUserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	items = append([]models.Note{note}, items...)
	if err := l.col.Save(ctx, items); err != nil {
		return nil, err
	}
	return &note, nil
}

func (l *localNotes) Update(ctx context.Context, id string, req models.UpdateNoteRequest) (*models.Note, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid note status %q", common.ErrValidation, *req.Status)
	}

	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID != id {
			continue
		}
		note := items[i]
		req.Apply(&note)
		note.UpdatedAt = time.Now().UTC()
		items[i] = note
		if err := l.col.Save(ctx, items); err != nil {
			return nil, err
		}
		return &note, nil
	}
	return nil, common.ErrNotFound
}

func (l *localNotes) Delete(ctx context.Context, id string) (bool, error) {
	items, err := l.col.Load(ctx)
	if err != nil {
		return false, err
	}
	kept := items[:0:0]
	for _, n := range items {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	if err := l.col.Save(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

func (l *localNotes) Counts(ctx context.Context) (*models.NoteCounts, error) {
	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	counts := &models.NoteCounts{}
	for _, n := range items {
		switch n.Status {
		case models.NoteStatusArchived:
			counts.Archived++
		case models.NoteStatusTrashed:
			counts.Trashed++
		default:
			counts.Active++
		}
	}
	return counts, nil
}

// ---------------------------------------------------------------------------
// remote backend
// ---------------------------------------------------------------------------

type remoteNotes struct {
	api *client.Client
}

func newRemoteNotes(api *client.Client) *remoteNotes {
	return &remoteNotes{api: api}
}

func (r *remoteNotes) List(ctx context.Context, f models.NoteFilter) ([]models.Note, error) {
	var items []models.Note
	if err := r.api.Get(ctx, "notes?"+f.Query().Encode(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *remoteNotes) GetByID(ctx context.Context, id string) (*models.Note, error) {
	var note models.Note
	if err := r.api.Get(ctx, "notes/"+id, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *remoteNotes) Create(ctx context.Context, req models.CreateNoteRequest) (*models.Note, error) {
	var note models.Note
	if err := r.api.Post(ctx, "notes", req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *remoteNotes) Update(ctx context.Context, id string, req models.UpdateNoteRequest) (*models.Note, error) {
	var note models.Note
	if err := r.api.Put(ctx, "notes/"+id, req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *remoteNotes) Delete(ctx context.Context, id string) (bool, error) {
	err := r.api.Delete(ctx, "notes/"+id, nil)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (r *remoteNotes) Counts(ctx context.Context) (*models.NoteCounts, error) {
	var counts models.NoteCounts
	if err := r.api.Get(ctx, "notes/counts", &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

// ---------------------------------------------------------------------------
// service
// ---------------------------------------------------------------------------

// NotesService is the resource synchronization service for notes. It owns
// the reactive "currently visible collection" and re-derives it whenever the
// session mode or the active filter changes.
//
// Racing mutations on the same note are last-write-wins; there is no
// optimistic lock. Mutations in flight during a mode switch may land on the
// previous mode's backing store.
type NotesService struct {
	sess   *Session
	local  notesBackend
	remote notesBackend
	cache  *observe.Value[[]models.Note]
	log    logging.Logger

	mu     sync.Mutex
	filter models.NoteFilter

	cancelWatch func()
}

func NewNotesService(sess *Session, store kv.Repository, api *client.Client, log logging.Logger) *NotesService {
	if log == nil {
		log = logging.Discard()
	}
	s := &NotesService{
		sess:   sess,
		local:  newLocalNotes(store),
		remote: newRemoteNotes(api),
		cache:  observe.NewValue[[]models.Note](),
		log:    log.With("component", "notes"),
	}
	ch, cancel := sess.Observe()
	s.cancelWatch = cancel
	go watchSession(ch, func(ctx context.Context) {
		// Discard the previous mode's items before fetching: if the
		// reload fails the collection shows empty, never the other
		// mode's data.
		s.cache.Set([]models.Note{})
		if err := s.Reload(ctx); err != nil {
			s.log.Warn(ctx, "cache reload failed", "error", err)
		}
	})
	return s
}

// Close stops the mode watcher. In-flight requests are not aborted.
func (s *NotesService) Close() {
	s.cancelWatch()
}

// Observe returns the reactive collection stream: the latest visible set at
// subscribe time, then an emission after every mode change or successful
// mutation. Consumers must not mutate the emitted slices.
func (s *NotesService) Observe() (<-chan []models.Note, func()) {
	return s.cache.Subscribe()
}

func (s *NotesService) backend() notesBackend {
	switch s.sess.Mode() {
	case ModeGuest:
		return s.local
	case ModeAuthenticated:
		return s.remote
	}
	return nil
}

// Filter returns the active cache filter.
func (s *NotesService) Filter() models.NoteFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter changes the visible subset and reloads the cache.
func (s *NotesService) SetFilter(ctx context.Context, f models.NoteFilter) error {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	return s.Reload(ctx)
}

// Reload re-derives the cache from the active backing store. With no active
// mode the visible collection is empty.
func (s *NotesService) Reload(ctx context.Context) error {
	b := s.backend()
	if b == nil {
		s.cache.Set([]models.Note{})
		return nil
	}
	items, err := b.List(ctx, s.Filter())
	if err != nil {
		return err
	}
	s.cache.Set(items)
	return nil
}

// List is a one-shot fetch with the given filter; it does not touch the
// cache. Both backends produce filter-equivalent results.
func (s *NotesService) List(ctx context.Context, f models.NoteFilter) ([]models.Note, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	return b.List(ctx, f)
}

// GetByID returns the note or common.ErrNotFound.
func (s *NotesService) GetByID(ctx context.Context, id string) (*models.Note, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	return b.GetByID(ctx, id)
}

// Create stores a new note. In guest mode the id and timestamps are
// synthesized client-side and the cache is updated synchronously; when
// authenticated the server assigns them and the cache is reloaded from the
// now-authoritative state. Without an active mode the call fails before any
// write happens.
func (s *NotesService) Create(ctx context.Context, req models.CreateNoteRequest) (*models.Note, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	note, err := b.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, b, func() { s.cacheUpsert(*note) })
	return note, nil
}

// Update merges the partial fields onto the note, bumping UpdatedAt.
func (s *NotesService) Update(ctx context.Context, id string, req models.UpdateNoteRequest) (*models.Note, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	note, err := b.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, b, func() { s.cacheUpsert(*note) })
	return note, nil
}

// Remove permanently deletes the note from any status. It reports whether an
// item was actually removed; removing an unknown id is not an error.
func (s *NotesService) Remove(ctx context.Context, id string) (bool, error) {
	b := s.backend()
	if b == nil {
		return false, common.ErrUnauthenticated
	}
	removed, err := b.Delete(ctx, id)
	if err != nil || !removed {
		return removed, err
	}
	s.afterMutation(ctx, b, func() { s.cacheRemove(id) })
	return true, nil
}

// Archive moves an active note to archived.
func (s *NotesService) Archive(ctx context.Context, id string) (*models.Note, error) {
	return s.setStatus(ctx, id, models.NoteStatusArchived)
}

// Trash moves an active note to trashed. Archived notes must be restored
// first; there is no direct archived-to-trashed transition.
func (s *NotesService) Trash(ctx context.Context, id string) (*models.Note, error) {
	return s.setStatus(ctx, id, models.NoteStatusTrashed)
}

// Restore brings an archived or trashed note back to active.
func (s *NotesService) Restore(ctx context.Context, id string) (*models.Note, error) {
	return s.setStatus(ctx, id, models.NoteStatusActive)
}

// setStatus is the single enforcement point of the status state machine;
// the transitions themselves are plain partial updates.
func (s *NotesService) setStatus(ctx context.Context, id string, next models.NoteStatus) (*models.Note, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: cannot move note from %s to %s", common.ErrValidation, current.Status, next)
	}
	return s.Update(ctx, id, models.UpdateNoteRequest{Status: &next})
}

// Counts returns the per-status tally from the active backing store.
func (s *NotesService) Counts(ctx context.Context) (*models.NoteCounts, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	return b.Counts(ctx)
}

// afterMutation applies the cache consequence of a successful mutation:
// local (guest) writes patch the cache synchronously, remote ones trigger a
// full reload because the server may have applied side effects the client
// cannot see.
func (s *NotesService) afterMutation(ctx context.Context, b notesBackend, patch func()) {
	if b == s.local {
		patch()
		return
	}
	if err := s.Reload(ctx); err != nil {
		s.log.Warn(ctx, "cache reload after mutation failed", "error", err)
	}
}

// cacheUpsert replaces (or inserts) the note in the cached visible set,
// honoring the active filter.
func (s *NotesService) cacheUpsert(note models.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, _ := s.cache.Get()
	next := make([]models.Note, 0, len(current)+1)
	if s.filter.Match(note) {
		next = append(next, note)
	}
	for _, n := range current {
		if n.ID != note.ID {
			next = append(next, n)
		}
	}
	sortNotes(next)
	s.cache.Set(next)
}

func (s *NotesService) cacheRemove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, _ := s.cache.Get()
	next := make([]models.Note, 0, len(current))
	for _, n := range current {
		if n.ID != id {
			next = append(next, n)
		}
	}
	s.cache.Set(next)
}

// sortNotes orders a collection most-recently-updated first, matching the
// server's ordering so both paths stay filter-equivalent.
func sortNotes(items []models.Note) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
}
