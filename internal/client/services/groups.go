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

// groupsBackend mirrors notesBackend for note groups. Notes returns the
// active notes that belong to a group, used by the group detail view.
type groupsBackend interface {
	List(ctx context.Context) ([]models.Group, error)
	GetByID(ctx context.Context, id string) (*models.Group, error)
	Create(ctx context.Context, req models.CreateGroupRequest) (*models.Group, error)
	Update(ctx context.Context, id string, req models.UpdateGroupRequest) (*models.Group, error)
	Delete(ctx context.Context, id string) (bool, error)
	Notes(ctx context.Context, id string) ([]models.Note, error)
}

// ---------------------------------------------------------------------------
// local backend
// ---------------------------------------------------------------------------

type localGroups struct {
	col   *kv.Collection[models.Group]
	notes *kv.Collection[models.Note]
}

func newLocalGroups(store kv.Repository) *localGroups {
	return &localGroups{
		col:   kv.NewCollection[models.Group](store, common.StorageKeyGuestGroups),
		notes: kv.NewCollection[models.Note](store, common.StorageKeyGuestNotes),
	}
}

func (l *localGroups) List(ctx context.Context) ([]models.Group, error) {
	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	sortGroups(items)
	return items, nil
}

func (l *localGroups) GetByID(ctx context.Context, id string) (*models.Group, error) {
	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range items {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, common.ErrNotFound
}

func (l *localGroups) Create(ctx context.Context, req models.CreateGroupRequest) (*models.Group, error) {
	now := time.Now().UTC()
	group := models.Group{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		UserID:      common.GuestUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	items = append([]models.Group{group}, items...)
	if err := l.col.Save(ctx, items); err != nil {
		return nil, err
	}
	return &group, nil
}

func (l *localGroups) Update(ctx context.Context, id string, req models.UpdateGroupRequest) (*models.Group, error) {
	items, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID != id {
			continue
		}
		group := items[i]
		req.Apply(&group)
		group.UpdatedAt = time.Now().UTC()
		items[i] = group
		if err := l.col.Save(ctx, items); err != nil {
			return nil, err
		}
		return &group, nil
	}
	return nil, common.ErrNotFound
}

func (l *localGroups) Delete(ctx context.Context, id string) (bool, error) {
	items, err := l.col.Load(ctx)
	if err != nil {
		return false, err
	}
	kept := items[:0:0]
	for _, g := range items {
		if g.ID != id {
			kept = append(kept, g)
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

func (l *localGroups) Notes(ctx context.Context, id string) ([]models.Note, error) {
	items, err := l.notes.Load(ctx)
	if err != nil {
		return nil, err
	}
	f := models.NoteFilter{Status: models.NoteStatusActive, GroupID: id}
	result := make([]models.Note, 0, len(items))
	for _, n := range items {
		if f.Match(n) {
			result = append(result, n)
		}
	}
	sortNotes(result)
	return result, nil
}

// ---------------------------------------------------------------------------
// remote backend
// ---------------------------------------------------------------------------

type remoteGroups struct {
	api *client.Client
}

func newRemoteGroups(api *client.Client) *remoteGroups {
	return &remoteGroups{api: api}
}

func (r *remoteGroups) List(ctx context.Context) ([]models.Group, error) {
	var items []models.Group
	if err := r.api.Get(ctx, "groups", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *remoteGroups) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.api.Get(ctx, "groups/"+id, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *remoteGroups) Create(ctx context.Context, req models.CreateGroupRequest) (*models.Group, error) {
	var group models.Group
	if err := r.api.Post(ctx, "groups", req, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *remoteGroups) Update(ctx context.Context, id string, req models.UpdateGroupRequest) (*models.Group, error) {
	var group models.Group
	if err := r.api.Put(ctx, "groups/"+id, req, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *remoteGroups) Delete(ctx context.Context, id string) (bool, error) {
	err := r.api.Delete(ctx, "groups/"+id, nil)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (r *remoteGroups) Notes(ctx context.Context, id string) ([]models.Note, error) {
	var items []models.Note
	if err := r.api.Get(ctx, "groups/"+id+"/notes", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// service
// ---------------------------------------------------------------------------

// GroupsService is the resource synchronization service for note groups.
// Same contract and mode behavior as NotesService; groups have no filter,
// the visible collection is always the full set.
type GroupsService struct {
	sess   *Session
	local  groupsBackend
	remote groupsBackend
	cache  *observe.Value[[]models.Group]
	log    logging.Logger

	mu          sync.Mutex
	cancelWatch func()
}

func NewGroupsService(sess *Session, store kv.Repository, api *client.Client, log logging.Logger) *GroupsService {
	if log == nil {
		log = logging.Discard()
	}
	s := &GroupsService{
		sess:   sess,
		local:  newLocalGroups(store),
		remote: newRemoteGroups(api),
		cache:  observe.NewValue[[]models.Group](),
		log:    log.With("component", "groups"),
	}
	ch, cancel := sess.Observe()
	s.cancelWatch = cancel
	go watchSession(ch, func(ctx context.Context) {
		// Discard the previous mode's items before fetching: if the
		// reload fails the collection shows empty, never the other
		// mode's data.
		s.cache.Set([]models.Group{})
		if err := s.Reload(ctx); err != nil {
			s.log.Warn(ctx, "cache reload failed", "error", err)
		}
	})
	return s
}

func (s *GroupsService) Close() {
	s.cancelWatch()
}

// Observe returns the reactive group collection stream.
func (s *GroupsService) Observe() (<-chan []models.Group, func()) {
	return s.cache.Subscribe()
}

func (s *GroupsService) backend() groupsBackend {
	switch s.sess.Mode() {
	case ModeGuest:
		return s.local
	case ModeAuthenticated:
		return s.remote
	}
	return nil
}

func (s *GroupsService) Reload(ctx context.Context) error {
	b := s.backend()
	if b == nil {
		s.cache.Set([]models.Group{})
		return nil
	}
	items, err := b.List(ctx)
	if err != nil {
		return err
	}
	s.cache.Set(items)
	return nil
}

func (s *GroupsService) List(ctx context.Context) ([]models.Group, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	return b.List(ctx)
}

func (s *GroupsService) GetByID(ctx context.Context, id string) (*models.Group, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	return b.GetByID(ctx, id)
}

func (s *GroupsService) Create(ctx context.Context, req models.CreateGroupRequest) (*models.Group, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	group, err := b.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, b, func() { s.cacheUpsert(*group) })
	return group, nil
}

func (s *GroupsService) Update(ctx context.Context, id string, req models.UpdateGroupRequest) (*models.Group, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	group, err := b.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, b, func() { s.cacheUpsert(*group) })
	return group, nil
}

// Remove deletes the group; notes keep their groupId and simply become
// ungrouped on the server side. Idempotent.
func (s *GroupsService) Remove(ctx context.Context, id string) (bool, error) {
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

// NotesInGroup lists the active notes belonging to the group.
func (s *GroupsService) NotesInGroup(ctx context.Context, id string) ([]models.Note, error) {
	b := s.backend()
	if b == nil {
		return nil, common.ErrUnauthenticated
	}
	return b.Notes(ctx, id)
}

// Count returns the number of groups visible to the current identity.
func (s *GroupsService) Count(ctx context.Context) (int, error) {
	items, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *GroupsService) afterMutation(ctx context.Context, b groupsBackend, patch func()) {
	if b == s.local {
		patch()
		return
	}
	if err := s.Reload(ctx); err != nil {
		s.log.Warn(ctx, "cache reload after mutation failed", "error", err)
	}
}

func (s *GroupsService) cacheUpsert(group models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, _ := s.cache.Get()
	next := make([]models.Group, 0, len(current)+1)
	next = append(next, group)
	for _, g := range current {
		if g.ID != group.ID {
			next = append(next, g)
		}
	}
	sortGroups(next)
	s.cache.Set(next)
}

func (s *GroupsService) cacheRemove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, _ := s.cache.Get()
	next := make([]models.Group, 0, len(current))
	for _, g := range current {
		if g.ID != id {
			next = append(next, g)
		}
	}
	s.cache.Set(next)
}

func sortGroups(items []models.Group) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
}
