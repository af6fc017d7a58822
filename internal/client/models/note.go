// Package models defines the resource types exchanged between the Notex
// services, the on-device store and the remote API. All timestamps are
// serialized as RFC-3339 strings.
package models

import (
	"net/url"
	"time"
)

// NoteStatus is the soft-delete state of a note.
type NoteStatus string

const (
	NoteStatusActive   NoteStatus = "active"
	NoteStatusArchived NoteStatus = "archived"
	NoteStatusTrashed  NoteStatus = "trashed"

	// NoteStatusAll is a filter-only value matching every status.
	NoteStatusAll NoteStatus = "all"
)

// Valid reports whether s is a storable note status (filter-only values
// excluded).
func (s NoteStatus) Valid() bool {
	switch s {
	case NoteStatusActive, NoteStatusArchived, NoteStatusTrashed:
		return true
	}
	return false
}

// CanTransition reports whether a stored note may move from s to next.
// Archived notes cannot be trashed directly; they must be restored first.
func (s NoteStatus) CanTransition(next NoteStatus) bool {
	switch s {
	case NoteStatusActive:
		return next == NoteStatusArchived || next == NoteStatusTrashed
	case NoteStatusArchived, NoteStatusTrashed:
		return next == NoteStatusActive
	}
	return false
}

type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Subtitle  string     `json:"subtitle"`
	Content   string     `json:"content"`
	Status    NoteStatus `json:"status"`
	GroupID   string     `json:"groupId,omitempty"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CreateNoteRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Content  string `json:"content,omitempty"`
	GroupID  string `json:"groupId,omitempty"`
}

// UpdateNoteRequest carries a partial update. Nil fields are left unchanged.
type UpdateNoteRequest struct {
	Title    *string     `json:"title,omitempty"`
	Subtitle *string     `json:"subtitle,omitempty"`
	Content  *string     `json:"content,omitempty"`
	Status   *NoteStatus `json:"status,omitempty"`
	GroupID  *string     `json:"groupId,omitempty"`
}

// Apply merges the partial update onto n. The caller bumps UpdatedAt.
func (r UpdateNoteRequest) Apply(n *Note) {
	if r.Title != nil {
		n.Title = *r.Title
	}
	if r.Subtitle != nil {
		n.Subtitle = *r.Subtitle
	}
	if r.Content != nil {
		n.Content = *r.Content
	}
	if r.Status != nil {
		n.Status = *r.Status
	}
	if r.GroupID != nil {
		n.GroupID = *r.GroupID
	}
}

// NoteFilter selects the visible subset of notes. The zero value means
// "active notes in any group".
type NoteFilter struct {
	Status  NoteStatus
	GroupID string
}

// Match is the client-side predicate used when notes are served from the
// on-device store. It must stay filter-equivalent with Query.
func (f NoteFilter) Match(n Note) bool {
	status := f.Status
	if status == "" {
		status = NoteStatusActive
	}
	if status != NoteStatusAll && n.Status != status {
		return false
	}
	if f.GroupID != "" && n.GroupID != f.GroupID {
		return false
	}
	return true
}

// Query serializes the filter for the server-side path.
func (f NoteFilter) Query() url.Values {
	v := url.Values{}
	status := f.Status
	if status == "" {
		status = NoteStatusActive
	}
	v.Set("status", string(status))
	if f.GroupID != "" {
		v.Set("groupId", f.GroupID)
	}
	return v
}

// NoteCounts is the per-status note tally shown in the sidebar.
type NoteCounts struct {
	Active   int `json:"active"`
	Archived int `json:"archived"`
	Trashed  int `json:"trashed"`
}
