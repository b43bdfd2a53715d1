package models

import (
	"strings"
	"time"
)

// Record is a user data item held in the Durable Store.
type Record struct {
	// ID is the local identifier assigned by the store. Zero means unsaved.
	ID int64

	// RemoteID is the identifier assigned by the Remote API; nil until the
	// first successful create.
	RemoteID *int64

	Title     string
	Notes     string
	Completed bool

	// IsSynced is true only when the latest local state has been accepted
	// by the Remote API.
	IsSynced bool

	// CreatedAt and UpdatedAt are unix milliseconds.
	CreatedAt int64
	UpdatedAt int64
}

// Payload is the snapshot of a Record's user-visible fields carried by an
// OutboxItem and sent to the Remote API.
type Payload struct {
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Payload snapshots r.
func (r Record) Payload() Payload {
	return Payload{
		ID:        r.ID,
		Title:     r.Title,
		Notes:     r.Notes,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Fields is a partial update of a Record. Nil pointers leave the field as is.
type Fields struct {
	Title     *string
	Notes     *string
	Completed *bool
}

// Apply merges f into r and reports whether anything changed.
func (f Fields) Apply(r *Record) bool {
	changed := false
	if f.Title != nil && *f.Title != r.Title {
		r.Title = *f.Title
		changed = true
	}
	if f.Notes != nil && *f.Notes != r.Notes {
		r.Notes = *f.Notes
		changed = true
	}
	if f.Completed != nil && *f.Completed != r.Completed {
		r.Completed = *f.Completed
		changed = true
	}
	return changed
}

// Status returns the short marker shown next to a record in listings.
func (r Record) Status() string {
	switch {
	case r.IsSynced:
		return "synced"
	case r.RemoteID == nil:
		return "pending"
	default:
		return "modified"
	}
}

func (r Record) Updated() time.Time {
	return time.UnixMilli(r.UpdatedAt)
}

// Display is the single-line form used by the CLI.
func (r Record) Display() string {
	box := "[ ]"
	if r.Completed {
		box = "[x]"
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "(untitled)"
	}
	return box + " " + title
}
