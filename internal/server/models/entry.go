// Package models holds the server-side data types of the Remote API.
package models

import "time"

// Entry is a record as the Remote API stores it. CreatedAt and UpdatedAt are
// the client's unix millisecond timestamps; InsertedAt is assigned by the
// database.
type Entry struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes"`
	Completed  bool      `json:"completed"`
	CreatedAt  int64     `json:"created_at"`
	UpdatedAt  int64     `json:"updated_at"`
	InsertedAt time.Time `json:"inserted_at"`

	// ClientKey is the idempotency key of the create that produced the
	// entry. It is never sent back to clients.
	ClientKey *string `json:"-"`
}

// Patch is a partial update. Nil fields are left unchanged; UpdatedAt is
// mandatory.
type Patch struct {
	Title     *string
	Notes     *string
	Completed *bool
	UpdatedAt int64
}
