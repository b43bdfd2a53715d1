package client

import (
	"context"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
)

// Entry is the Remote API's view of a record.
type Entry struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Notes      string `json:"notes"`
	Completed  bool   `json:"completed"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
	InsertedAt string `json:"inserted_at,omitempty"`
}

type Client interface {
	// Create posts a new entry. key is sent as the idempotency key so a
	// repeated create returns the entry created the first time.
	Create(ctx context.Context, key string, p models.Payload) (*Entry, error)
	Update(ctx context.Context, remoteID int64, p models.Payload) (*Entry, error)
	Delete(ctx context.Context, remoteID int64) error
	List(ctx context.Context) ([]Entry, error)
	Ping(ctx context.Context) error
}
