// Package storage holds the named response caches used by the cache layer.
//
// A backend keeps any number of named caches. Inside a cache entries are
// keyed by request URL and ordered by insertion: re-putting a key moves it
// to the newest position, which is what trimming relies on.
package storage

import (
	"context"
	"net/http"
)

// Entry is one stored response.
type Entry struct {
	Key        string      `json:"key"`
	Status     int         `json:"status"`
	StatusText string      `json:"status_text"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   int64       `json:"stored_at"`
}

// Storage is implemented by the sqlite, redis and s3 backends.
type Storage interface {
	// Open makes sure the named cache exists.
	Open(ctx context.Context, cache string) error

	// Names lists every cache, sorted.
	Names(ctx context.Context) ([]string, error)

	// Drop removes a cache with all its entries. Dropping a missing cache
	// reports false.
	Drop(ctx context.Context, cache string) (bool, error)

	// Get returns common.ErrorNotFound for a missing key.
	Get(ctx context.Context, cache, key string) (*Entry, error)

	// Put stores e as the newest entry of cache, creating the cache if needed.
	Put(ctx context.Context, cache string, e *Entry) error

	// Keys lists the keys of cache, oldest first.
	Keys(ctx context.Context, cache string) ([]string, error)

	Delete(ctx context.Context, cache, key string) (bool, error)
}
