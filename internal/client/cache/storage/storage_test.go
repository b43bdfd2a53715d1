package storage

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/syncbox/internal/client/migrations"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/timex"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testClock() timex.Clock {
	return timex.FixedClock(time.UnixMilli(1_000), time.Millisecond)
}

func newSQLiteStorage(t *testing.T) Storage {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))
	return NewSQLite(db, testClock())
}

func newRedisStorage(t *testing.T) Storage {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, "syncbox:cache:", testClock())
}

func newS3Storage(t *testing.T) Storage {
	t.Helper()
	return NewS3(newFakeS3(), "cache", "syncbox", testClock())
}

var backends = map[string]func(t *testing.T) Storage{
	"sqlite": newSQLiteStorage,
	"redis":  newRedisStorage,
	"s3":     newS3Storage,
}

func entry(key string) *Entry {
	return &Entry{
		Key:        key,
		Status:     http.StatusOK,
		StatusText: "200 OK",
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       []byte("body of " + key),
	}
}

func TestStorage_PutGet(t *testing.T) {
	for name, newStorage := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStorage(t)
			ctx := context.Background()

			require.NoError(t, s.Put(ctx, "runtime-v1", entry("http://app/a.js")))

			got, err := s.Get(ctx, "runtime-v1", "http://app/a.js")
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, got.Status)
			assert.Equal(t, "200 OK", got.StatusText)
			assert.Equal(t, "text/plain", got.Header.Get("Content-Type"))
			assert.Equal(t, []byte("body of http://app/a.js"), got.Body)
			assert.NotZero(t, got.StoredAt)

			_, err = s.Get(ctx, "runtime-v1", "http://app/missing.js")
			assert.ErrorIs(t, err, common.ErrorNotFound)
			_, err = s.Get(ctx, "other", "http://app/a.js")
			assert.ErrorIs(t, err, common.ErrorNotFound)
		})
	}
}

func TestStorage_RePutMovesToNewest(t *testing.T) {
	for name, newStorage := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStorage(t)
			ctx := context.Background()

			for _, k := range []string{"a", "b", "c"} {
				require.NoError(t, s.Put(ctx, "images-v1", entry(k)))
			}
			updated := entry("a")
			updated.Body = []byte("new")
			require.NoError(t, s.Put(ctx, "images-v1", updated))

			keys, err := s.Keys(ctx, "images-v1")
			require.NoError(t, err)
			assert.Equal(t, []string{"b", "c", "a"}, keys)

			got, err := s.Get(ctx, "images-v1", "a")
			require.NoError(t, err)
			assert.Equal(t, []byte("new"), got.Body)
		})
	}
}

func TestStorage_Delete(t *testing.T) {
	for name, newStorage := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStorage(t)
			ctx := context.Background()

			require.NoError(t, s.Put(ctx, "runtime-v1", entry("a")))
			require.NoError(t, s.Put(ctx, "runtime-v1", entry("b")))

			ok, err := s.Delete(ctx, "runtime-v1", "a")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.Delete(ctx, "runtime-v1", "a")
			require.NoError(t, err)
			assert.False(t, ok)

			keys, err := s.Keys(ctx, "runtime-v1")
			require.NoError(t, err)
			assert.Equal(t, []string{"b"}, keys)
		})
	}
}

func TestStorage_NamesAndDrop(t *testing.T) {
	for name, newStorage := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStorage(t)
			ctx := context.Background()

			require.NoError(t, s.Open(ctx, "static-v1"))
			require.NoError(t, s.Open(ctx, "static-v1"))
			require.NoError(t, s.Put(ctx, "runtime-v1", entry("a")))

			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"runtime-v1", "static-v1"}, names)

			dropped, err := s.Drop(ctx, "runtime-v1")
			require.NoError(t, err)
			assert.True(t, dropped)

			dropped, err = s.Drop(ctx, "runtime-v1")
			require.NoError(t, err)
			assert.False(t, dropped)

			names, err = s.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"static-v1"}, names)

			_, err = s.Get(ctx, "runtime-v1", "a")
			assert.ErrorIs(t, err, common.ErrorNotFound)
			keys, err := s.Keys(ctx, "runtime-v1")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestRedis_ConnectionErrorIsStorageError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedis(rdb, "", nil)
	mr.Close()

	_, err := s.Get(context.Background(), "c", "k")
	assert.ErrorIs(t, err, common.ErrStorage)
}
