package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "sync.last_pass", []byte("1700")))

	v, err := r.Get(ctx, "sync.last_pass")
	require.NoError(t, err)
	assert.Equal(t, []byte("1700"), v)
}

func TestGet_Absent_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSet_Upsert(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}

func TestSet_NilValueStoredAsEmpty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "flag", nil))

	m, err := r.List(ctx, "")
	require.NoError(t, err)
	_, ok := m["flag"]
	assert.True(t, ok)
}

func TestList_FiltersByPrefix(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "trigger.sync-outbox", []byte("1")))
	require.NoError(t, r.Set(ctx, "trigger.other", []byte("2")))
	require.NoError(t, r.Set(ctx, "sync.last_pass", []byte("3")))

	m, err := r.List(ctx, "trigger.")
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, []byte("1"), m["trigger.sync-outbox"])

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestList_PrefixBoundsAreExact(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, k := range []string{"trigger.", "trigger.a", "trigger/", "triggers", "TRIGGER.a", "trigger"} {
		require.NoError(t, r.Set(ctx, k, []byte(k)))
	}

	m, err := r.List(ctx, "trigger.")
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Contains(t, m, "trigger.")
	assert.Contains(t, m, "trigger.a")
}

func TestPrefixEnd(t *testing.T) {
	end, ok := prefixEnd("ab")
	assert.True(t, ok)
	assert.Equal(t, "ac", end)

	end, ok = prefixEnd("a\xff")
	assert.True(t, ok)
	assert.Equal(t, "b", end)

	_, ok = prefixEnd("\xff\xff")
	assert.False(t, ok)
}

func TestDelete_Idempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Delete(ctx, "x"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{1}))
	require.NoError(t, r.Set(ctx, "b", []byte{2}))
	require.NoError(t, r.Clear(ctx))

	m, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")

	require.ErrorContains(t, r.Set(ctx, "k", []byte("v")), "failed to set metadata[k]")
	require.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata[k]")
	require.ErrorContains(t, r.Clear(ctx), "failed to clear metadata")

	_, err = r.List(ctx, "")
	require.ErrorContains(t, err, "failed to list metadata")
}
