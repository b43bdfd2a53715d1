package records

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/syncbox/internal/client/migrations"
	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

func ptr[T any](v T) *T { return &v }

func TestInsertAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	id, err := r.Insert(ctx, &models.Record{Title: "milk", Notes: "2l", CreatedAt: 10, UpdatedAt: 10})
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "milk", got.Title)
	assert.Equal(t, "2l", got.Notes)
	assert.Nil(t, got.RemoteID)
	assert.False(t, got.IsSynced)
	assert.Equal(t, int64(10), got.UpdatedAt)
}

func TestGetByID_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.GetByID(context.Background(), 42)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	id, err := r.Insert(ctx, &models.Record{Title: "a", CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)

	require.NoError(t, r.Update(ctx, &models.Record{ID: id, Title: "b", Completed: true, RemoteID: ptr(int64(7)), CreatedAt: 1, UpdatedAt: 2}))

	got, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Title)
	assert.True(t, got.Completed)
	require.NotNil(t, got.RemoteID)
	assert.Equal(t, int64(7), *got.RemoteID)

	err = r.Update(ctx, &models.Record{ID: id + 100, Title: "x"})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete_Idempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	id, err := r.Insert(ctx, &models.Record{Title: "a", CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)

	deleted, err := r.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = r.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestList_NewestFirst(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for i, title := range []string{"first", "second", "third"} {
		_, err := r.Insert(ctx, &models.Record{Title: title, CreatedAt: int64(i + 1), UpdatedAt: int64(i + 1)})
		require.NoError(t, err)
	}

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "first", list[2].Title)
}

func TestMarkSynced_OnlyWhenUnchanged(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := r.Insert(ctx, &models.Record{Title: "a", CreatedAt: 1, UpdatedAt: 5})
	require.NoError(t, err)

	synced, err := r.MarkSynced(ctx, id, 99, 4)
	require.NoError(t, err)
	assert.False(t, synced, "stale snapshot must not mark synced")

	got, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.RemoteID, "remote id is stored regardless")
	assert.Equal(t, int64(99), *got.RemoteID)

	synced, err = r.MarkSynced(ctx, id, 99, 5)
	require.NoError(t, err)
	assert.True(t, synced)

	synced, err = r.MarkSynced(ctx, id+1, 1, 1)
	require.NoError(t, err)
	assert.False(t, synced)
}

func TestListUnsyncedWithoutOutbox(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	covered, err := r.Insert(ctx, &models.Record{Title: "covered", CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, err)
	orphan, err := r.Insert(ctx, &models.Record{Title: "orphan", CreatedAt: 2, UpdatedAt: 2})
	require.NoError(t, err)
	_, err = r.Insert(ctx, &models.Record{Title: "synced", IsSynced: true, RemoteID: ptr(int64(3)), CreatedAt: 3, UpdatedAt: 3})
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO outbox (op, task_id, created_at, idempotency_key) VALUES ('create', ?, 1, 'k')`, covered)
	require.NoError(t, err)

	list, err := r.ListUnsyncedWithoutOutbox(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, orphan, list[0].ID)

	unsynced, err := r.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Len(t, unsynced, 2)

	n, err := r.CountUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
