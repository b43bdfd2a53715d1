package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/syncbox/internal/client/bridge"
	"github.com/dmitrijs2005/syncbox/internal/client/cache/storage"
	"github.com/dmitrijs2005/syncbox/internal/client/client"
	"github.com/dmitrijs2005/syncbox/internal/client/config"
	"github.com/dmitrijs2005/syncbox/internal/client/store"
	"github.com/dmitrijs2005/syncbox/internal/client/trigger"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is a minimal Remote API with switchable connectivity.
type fakeRemote struct {
	mu          sync.Mutex
	offline     bool
	failCreates bool
	nextID      int64
	byKey       map[string]int64
	entries     map[int64]client.Entry
}

func newFakeRemote(t *testing.T) (*fakeRemote, *httptest.Server) {
	t.Helper()
	f := &fakeRemote{byKey: map[string]int64{}, entries: map[int64]client.Entry{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeRemote) setOffline(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = v
}

func (f *fakeRemote) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "data": data})
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.offline {
		http.Error(w, "down", http.StatusServiceUnavailable)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/ping":
		writeData(w, http.StatusOK, map[string]string{"status": "OK"})

	case r.Method == http.MethodPost && r.URL.Path == "/api/entries":
		if f.failCreates {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		key := r.Header.Get(common.IdempotencyKeyHeader)
		if id, ok := f.byKey[key]; ok {
			writeData(w, http.StatusOK, f.entries[id])
			return
		}
		var e client.Entry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		f.nextID++
		e.ID = f.nextID
		f.entries[e.ID] = e
		f.byKey[key] = e.ID
		writeData(w, http.StatusCreated, e)

	case r.Method == http.MethodGet && r.URL.Path == "/api/entries":
		out := make([]client.Entry, 0, len(f.entries))
		for _, e := range f.entries {
			out = append(out, e)
		}
		writeData(w, http.StatusOK, out)

	default:
		id, _ := strconv.ParseInt(r.URL.Path[len("/api/entries/"):], 10, 64)
		if _, ok := f.entries[id]; !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Method == http.MethodDelete {
			delete(f.entries, id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeData(w, http.StatusOK, f.entries[id])
	}
}

func testConfig(remoteURL string) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DBPath = store.MemoryPath
	cfg.RemoteURL = remoteURL
	cfg.RemoteTimeout = 2 * time.Second
	cfg.BridgeAddr = "127.0.0.1:0"
	cfg.ProxyAddr = ""
	cfg.OnlineCheckInterval = time.Hour
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestOfflineCreateSyncsOnReconnect(t *testing.T) {
	remote, srv := newFakeRemote(t)
	app := newTestApp(t, testConfig(srv.URL))
	ctx := context.Background()

	msgs, unsubscribe := app.hub.Subscribe()
	defer unsubscribe()

	remote.setOffline(true)
	rec, err := app.store.QueueCreate(ctx, "buy milk", "")
	require.NoError(t, err)

	require.NoError(t, app.dispatcher.Fire(ctx, trigger.Startup))
	assert.Equal(t, trigger.ModeOffline, app.watcher.Check(ctx))

	pending, err := app.manager.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{trigger.SyncOutbox}, pending)
	assert.Zero(t, remote.count())

	remote.setOffline(false)
	assert.Equal(t, trigger.ModeOnline, app.watcher.Check(ctx))

	got, err := app.store.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSynced)
	require.NotNil(t, got.RemoteID)
	assert.Equal(t, 1, remote.count())

	pending, err = app.manager.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	select {
	case m := <-msgs:
		assert.Equal(t, bridge.Message{Type: bridge.TypeSyncDone, Count: 1}, m)
	case <-time.After(time.Second):
		t.Fatal("no SYNC_DONE broadcast")
	}
}

func TestStartupDrainsWhenWatcherDisabled(t *testing.T) {
	remote, srv := newFakeRemote(t)
	cfg := testConfig(srv.URL)
	cfg.DisableWatcher = true
	app := newTestApp(t, cfg)
	ctx := context.Background()

	require.Nil(t, app.watcher)
	_, err := app.store.QueueCreate(ctx, "a", "")
	require.NoError(t, err)
	_, err = app.store.QueueCreate(ctx, "b", "")
	require.NoError(t, err)

	require.NoError(t, app.dispatcher.Fire(ctx, trigger.Startup))
	assert.Equal(t, 2, remote.count())

	counts, err := app.store.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Pending)
	assert.Zero(t, counts.Unsynced)
}

func TestDrainKeepsRegistrationOnTransientFailure(t *testing.T) {
	remote, srv := newFakeRemote(t)
	app := newTestApp(t, testConfig(srv.URL))
	ctx := context.Background()

	remote.mu.Lock()
	remote.failCreates = true
	remote.mu.Unlock()

	_, err := app.store.QueueCreate(ctx, "x", "")
	require.NoError(t, err)
	require.NoError(t, app.manager.Register(ctx, trigger.SyncOutbox))

	app.watcher.Check(ctx)
	pending, err := app.manager.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{trigger.SyncOutbox}, pending)

	remote.mu.Lock()
	remote.failCreates = false
	remote.mu.Unlock()

	app.watcher.Check(ctx)
	pending, err = app.manager.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 1, remote.count())
}

func TestDrainRunsSeveralBatches(t *testing.T) {
	remote, srv := newFakeRemote(t)
	cfg := testConfig(srv.URL)
	cfg.BatchSize = 2
	app := newTestApp(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := app.store.QueueCreate(ctx, "item "+strconv.Itoa(i), "")
		require.NoError(t, err)
	}
	require.NoError(t, app.dispatcher.Fire(ctx, trigger.RunNow))
	assert.Equal(t, 5, remote.count())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	_, srv := newFakeRemote(t)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("shell"))
	}))
	t.Cleanup(origin.Close)

	cfg := testConfig(srv.URL)
	cfg.ProxyAddr = "127.0.0.1:0"
	cfg.AppOrigin = origin.URL
	cfg.DisableWatcher = true
	app := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("app exited too early: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}

func TestNewCacheStorage(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.MemoryPath)
	db, err := st.Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	backend, closeFn, err := newCacheStorage(ctx, cfg, db)
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLite{}, backend)
	require.NoError(t, closeFn())

	mr := miniredis.RunT(t)
	cfg.CacheBackend = config.CacheRedis
	cfg.RedisAddr = mr.Addr()
	backend, closeFn, err = newCacheStorage(ctx, cfg, db)
	require.NoError(t, err)
	assert.IsType(t, &storage.Redis{}, backend)
	require.NoError(t, closeFn())

	mr.Close()
	_, _, err = newCacheStorage(ctx, cfg, db)
	assert.Error(t, err)

	cfg.CacheBackend = "memcached"
	_, _, err = newCacheStorage(ctx, cfg, db)
	assert.Error(t, err)
}
