package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/client/client"
	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/client/store"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/dmitrijs2005/syncbox/internal/timex"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func nopLogger() logging.Logger { return logging.Discard() }

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(store.MemoryPath, store.WithClock(timex.FixedClock(time.UnixMilli(1_000), time.Millisecond)))
	_, err := st.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// fakeRemote is an in-memory Remote API that honours idempotency keys.
type fakeRemote struct {
	client.Client

	mu      sync.Mutex
	nextID  int64
	entries map[int64]client.Entry
	byKey   map[string]int64

	creates int
	updates int
	deletes int

	// failNext makes the next call of any kind fail with this error.
	failNext error
	// failCreate makes every create fail while set.
	failCreate error
	// createHook runs inside Create before the entry is stored.
	createHook func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{entries: map[int64]client.Entry{}, byKey: map[string]int64{}}
}

func (f *fakeRemote) takeFailure() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeRemote) Create(ctx context.Context, key string, p models.Payload) (*client.Entry, error) {
	if f.createHook != nil {
		f.createHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	if id, ok := f.byKey[key]; ok {
		e := f.entries[id]
		return &e, nil
	}
	f.nextID++
	e := client.Entry{ID: f.nextID, Title: p.Title, Notes: p.Notes, Completed: p.Completed, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
	f.entries[e.ID] = e
	f.byKey[key] = e.ID
	return &e, nil
}

func (f *fakeRemote) Update(ctx context.Context, id int64, p models.Payload) (*client.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	e, ok := f.entries[id]
	if !ok {
		return nil, &common.NetworkError{Op: "update", StatusCode: http.StatusNotFound, Err: common.ErrorNotFound}
	}
	e.Title, e.Notes, e.Completed, e.UpdatedAt = p.Title, p.Notes, p.Completed, p.UpdatedAt
	f.entries[id] = e
	return &e, nil
}

func (f *fakeRemote) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if err := f.takeFailure(); err != nil {
		return err
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeRemote) List(ctx context.Context) ([]client.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]client.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRemote) Ping(ctx context.Context) error { return nil }

func (f *fakeRemote) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeNotifier struct {
	mu     sync.Mutex
	counts []int
}

func (n *fakeNotifier) NotifySyncDone(ctx context.Context, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.counts = append(n.counts, count)
}

func (n *fakeNotifier) got() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.counts...)
}

type countingKicker struct{ n int }

func (k *countingKicker) Kick(context.Context) { k.n++ }
