package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/dbx"
	"github.com/dmitrijs2005/syncbox/internal/server/models"
	"github.com/dmitrijs2005/syncbox/internal/server/repositories/entries"
)

// fakeEntriesRepo mimics the unique client_key of the real table.
type fakeEntriesRepo struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]models.Entry
	byKey   map[string]int64
	creates int
	err     error
}

func newFakeEntriesRepo() *fakeEntriesRepo {
	return &fakeEntriesRepo{rows: map[int64]models.Entry{}, byKey: map[string]int64{}}
}

func (f *fakeEntriesRepo) Create(_ context.Context, e *models.Entry) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.creates++
	if e.ClientKey != nil {
		if id, ok := f.byKey[*e.ClientKey]; ok {
			got := f.rows[id]
			return &got, nil
		}
	}
	f.nextID++
	row := *e
	row.ID = f.nextID
	row.InsertedAt = time.Now()
	f.rows[row.ID] = row
	if e.ClientKey != nil {
		f.byKey[*e.ClientKey] = row.ID
	}
	return &row, nil
}

func (f *fakeEntriesRepo) GetByID(_ context.Context, id int64) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &row, nil
}

func (f *fakeEntriesRepo) GetByClientKey(ctx context.Context, key string) (*models.Entry, error) {
	f.mu.Lock()
	id, ok := f.byKey[key]
	f.mu.Unlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f.GetByID(ctx, id)
}

func (f *fakeEntriesRepo) Update(_ context.Context, id int64, p models.Patch) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if p.Title != nil {
		row.Title = *p.Title
	}
	if p.Notes != nil {
		row.Notes = *p.Notes
	}
	if p.Completed != nil {
		row.Completed = *p.Completed
	}
	row.UpdatedAt = p.UpdatedAt
	f.rows[id] = row
	return &row, nil
}

func (f *fakeEntriesRepo) Delete(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	delete(f.rows, id)
	return ok, nil
}

func (f *fakeEntriesRepo) List(_ context.Context, limit int) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Entry{}
	for _, r := range f.rows {
		out = append(out, r)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRepoManager struct {
	repo *fakeEntriesRepo
}

func (m fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m fakeRepoManager) Entries(dbx.DBTX) entries.Repository          { return m.repo }

// memDeduper is an in-process Deduper that can be made to fail.
type memDeduper struct {
	mu   sync.Mutex
	ids  map[string]int64
	err  error
	hits int
}

func (d *memDeduper) Lookup(_ context.Context, key string) (int64, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return 0, false, d.err
	}
	id, ok := d.ids[key]
	if ok {
		d.hits++
	}
	return id, ok, nil
}

func (d *memDeduper) Remember(_ context.Context, key string, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if d.ids == nil {
		d.ids = map[string]int64{}
	}
	if _, ok := d.ids[key]; !ok {
		d.ids[key] = id
	}
	return nil
}
