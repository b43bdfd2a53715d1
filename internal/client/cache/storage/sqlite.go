package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/dbx"
	"github.com/dmitrijs2005/syncbox/internal/timex"
)

// SQLite keeps caches in the cache_names and cache_entries tables of the
// client database.
type SQLite struct {
	db    *sql.DB
	clock timex.Clock
}

func NewSQLite(db *sql.DB, clock timex.Clock) *SQLite {
	return &SQLite{db: db, clock: clock}
}

func ensureName(ctx context.Context, db dbx.DBTX, cache string, now int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO cache_names (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		cache, now)
	return err
}

func (s *SQLite) Open(ctx context.Context, cache string) error {
	if err := ensureName(ctx, s.db, cache, s.clock.UnixMilli()); err != nil {
		return common.NewStorageError("cache open", err)
	}
	return nil
}

func (s *SQLite) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM cache_names ORDER BY name`)
	if err != nil {
		return nil, common.NewStorageError("cache names", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, common.NewStorageError("cache names", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("cache names", err)
	}
	return names, nil
}

func (s *SQLite) Drop(ctx context.Context, cache string) (bool, error) {
	var dropped bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_name = ?`, cache); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM cache_names WHERE name = ?`, cache)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		dropped = n > 0
		return nil
	})
	if err != nil {
		return false, common.NewStorageError("cache drop", err)
	}
	return dropped, nil
}

func (s *SQLite) Get(ctx context.Context, cache, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, status, status_text, header, body, stored_at
		   FROM cache_entries WHERE cache_name = ? AND key = ?`, cache, key)

	var (
		e      Entry
		header string
	)
	if err := row.Scan(&e.Key, &e.Status, &e.StatusText, &header, &e.Body, &e.StoredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.NewStorageError("cache get", err)
	}
	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return nil, common.NewStorageError("cache get", err)
	}
	return &e, nil
}

// Put deletes and re-inserts the row so the key takes a fresh seq.
func (s *SQLite) Put(ctx context.Context, cache string, e *Entry) error {
	header, err := json.Marshal(e.Header)
	if err != nil {
		return common.NewStorageError("cache put", err)
	}
	if e.StoredAt == 0 {
		e.StoredAt = s.clock.UnixMilli()
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := ensureName(ctx, tx, cache, e.StoredAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE cache_name = ? AND key = ?`, cache, e.Key); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cache_entries (cache_name, key, status, status_text, header, body, stored_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			cache, e.Key, e.Status, e.StatusText, string(header), e.Body, e.StoredAt)
		return err
	})
	if err != nil {
		return common.NewStorageError("cache put", err)
	}
	return nil
}

func (s *SQLite) Keys(ctx context.Context, cache string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE cache_name = ? ORDER BY seq`, cache)
	if err != nil {
		return nil, common.NewStorageError("cache keys", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, common.NewStorageError("cache keys", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("cache keys", err)
	}
	return keys, nil
}

func (s *SQLite) Delete(ctx context.Context, cache, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE cache_name = ? AND key = ?`, cache, key)
	if err != nil {
		return false, common.NewStorageError("cache delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.NewStorageError("cache delete", err)
	}
	return n > 0, nil
}
