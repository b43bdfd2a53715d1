package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/syncbox/internal/client/migrations"
	"github.com/dmitrijs2005/syncbox/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/syncbox/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/syncbox/internal/client/repositories/records"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/dbx"
	"github.com/dmitrijs2005/syncbox/internal/filex"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/dmitrijs2005/syncbox/internal/timex"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Tx groups the repositories bound to one transaction.
type Tx struct {
	Records  records.Repository
	Outbox   outbox.Repository
	Metadata metadata.Repository
}

func newTx(db dbx.DBTX) *Tx {
	return &Tx{
		Records:  records.NewSQLiteRepository(db),
		Outbox:   outbox.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
	}
}

type Store struct {
	path    string
	logger  logging.Logger
	clock   timex.Clock
	newKey  func() string
	backoff func() retry.Backoff

	mu sync.Mutex
	db *sql.DB
}

type Option func(*Store)

// WithClock replaces the wall clock used to stamp records and outbox items.
func WithClock(c timex.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKeyFunc replaces the idempotency key generator.
func WithKeyFunc(f func() string) Option {
	return func(s *Store) { s.newKey = f }
}

// WithBusyBackoff sets the retry schedule used when SQLite reports lock
// contention.
func WithBusyBackoff(f func() retry.Backoff) Option {
	return func(s *Store) { s.backoff = f }
}

func New(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		logger:  logging.Discard(),
		newKey:  uuid.NewString,
		backoff: dbx.DefaultBusyBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func dsn(path string) string {
	if path == MemoryPath {
		return "file::memory:?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	}
	return "file:" + strings.TrimPrefix(path, "file:") +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_txlock=immediate"
}

// Open opens the database and applies migrations. Calling it again returns
// the same handle.
func (s *Store) Open(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	if s.path != MemoryPath {
		if err := filex.EnsureParentDir(strings.TrimPrefix(s.path, "file:")); err != nil {
			return nil, common.NewStorageError("open", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(s.path))
	if err != nil {
		return nil, common.NewStorageError("open", err)
	}
	// a single connection serialises writers inside this process; other
	// processes are handled by busy_timeout and the busy retry
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.NewStorageError("open", err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, common.NewStorageError("migrate", err)
	}

	s.logger.Debug(ctx, "store opened", "path", s.path)
	s.db = db
	return db, nil
}

// DB returns the open handle, or nil before Open.
func (s *Store) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle(ctx context.Context) (*sql.DB, error) {
	if db := s.DB(); db != nil {
		return db, nil
	}
	return s.Open(ctx)
}

// WithTx runs fn in one transaction. Validation, not-found and permission
// errors returned by fn pass through untouched; anything else becomes a
// *common.StorageError tagged with op.
func (s *Store) WithTx(ctx context.Context, op string, fn func(ctx context.Context, tx *Tx) error) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	err = dbx.WithTxRetry(ctx, db, nil, s.backoff(), func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, newTx(tx))
	})
	return classify(op, err)
}

// read runs fn outside a transaction against the shared handle.
func (s *Store) read(ctx context.Context, op string, fn func(ctx context.Context, tx *Tx) error) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	return classify(op, fn(ctx, newTx(db)))
}

func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrPermission),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return common.NewStorageError(op, err)
	}
}

func (s *Store) now() int64 {
	return s.clock.UnixMilli()
}
