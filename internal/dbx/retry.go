package dbx

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// SQLite primary result codes for lock contention.
const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

// IsBusy reports whether err is SQLite lock contention, which another
// process (the CLI next to the daemon) can cause on a shared database file.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() & 0xff {
		case sqliteBusy, sqliteLocked:
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// DefaultBusyBackoff retries a handful of times with short exponential waits.
func DefaultBusyBackoff() retry.Backoff {
	return retry.WithMaxRetries(5, retry.WithJitterPercent(20, retry.NewExponential(20*time.Millisecond)))
}

// WithTxRetry is WithTx that restarts the whole transaction when SQLite
// reports lock contention. fn may run more than once and must not keep
// side effects outside the transaction.
func WithTxRetry(ctx context.Context, db *sql.DB, opts *sql.TxOptions, b retry.Backoff, fn func(ctx context.Context, tx DBTX) error) error {
	if b == nil {
		b = DefaultBusyBackoff()
	}
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := WithTx(ctx, db, opts, fn)
		if IsBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
