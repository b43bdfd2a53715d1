package dbx

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codedErr int

func (c codedErr) Error() string { return fmt.Sprintf("sqlite code %d", int(c)) }
func (c codedErr) Code() int     { return int(c) }

func TestIsBusy(t *testing.T) {
	assert.False(t, IsBusy(nil))
	assert.True(t, IsBusy(codedErr(5)))
	assert.True(t, IsBusy(codedErr(5|(2<<8))), "extended busy code")
	assert.True(t, IsBusy(fmt.Errorf("wrap: %w", codedErr(6))))
	assert.True(t, IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, IsBusy(codedErr(19)))
	assert.False(t, IsBusy(errors.New("constraint failed")))
}

func TestWithTxRetry_RetriesBusyThenCommits(t *testing.T) {
	db := setupDB(t)
	calls := 0

	err := WithTxRetry(context.Background(), db, nil, retry.WithMaxRetries(3, retry.NewConstant(1)), func(ctx context.Context, tx DBTX) error {
		calls++
		if _, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('r')`); err != nil {
			return err
		}
		if calls < 3 {
			return codedErr(5)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, countRows(t, db), "only the final attempt commits")
}

func TestWithTxRetry_DoesNotRetryOtherErrors(t *testing.T) {
	db := setupDB(t)
	calls := 0
	boom := errors.New("boom")

	err := WithTxRetry(context.Background(), db, nil, nil, func(ctx context.Context, tx DBTX) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithTxRetry_GivesUp(t *testing.T) {
	db := setupDB(t)
	calls := 0

	err := WithTxRetry(context.Background(), db, nil, retry.WithMaxRetries(2, retry.NewConstant(1)), func(ctx context.Context, tx DBTX) error {
		calls++
		return codedErr(5)
	})
	require.Error(t, err)
	assert.True(t, IsBusy(err))
	assert.Equal(t, 3, calls)
}
