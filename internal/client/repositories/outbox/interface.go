// Package outbox persists pending remote mutations in replay order.
package outbox

import (
	"context"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
)

type Repository interface {
	// Insert appends item as-is; CreatedAt and IdempotencyKey must be set.
	Insert(ctx context.Context, item *models.OutboxItem) (int64, error)

	// ReadBatch returns up to limit live (not quarantined) items ordered by
	// created_at, then id.
	ReadBatch(ctx context.Context, limit int) ([]models.OutboxItem, error)

	// Delete removes one item; missing items are not an error.
	Delete(ctx context.Context, id int64) (bool, error)

	// DeleteForTask removes the items of one record, limited to ops when
	// any are given.
	DeleteForTask(ctx context.Context, taskID int64, ops ...models.Op) (int64, error)

	// ExistsForTask reports whether any item, quarantined or not, of one
	// record is stored, limited to ops when any are given.
	ExistsForTask(ctx context.Context, taskID int64, ops ...models.Op) (bool, error)

	// RecordFailure bumps the attempt counter and stores the message.
	RecordFailure(ctx context.Context, id int64, msg string, quarantine bool) error

	ListQuarantined(ctx context.Context) ([]models.OutboxItem, error)

	// Requeue moves quarantined items back into replay with a fresh attempt
	// budget. With no ids every quarantined item is requeued.
	Requeue(ctx context.Context, ids ...int64) (int64, error)

	// Counts returns the number of live and quarantined items.
	Counts(ctx context.Context) (live int, quarantined int, err error)
}
