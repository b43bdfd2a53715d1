package records

import (
	"context"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
)

type Repository interface {
	// Insert stores r and returns the assigned local id.
	Insert(ctx context.Context, r *models.Record) (int64, error)

	// Update overwrites an existing row; common.ErrorNotFound when absent.
	Update(ctx context.Context, r *models.Record) error

	// Delete removes the row. Deleting a missing row is not an error; the
	// result reports whether anything was removed.
	Delete(ctx context.Context, id int64) (bool, error)

	// GetByID returns common.ErrorNotFound when the row is absent.
	GetByID(ctx context.Context, id int64) (*models.Record, error)

	// List returns every record, newest first.
	List(ctx context.Context) ([]models.Record, error)

	// ListUnsynced returns records with is_synced = 0, oldest first.
	ListUnsynced(ctx context.Context) ([]models.Record, error)

	// ListUnsyncedWithoutOutbox returns unsynced records that no outbox item
	// refers to.
	ListUnsyncedWithoutOutbox(ctx context.Context) ([]models.Record, error)

	// MarkSynced stores the remote id and sets is_synced only when the row
	// still carries updatedAt, i.e. nothing changed since the snapshot was
	// taken. It reports whether the row was marked synced.
	MarkSynced(ctx context.Context, id, remoteID, updatedAt int64) (bool, error)

	CountUnsynced(ctx context.Context) (int, error)
}
