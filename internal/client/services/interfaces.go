package services

import (
	"context"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/client/store"
)

// OutboxStore is the part of the Durable Store the engine needs.
type OutboxStore interface {
	ReadBatch(ctx context.Context, limit int) ([]models.OutboxItem, error)
	GetRecord(ctx context.Context, id int64) (*models.Record, error)
	Clear(ctx context.Context, itemID int64) error
	MarkSynced(ctx context.Context, itemID, recordID, remoteID, updatedAt int64) (bool, error)
	RecordFailure(ctx context.Context, itemID int64, msg string, quarantine bool) error
	SaveLastPass(ctx context.Context, p store.PassSummary) error
}

// RecordStore is the part of the Durable Store the foreground uses.
type RecordStore interface {
	QueueCreate(ctx context.Context, title, notes string) (models.Record, error)
	QueueUpdate(ctx context.Context, id int64, fields models.Fields) (models.Record, error)
	QueueDelete(ctx context.Context, id int64) error
	GetRecord(ctx context.Context, id int64) (*models.Record, error)
	ListRecords(ctx context.Context) ([]models.Record, error)
	ListQuarantined(ctx context.Context) ([]models.OutboxItem, error)
	Requeue(ctx context.Context, ids ...int64) (int64, error)
	ReconcileUnsynced(ctx context.Context) (int, error)
	Counts(ctx context.Context) (store.Counts, error)
	LastPass(ctx context.Context) (*store.PassSummary, error)
}

// Notifier receives the end-of-pass broadcast.
type Notifier interface {
	NotifySyncDone(ctx context.Context, count int)
}

// Kicker is told about every successful local write so it can ask for a
// background pass.
type Kicker interface {
	Kick(ctx context.Context)
}
