package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/common"
)

const lastPassKey = "sync.last_pass"

// Counts summarises what is still waiting to reach the Remote API.
type Counts struct {
	Pending     int
	Quarantined int
	Unsynced    int
}

// Enqueue appends item to the outbox, stamping CreatedAt and an idempotency
// key. The op must be known, and update and delete need a TaskID.
func (s *Store) Enqueue(ctx context.Context, item models.OutboxItem) (models.OutboxItem, error) {
	err := s.WithTx(ctx, "enqueue", func(ctx context.Context, tx *Tx) error {
		var err error
		item, err = s.enqueue(ctx, tx, item)
		return err
	})
	if err != nil {
		return models.OutboxItem{}, err
	}
	return item, nil
}

func (s *Store) enqueue(ctx context.Context, tx *Tx, item models.OutboxItem) (models.OutboxItem, error) {
	if !item.Op.Valid() {
		return item, common.NewValidationError("op", "unknown operation "+strconv.Quote(string(item.Op)))
	}
	if item.Op != models.OpCreate && item.TaskID == nil {
		return item, common.NewValidationError("task_id", "required for "+string(item.Op))
	}
	if item.Op != models.OpDelete && item.Payload == nil {
		return item, common.NewValidationError("payload", "required for "+string(item.Op))
	}

	item.CreatedAt = s.now()
	if item.IdempotencyKey == "" {
		item.IdempotencyKey = s.newKey()
	}
	id, err := tx.Outbox.Insert(ctx, &item)
	if err != nil {
		return item, err
	}
	item.ID = id
	return item, nil
}

// ReadBatch returns up to limit live items in replay order.
func (s *Store) ReadBatch(ctx context.Context, limit int) ([]models.OutboxItem, error) {
	var batch []models.OutboxItem
	err := s.read(ctx, "read batch", func(ctx context.Context, tx *Tx) error {
		var err error
		batch, err = tx.Outbox.ReadBatch(ctx, limit)
		return err
	})
	return batch, err
}

// Clear retires one outbox item. Clearing a missing item is not an error.
func (s *Store) Clear(ctx context.Context, itemID int64) error {
	return s.WithTx(ctx, "clear", func(ctx context.Context, tx *Tx) error {
		_, err := tx.Outbox.Delete(ctx, itemID)
		return err
	})
}

// MarkSynced records a successful replay: the record gets remoteID and, if
// it still carries updatedAt, is flagged synced; the item is retired. Both
// happen in one transaction. The result reports whether the record is now
// synced.
//
// If the record was deleted while the replay was in flight, the remote entry
// it produced has no local owner any more, so a delete for remoteID is queued
// unless one is already waiting.
func (s *Store) MarkSynced(ctx context.Context, itemID, recordID, remoteID, updatedAt int64) (bool, error) {
	var synced bool
	err := s.WithTx(ctx, "mark synced", func(ctx context.Context, tx *Tx) error {
		if _, err := tx.Outbox.Delete(ctx, itemID); err != nil {
			return err
		}

		_, err := tx.Records.GetByID(ctx, recordID)
		if errors.Is(err, common.ErrorNotFound) {
			return s.queueOrphanDelete(ctx, tx, recordID, remoteID)
		}
		if err != nil {
			return err
		}
		synced, err = tx.Records.MarkSynced(ctx, recordID, remoteID, updatedAt)
		return err
	})
	return synced, err
}

func (s *Store) queueOrphanDelete(ctx context.Context, tx *Tx, recordID, remoteID int64) error {
	queued, err := tx.Outbox.ExistsForTask(ctx, recordID, models.OpDelete)
	if err != nil || queued {
		return err
	}
	s.logger.Info(ctx, "record deleted during replay, queueing remote delete", "record", recordID, "remote_id", remoteID)
	_, err = s.enqueue(ctx, tx, models.OutboxItem{Op: models.OpDelete, TaskID: &recordID, RemoteID: &remoteID})
	return err
}

// RecordFailure notes a failed replay attempt, quarantining the item when
// asked to.
func (s *Store) RecordFailure(ctx context.Context, itemID int64, msg string, quarantine bool) error {
	return s.WithTx(ctx, "record failure", func(ctx context.Context, tx *Tx) error {
		return tx.Outbox.RecordFailure(ctx, itemID, msg, quarantine)
	})
}

func (s *Store) ListQuarantined(ctx context.Context) ([]models.OutboxItem, error) {
	var list []models.OutboxItem
	err := s.read(ctx, "list quarantined", func(ctx context.Context, tx *Tx) error {
		var err error
		list, err = tx.Outbox.ListQuarantined(ctx)
		return err
	})
	return list, err
}

// Requeue returns quarantined items to replay; no ids means all of them.
func (s *Store) Requeue(ctx context.Context, ids ...int64) (int64, error) {
	var n int64
	err := s.WithTx(ctx, "requeue", func(ctx context.Context, tx *Tx) error {
		var err error
		n, err = tx.Outbox.Requeue(ctx, ids...)
		return err
	})
	return n, err
}

// ReconcileUnsynced enqueues an item for every unsynced record that has none:
// a create when the record never reached the remote, an update otherwise.
// It returns how many items were added.
func (s *Store) ReconcileUnsynced(ctx context.Context) (int, error) {
	added := 0
	err := s.WithTx(ctx, "reconcile", func(ctx context.Context, tx *Tx) error {
		orphans, err := tx.Records.ListUnsyncedWithoutOutbox(ctx)
		if err != nil {
			return err
		}
		for _, rec := range orphans {
			id := rec.ID
			p := rec.Payload()
			item := models.OutboxItem{Op: models.OpCreate, TaskID: &id, Payload: &p}
			if rec.RemoteID != nil {
				item.Op = models.OpUpdate
				item.RemoteID = rec.RemoteID
			}
			if _, err := s.enqueue(ctx, tx, item); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if added > 0 {
		s.logger.Info(ctx, "reconciled unsynced records", "count", added)
	}
	return added, nil
}

func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.read(ctx, "counts", func(ctx context.Context, tx *Tx) error {
		var err error
		if c.Pending, c.Quarantined, err = tx.Outbox.Counts(ctx); err != nil {
			return err
		}
		c.Unsynced, err = tx.Records.CountUnsynced(ctx)
		return err
	})
	return c, err
}

// PassSummary is what the engine remembers about its latest pass.
type PassSummary struct {
	At          int64 `json:"at"`
	Count       int   `json:"count"`
	Succeeded   int   `json:"succeeded"`
	Failed      int   `json:"failed"`
	Quarantined int   `json:"quarantined"`
}

func (s *Store) SaveLastPass(ctx context.Context, p PassSummary) error {
	if p.At == 0 {
		p.At = s.now()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return common.NewStorageError("save last pass", err)
	}
	return s.SetMeta(ctx, lastPassKey, b)
}

// LastPass returns nil when no pass has been recorded yet.
func (s *Store) LastPass(ctx context.Context) (*PassSummary, error) {
	b, err := s.GetMeta(ctx, lastPassKey)
	if err != nil || b == nil {
		return nil, err
	}
	var p PassSummary
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, common.NewStorageError("last pass", err)
	}
	return &p, nil
}
