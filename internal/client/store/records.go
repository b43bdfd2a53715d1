package store

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/common"
)

// CreateRecord stores rec as-is, stamping timestamps that are unset.
// It does not touch the outbox; use QueueCreate for user edits.
func (s *Store) CreateRecord(ctx context.Context, rec models.Record) (models.Record, error) {
	s.stamp(&rec)
	err := s.WithTx(ctx, "create record", func(ctx context.Context, tx *Tx) error {
		id, err := tx.Records.Insert(ctx, &rec)
		rec.ID = id
		return err
	})
	if err != nil {
		return models.Record{}, err
	}
	return rec, nil
}

// UpdateRecord overwrites a stored record. A zero ID is a validation error,
// an unknown one common.ErrorNotFound.
func (s *Store) UpdateRecord(ctx context.Context, rec models.Record) error {
	if rec.ID == 0 {
		return common.NewValidationError("id", "required for update")
	}
	return s.WithTx(ctx, "update record", func(ctx context.Context, tx *Tx) error {
		return tx.Records.Update(ctx, &rec)
	})
}

// DeleteRecord removes a record without enqueueing anything. Missing
// records are ignored.
func (s *Store) DeleteRecord(ctx context.Context, id int64) error {
	return s.WithTx(ctx, "delete record", func(ctx context.Context, tx *Tx) error {
		_, err := tx.Records.Delete(ctx, id)
		return err
	})
}

func (s *Store) GetRecord(ctx context.Context, id int64) (*models.Record, error) {
	var rec *models.Record
	err := s.read(ctx, "get record", func(ctx context.Context, tx *Tx) error {
		var err error
		rec, err = tx.Records.GetByID(ctx, id)
		return err
	})
	return rec, err
}

// ListRecords returns every record, newest first.
func (s *Store) ListRecords(ctx context.Context) ([]models.Record, error) {
	var list []models.Record
	err := s.read(ctx, "list records", func(ctx context.Context, tx *Tx) error {
		var err error
		list, err = tx.Records.List(ctx)
		return err
	})
	return list, err
}

// QueueCreate inserts a new unsynced record and its create item atomically.
func (s *Store) QueueCreate(ctx context.Context, title, notes string) (models.Record, error) {
	now := s.now()
	rec := models.Record{Title: title, Notes: notes, CreatedAt: now, UpdatedAt: now}

	err := s.WithTx(ctx, "queue create", func(ctx context.Context, tx *Tx) error {
		id, err := tx.Records.Insert(ctx, &rec)
		if err != nil {
			return err
		}
		rec.ID = id

		p := rec.Payload()
		_, err = s.enqueue(ctx, tx, models.OutboxItem{Op: models.OpCreate, TaskID: &id, Payload: &p})
		return err
	})
	if err != nil {
		return models.Record{}, err
	}
	return rec, nil
}

// QueueUpdate applies fields to record id, marks it unsynced and enqueues an
// update carrying the new snapshot. A change that leaves the record as it
// was is a no-op.
func (s *Store) QueueUpdate(ctx context.Context, id int64, fields models.Fields) (models.Record, error) {
	if id == 0 {
		return models.Record{}, common.NewValidationError("id", "required for update")
	}

	var rec models.Record
	err := s.WithTx(ctx, "queue update", func(ctx context.Context, tx *Tx) error {
		cur, err := tx.Records.GetByID(ctx, id)
		if err != nil {
			return err
		}
		rec = *cur
		if !fields.Apply(&rec) {
			return nil
		}

		rec.UpdatedAt = s.bump(cur.UpdatedAt)
		rec.IsSynced = false
		if err := tx.Records.Update(ctx, &rec); err != nil {
			return err
		}

		p := rec.Payload()
		_, err = s.enqueue(ctx, tx, models.OutboxItem{Op: models.OpUpdate, TaskID: &id, Payload: &p, RemoteID: rec.RemoteID})
		return err
	})
	if err != nil {
		return models.Record{}, err
	}
	return rec, nil
}

// QueueDelete removes record id together with its pending create and update
// items. A delete item is enqueued only when the record is known remotely.
// Deleting a missing record is not an error.
func (s *Store) QueueDelete(ctx context.Context, id int64) error {
	return s.WithTx(ctx, "queue delete", func(ctx context.Context, tx *Tx) error {
		rec, err := tx.Records.GetByID(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := tx.Outbox.DeleteForTask(ctx, id, models.OpCreate, models.OpUpdate); err != nil {
			return err
		}
		if _, err := tx.Records.Delete(ctx, id); err != nil {
			return err
		}
		if rec.RemoteID == nil {
			return nil
		}
		_, err = s.enqueue(ctx, tx, models.OutboxItem{Op: models.OpDelete, TaskID: &id, RemoteID: rec.RemoteID})
		return err
	})
}

func (s *Store) stamp(rec *models.Record) {
	now := s.now()
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = rec.CreatedAt
	}
}

// bump returns a fresh updated_at strictly greater than prev so that two
// edits within one millisecond still compare as different snapshots.
func (s *Store) bump(prev int64) int64 {
	now := s.now()
	if now <= prev {
		return prev + 1
	}
	return now
}
