package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/syncbox/internal/client/client"
	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/client/store"
	"github.com/dmitrijs2005/syncbox/internal/common"
)

// Status is the snapshot shown by the CLI's status line.
type Status struct {
	store.Counts
	LastPass *store.PassSummary
}

type RecordService interface {
	Add(ctx context.Context, title, notes string) (models.Record, error)
	Edit(ctx context.Context, id int64, fields models.Fields) (models.Record, error)
	Toggle(ctx context.Context, id int64) (models.Record, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Record, error)
	List(ctx context.Context) ([]models.Record, error)
	Status(ctx context.Context) (Status, error)
	Dead(ctx context.Context) ([]models.OutboxItem, error)
	Requeue(ctx context.Context, ids ...int64) (int64, error)
	Reconcile(ctx context.Context) (int, error)
	Remote(ctx context.Context) ([]client.Entry, error)
}

type recordService struct {
	store  RecordStore
	remote client.Client
	kicker Kicker
}

// NewRecordService wires the foreground service. remote and kicker may be nil.
func NewRecordService(st RecordStore, remote client.Client, kicker Kicker) RecordService {
	return &recordService{store: st, remote: remote, kicker: kicker}
}

func (s *recordService) Add(ctx context.Context, title, notes string) (models.Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Record{}, common.NewValidationError("title", "required")
	}

	rec, err := s.store.QueueCreate(ctx, title, strings.TrimSpace(notes))
	if err != nil {
		return models.Record{}, fmt.Errorf("saving error: %w", err)
	}
	s.kick(ctx)
	return rec, nil
}

func (s *recordService) Edit(ctx context.Context, id int64, fields models.Fields) (models.Record, error) {
	if fields.Title != nil {
		t := strings.TrimSpace(*fields.Title)
		if t == "" {
			return models.Record{}, common.NewValidationError("title", "required")
		}
		fields.Title = &t
	}

	rec, err := s.store.QueueUpdate(ctx, id, fields)
	if err != nil {
		return models.Record{}, fmt.Errorf("error updating record: %w", err)
	}
	s.kick(ctx)
	return rec, nil
}

func (s *recordService) Toggle(ctx context.Context, id int64) (models.Record, error) {
	cur, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return models.Record{}, fmt.Errorf("error retrieving record: %w", err)
	}
	done := !cur.Completed
	return s.Edit(ctx, id, models.Fields{Completed: &done})
}

func (s *recordService) Delete(ctx context.Context, id int64) error {
	if err := s.store.QueueDelete(ctx, id); err != nil {
		return fmt.Errorf("error deleting record: %w", err)
	}
	s.kick(ctx)
	return nil
}

func (s *recordService) Get(ctx context.Context, id int64) (*models.Record, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving record: %w", err)
	}
	return rec, nil
}

func (s *recordService) List(ctx context.Context) ([]models.Record, error) {
	return s.store.ListRecords(ctx)
}

func (s *recordService) Status(ctx context.Context) (Status, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return Status{}, err
	}
	last, err := s.store.LastPass(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Counts: counts, LastPass: last}, nil
}

func (s *recordService) Dead(ctx context.Context) ([]models.OutboxItem, error) {
	return s.store.ListQuarantined(ctx)
}

func (s *recordService) Requeue(ctx context.Context, ids ...int64) (int64, error) {
	n, err := s.store.Requeue(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.kick(ctx)
	}
	return n, nil
}

// Reconcile re-enqueues unsynced records that lost their outbox item.
func (s *recordService) Reconcile(ctx context.Context) (int, error) {
	n, err := s.store.ReconcileUnsynced(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.kick(ctx)
	}
	return n, nil
}

// Remote lists what the Remote API currently holds.
func (s *recordService) Remote(ctx context.Context) ([]client.Entry, error) {
	if s.remote == nil {
		return nil, &common.PermissionError{Capability: "remote api"}
	}
	return s.remote.List(ctx)
}

func (s *recordService) kick(ctx context.Context) {
	if s.kicker != nil {
		s.kicker.Kick(ctx)
	}
}
