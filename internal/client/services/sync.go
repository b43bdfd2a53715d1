package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/syncbox/internal/client/client"
	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/client/store"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
)

const (
	DefaultBatchSize   = 50
	DefaultMaxAttempts = 5
)

// PassResult summarises one engine pass. Count is the batch size and is
// what SYNC_DONE carries.
type PassResult struct {
	Count       int
	Succeeded   int
	Failed      int
	Quarantined int
	Waiting     int
}

type SyncService interface {
	RunPass(ctx context.Context) (PassResult, error)
}

type outcome int

const (
	outcomeDone outcome = iota
	outcomeFailed
	outcomeQuarantined
	outcomeWaiting
)

type syncService struct {
	store       OutboxStore
	remote      client.Client
	notifier    Notifier
	logger      logging.Logger
	batchSize   int
	maxAttempts int

	// one pass at a time per engine
	mu sync.Mutex
}

type SyncOption func(*syncService)

// WithBatchSize lowers the number of items read per pass. Values above
// DefaultBatchSize are capped.
func WithBatchSize(n int) SyncOption {
	return func(s *syncService) {
		if n > 0 {
			s.batchSize = min(n, DefaultBatchSize)
		}
	}
}

// WithMaxAttempts sets how many rejected attempts an item gets before it is
// quarantined.
func WithMaxAttempts(n int) SyncOption {
	return func(s *syncService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewSyncService(st OutboxStore, remote client.Client, notifier Notifier, logger logging.Logger, opts ...SyncOption) SyncService {
	s := &syncService{
		store:       st,
		remote:      remote,
		notifier:    notifier,
		logger:      logger,
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunPass replays one batch. Only a failure to read the batch is returned;
// per-item failures are recorded on the items and counted in the result.
// SYNC_DONE is broadcast once the batch has been walked, whatever the
// individual outcomes.
func (s *syncService) RunPass(ctx context.Context) (PassResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, err := s.store.ReadBatch(ctx, s.batchSize)
	if err != nil {
		s.logger.Error(ctx, "sync pass: read batch failed", "error", err)
		return PassResult{}, err
	}

	res := PassResult{Count: len(batch)}
	for _, item := range batch {
		if ctx.Err() != nil {
			break
		}
		switch s.process(ctx, item) {
		case outcomeDone:
			res.Succeeded++
		case outcomeFailed:
			res.Failed++
		case outcomeQuarantined:
			res.Failed++
			res.Quarantined++
		case outcomeWaiting:
			res.Waiting++
		}
	}

	if res.Count > 0 {
		s.logger.Info(ctx, "sync pass done",
			"count", res.Count, "succeeded", res.Succeeded, "failed", res.Failed,
			"quarantined", res.Quarantined, "waiting", res.Waiting)
		if err := s.store.SaveLastPass(context.WithoutCancel(ctx), store.PassSummary{
			Count: res.Count, Succeeded: res.Succeeded, Failed: res.Failed, Quarantined: res.Quarantined,
		}); err != nil {
			s.logger.Warn(ctx, "sync pass: save summary failed", "error", err)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifySyncDone(ctx, res.Count)
	}
	return res, ctx.Err()
}

func (s *syncService) process(ctx context.Context, item models.OutboxItem) outcome {
	log := s.logger.With("item", item.ID, "op", string(item.Op))

	var (
		res outcome
		err error
	)
	switch item.Op {
	case models.OpCreate:
		res, err = s.replayCreate(ctx, item)
	case models.OpUpdate:
		res, err = s.replayUpdate(ctx, item)
	case models.OpDelete:
		res, err = s.replayDelete(ctx, item)
	default:
		err = common.NewValidationError("op", fmt.Sprintf("unknown operation %q", item.Op))
	}
	if err == nil {
		return res
	}
	return s.fail(ctx, log, item, err)
}

func (s *syncService) replayCreate(ctx context.Context, item models.OutboxItem) (outcome, error) {
	if item.Payload == nil {
		return 0, common.NewValidationError("payload", "missing or unreadable")
	}
	recordID, ok := item.RecordID()
	if !ok {
		return 0, common.NewValidationError("task_id", "create without record reference")
	}

	rec, err := s.store.GetRecord(ctx, recordID)
	if errors.Is(err, common.ErrorNotFound) {
		// the record was deleted before its create went out
		return outcomeDone, s.retire(ctx, item)
	}
	if err != nil {
		return 0, err
	}
	if rec.RemoteID != nil {
		// an earlier replay already reached the remote
		return outcomeDone, s.retire(ctx, item)
	}

	entry, err := s.remote.Create(ctx, item.IdempotencyKey, *item.Payload)
	if err != nil {
		return 0, err
	}
	_, err = s.store.MarkSynced(ctx, item.ID, rec.ID, entry.ID, item.Payload.UpdatedAt)
	return outcomeDone, err
}

func (s *syncService) replayUpdate(ctx context.Context, item models.OutboxItem) (outcome, error) {
	if item.Payload == nil {
		return 0, common.NewValidationError("payload", "missing or unreadable")
	}
	if item.TaskID == nil {
		return 0, common.NewValidationError("task_id", "required for update")
	}

	rec, err := s.store.GetRecord(ctx, *item.TaskID)
	if errors.Is(err, common.ErrorNotFound) {
		return outcomeDone, s.retire(ctx, item)
	}
	if err != nil {
		return 0, err
	}

	remoteID := rec.RemoteID
	if remoteID == nil {
		remoteID = item.RemoteID
	}
	if remoteID == nil {
		// the create has not been acknowledged yet; try again next pass
		s.logger.Debug(ctx, "sync pass: update waits for create", "item", item.ID, "record", rec.ID)
		return outcomeWaiting, nil
	}

	if _, err := s.remote.Update(ctx, *remoteID, *item.Payload); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, &common.ValidationError{Field: "remote_id", Reason: "entry missing on remote", Err: err}
		}
		return 0, err
	}
	_, err = s.store.MarkSynced(ctx, item.ID, rec.ID, *remoteID, item.Payload.UpdatedAt)
	return outcomeDone, err
}

func (s *syncService) replayDelete(ctx context.Context, item models.OutboxItem) (outcome, error) {
	if item.TaskID != nil {
		if _, err := s.store.GetRecord(ctx, *item.TaskID); err == nil {
			return 0, common.NewValidationError("task_id", "delete for a record that still exists")
		} else if !errors.Is(err, common.ErrorNotFound) {
			return 0, err
		}
	}

	if item.RemoteID != nil {
		if err := s.remote.Delete(ctx, *item.RemoteID); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "sync pass: remote delete failed, dropping", "item", item.ID, "remote_id", *item.RemoteID, "error", err)
		}
	}
	return outcomeDone, s.retire(ctx, item)
}

func (s *syncService) retire(ctx context.Context, item models.OutboxItem) error {
	return s.store.Clear(ctx, item.ID)
}

// fail records the attempt. Rejections (validation errors and non-transient
// remote responses) count towards quarantine; transient network and storage
// failures are only retried.
func (s *syncService) fail(ctx context.Context, log logging.Logger, item models.OutboxItem, err error) outcome {
	rejected := isRejection(err)
	quarantine := rejected && item.Attempts+1 >= s.maxAttempts

	switch {
	case quarantine:
		log.Error(ctx, "sync pass: item quarantined", "attempts", item.Attempts+1, "error", err)
	case rejected:
		log.Warn(ctx, "sync pass: item rejected", "attempts", item.Attempts+1, "error", err)
	default:
		log.Info(ctx, "sync pass: item deferred", "error", err)
	}

	if rerr := s.store.RecordFailure(context.WithoutCancel(ctx), item.ID, err.Error(), quarantine); rerr != nil {
		log.Error(ctx, "sync pass: record failure failed", "error", rerr)
	}
	if quarantine {
		return outcomeQuarantined
	}
	return outcomeFailed
}

func isRejection(err error) bool {
	if errors.Is(err, common.ErrValidation) {
		return true
	}
	var ne *common.NetworkError
	if errors.As(err, &ne) {
		return !ne.Retryable() && !errors.Is(err, common.ErrorUnauthorized)
	}
	return false
}
