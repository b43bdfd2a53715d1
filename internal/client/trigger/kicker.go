package trigger

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
)

// Kicker is what the foreground does after a local write: register the
// outbox tag for background delivery and, if a daemon is listening, ask it
// for an immediate pass. Both steps are best-effort.
type Kicker struct {
	manager *SyncManager
	runNow  func(ctx context.Context) error
	logger  logging.Logger
}

func NewKicker(manager *SyncManager, runNow func(ctx context.Context) error, logger logging.Logger) *Kicker {
	return &Kicker{manager: manager, runNow: runNow, logger: logger}
}

func (k *Kicker) Kick(ctx context.Context) {
	if k.manager != nil {
		err := k.manager.Register(ctx, SyncOutbox)
		switch {
		case errors.Is(err, common.ErrPermission):
			k.logger.Debug(ctx, "background sync unavailable", "error", err)
		case err != nil:
			k.logger.Warn(ctx, "registering background sync", "error", err)
		}
	}
	if k.runNow != nil {
		if err := k.runNow(ctx); err != nil {
			k.logger.Debug(ctx, "run-now not delivered", "error", err)
		}
	}
}
