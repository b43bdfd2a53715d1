package daemon

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/syncbox/internal/client/trigger"
	"github.com/dmitrijs2005/syncbox/internal/common"
)

// maxPassesPerTrigger bounds how many batches one fire may drain.
const maxPassesPerTrigger = 20

var errOutboxNotDrained = errors.New("outbox not fully delivered")

func (app *App) registerTriggers() error {
	handlers := map[string]trigger.Handler{
		trigger.Startup:    app.startup,
		trigger.SyncOutbox: app.drain,
		trigger.RunNow:     app.drain,
	}
	for name, h := range handlers {
		if err := app.dispatcher.Register(name, h); err != nil {
			return err
		}
	}
	return nil
}

// startup re-enqueues records that lost their outbox item, then asks for a
// background delivery. Without a watcher it drains right away.
func (app *App) startup(ctx context.Context) error {
	n, err := app.records.Reconcile(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		app.logger.Info(ctx, "reconciled unsynced records", "count", n)
	}

	err = app.manager.Register(ctx, trigger.SyncOutbox)
	if errors.Is(err, common.ErrPermission) {
		return app.drain(ctx)
	}
	return err
}

// drain runs passes until the outbox is empty or stops making progress.
// Items still waiting on the network make it fail, so a sync-outbox
// registration stays pending for the next online check.
func (app *App) drain(ctx context.Context) error {
	for i := 0; i < maxPassesPerTrigger; i++ {
		res, err := app.sync.RunPass(ctx)
		if err != nil {
			return err
		}
		pending := res.Failed - res.Quarantined + res.Waiting
		if res.Count < app.config.BatchSize || res.Succeeded == 0 {
			if pending > 0 {
				return errOutboxNotDrained
			}
			return nil
		}
	}
	return nil
}
