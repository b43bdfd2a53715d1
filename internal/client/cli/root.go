package cli

import (
	"bufio"
	"context"
	"fmt"

	"github.com/dmitrijs2005/syncbox/internal/client/bridge"
	"github.com/dmitrijs2005/syncbox/internal/client/trigger"
)

func (a *App) getStatus() string {
	if a.watcher != nil && a.watcher.Mode() == trigger.ModeOffline {
		return "(offline) "
	}
	return ""
}

// startup re-enqueues unsynced records that lost their outbox item.
func (a *App) startup(ctx context.Context) {
	n, err := a.records.Reconcile(ctx)
	if err != nil {
		a.logger.Warn(ctx, "startup reconciliation failed", "error", err)
		return
	}
	if n > 0 {
		fmt.Fprintf(a.out, "Queued %d unsynced record(s) for sync\n", n)
	}
}

func (a *App) listenDaemon(ctx context.Context) {
	err := a.bridge.Listen(ctx, func(m bridge.Message) {
		if m.Type == bridge.TypeSyncDone {
			a.NotifySyncDone(ctx, m.Count)
		}
	})
	if err != nil {
		a.logger.Debug(ctx, "bridge listener stopped", "error", err)
	}
}

// Root runs the REPL until the user exits or input ends.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to syncbox (type 'help' for commands)")

	a.startup(ctx)

	if !a.config.DisableWatcher {
		go a.watcher.Run(ctx)
	}
	if a.bridge != nil {
		go a.listenDaemon(ctx)
	}

	scanner := bufio.NewScanner(a.reader)
	runREPL(ctx, a, a.getStatus, scanner)
}
