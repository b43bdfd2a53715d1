package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/client/bridge"
	"github.com/dmitrijs2005/syncbox/internal/client/client"
	"github.com/dmitrijs2005/syncbox/internal/client/config"
	"github.com/dmitrijs2005/syncbox/internal/client/services"
	"github.com/dmitrijs2005/syncbox/internal/client/store"
	"github.com/dmitrijs2005/syncbox/internal/client/trigger"
	"github.com/dmitrijs2005/syncbox/internal/logging"
)

const runNowTimeout = 2 * time.Second

// syncRequester reaches the daemon; *bridge.Client satisfies it.
type syncRequester interface {
	RunSyncNow(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *store.Store
	records services.RecordService
	local   services.SyncService
	watcher *trigger.Watcher
	daemon  syncRequester
	bridge  *bridge.Client

	reader      *bufio.Reader
	out         io.Writer
	interactive bool
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	st := store.New(c.DBPath, store.WithLogger(logger))
	if _, err := st.Open(ctx); err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	bc, err := bridge.Dial(c.BridgeAddr, []bridge.ClientOption{bridge.WithToken(c.BridgeToken)})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	remote := client.NewHTTPClient(c.RemoteURL, c.RemoteTimeout, client.WithToken(c.RemoteToken))

	a := &App{
		config:      c,
		logger:      logger,
		store:       st,
		daemon:      bc,
		bridge:      bc,
		reader:      bufio.NewReader(in),
		out:         out,
		interactive: isInteractive(in),
	}

	// The registration lands in the shared store, where the daemon's
	// watcher picks it up.
	manager := trigger.NewSyncManager(st, nil, !c.DisableWatcher, logger)
	kicker := trigger.NewKicker(manager, a.requestSync, logger)

	a.records = services.NewRecordService(st, remote, kicker)
	a.local = services.NewSyncService(st, remote, a, logger,
		services.WithBatchSize(c.BatchSize), services.WithMaxAttempts(c.MaxAttempts))
	a.watcher = trigger.NewWatcher(remote, nil, c.OnlineCheckInterval, logger)

	return a, nil
}

func (a *App) requestSync(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, runNowTimeout)
	defer cancel()
	return a.daemon.RunSyncNow(ctx)
}

// NotifySyncDone prints the end-of-pass message, whichever process ran it.
func (a *App) NotifySyncDone(_ context.Context, count int) {
	if count > 0 {
		fmt.Fprintf(a.out, "Synced: %d item(s) processed\n", count)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() error {
	if a.bridge != nil {
		_ = a.bridge.Close()
	}
	return a.store.Close()
}
