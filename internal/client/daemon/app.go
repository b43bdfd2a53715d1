package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/client/bridge"
	"github.com/dmitrijs2005/syncbox/internal/client/cache"
	"github.com/dmitrijs2005/syncbox/internal/client/client"
	"github.com/dmitrijs2005/syncbox/internal/client/config"
	"github.com/dmitrijs2005/syncbox/internal/client/services"
	"github.com/dmitrijs2005/syncbox/internal/client/store"
	"github.com/dmitrijs2005/syncbox/internal/client/trigger"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config *config.Config
	logger logging.Logger

	store      *store.Store
	remote     client.Client
	hub        *bridge.Hub
	sync       services.SyncService
	records    services.RecordService
	dispatcher *trigger.Dispatcher
	manager    *trigger.SyncManager
	watcher    *trigger.Watcher
	bridge     *bridge.Server

	interceptor *cache.Interceptor
	closeCache  func() error
}

// NewApp opens the store and wires every component. Nothing is started
// until Run.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	st := store.New(cfg.DBPath, store.WithLogger(logger.With("module", "store")))
	db, err := st.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	app := &App{
		config: cfg,
		logger: logger,
		store:  st,
		remote: client.NewHTTPClient(cfg.RemoteURL, cfg.RemoteTimeout, client.WithToken(cfg.RemoteToken)),
		hub:    bridge.NewHub(),
	}

	app.sync = services.NewSyncService(st, app.remote, app.hub, logger.With("module", "sync"),
		services.WithBatchSize(cfg.BatchSize), services.WithMaxAttempts(cfg.MaxAttempts))
	app.records = services.NewRecordService(st, app.remote, nil)

	app.dispatcher = trigger.NewDispatcher(logger.With("module", "trigger"))
	app.manager = trigger.NewSyncManager(st, app.dispatcher, !cfg.DisableWatcher, logger.With("module", "trigger"))
	if err := app.registerTriggers(); err != nil {
		_ = st.Close()
		return nil, err
	}
	if !cfg.DisableWatcher {
		app.watcher = trigger.NewWatcher(app.remote, app.manager, cfg.OnlineCheckInterval, logger.With("module", "watcher"))
	}

	app.bridge = bridge.NewServer(cfg.BridgeAddr, app.hub, app.dispatcher, cfg.BridgeToken, logger)

	if cfg.ProxyAddr != "" {
		backend, closeFn, err := newCacheStorage(ctx, cfg, db)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("cache init error: %w", err)
		}
		ic, err := cache.New(cache.Config{Origin: cfg.AppOrigin, Version: cfg.CacheVersion}, backend,
			cache.WithLogger(logger))
		if err != nil {
			_ = closeFn()
			_ = st.Close()
			return nil, fmt.Errorf("cache init error: %w", err)
		}
		app.interceptor = ic
		app.closeCache = closeFn
	}

	return app, nil
}

func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting syncd...")

	if err := app.dispatcher.Fire(ctx, trigger.Startup); err != nil {
		app.logger.Warn(ctx, "startup sync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return app.bridge.Run(gctx) })

	if app.watcher != nil {
		g.Go(func() error {
			app.watcher.Run(gctx)
			return nil
		})
	}

	if app.interceptor != nil {
		g.Go(func() error {
			app.prepareCache(gctx)
			return nil
		})
		g.Go(func() error { return app.serveProxy(gctx) })
	}

	err := g.Wait()
	app.logger.Info(ctx, "syncd stopped")
	return err
}

// prepareCache precaches the shell and drops caches of older versions.
// An unreachable origin only costs the offline fallback.
func (app *App) prepareCache(ctx context.Context) {
	if err := app.interceptor.Install(ctx); err != nil {
		app.logger.Warn(ctx, "cache install failed", "error", err)
	}
	if _, err := app.interceptor.Activate(ctx); err != nil {
		app.logger.Warn(ctx, "cache activate failed", "error", err)
	}
}

func (app *App) serveProxy(ctx context.Context) error {
	lis, err := net.Listen("tcp", app.config.ProxyAddr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: app.interceptor, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping cache proxy...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting cache proxy", "address", lis.Addr().String(), "origin", app.config.AppOrigin)
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) Close() error {
	if app.interceptor != nil {
		app.interceptor.Wait()
	}
	var errs []error
	if app.closeCache != nil {
		errs = append(errs, app.closeCache())
	}
	errs = append(errs, app.store.Close())
	return errors.Join(errs...)
}
