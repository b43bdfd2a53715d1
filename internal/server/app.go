// Package server initializes and runs the Remote API: PostgreSQL storage,
// the optional Redis idempotency cache and the echo HTTP endpoint, with
// graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/dmitrijs2005/syncbox/internal/server/config"
	"github.com/dmitrijs2005/syncbox/internal/server/httpapi"
	"github.com/dmitrijs2005/syncbox/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/syncbox/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	redis        redis.UniversalClient
	entryService *services.EntryService
	echo         *echo.Echo
}

// NewApp opens the database, applies migrations and wires the HTTP API.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := sql.Open(repomanager.DriverName, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	app := &App{config: c, logger: logger, db: db}

	deduper, err := app.newDeduper(ctx)
	if err != nil {
		return nil, err
	}

	app.entryService = services.NewEntryService(db, rm, deduper, logger.With("module", "entries"))
	app.echo = httpapi.New(app.entryService, c.SecretKey, logger.With("module", "http"))
	return app, nil
}

func (app *App) newDeduper(ctx context.Context) (services.Deduper, error) {
	if app.config.RedisAddr == "" {
		return services.NopDeduper{}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	app.redis = rdb
	return services.NewRedisDeduper(rdb, app.config.RedisPrefix, app.config.DedupeTTL), nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "HTTP server listening", "addr", app.config.HTTPAddr)
	if err := app.echo.Start(app.config.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.echo.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown", "error", err)
	}

	wg.Wait()
	app.logger.Info(ctx, "App stopped")
}

func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}
