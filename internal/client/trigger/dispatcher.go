package trigger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/syncbox/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Trigger names.
const (
	Startup    = "startup"
	SyncOutbox = "sync-outbox"
	RunNow     = "run-now"
)

var (
	ErrUnknownTrigger    = errors.New("unknown trigger")
	ErrDuplicateTrigger  = errors.New("trigger already registered")
	ErrInvalidTriggerArg = errors.New("trigger name and handler are required")
)

type Handler func(ctx context.Context) error

type Dispatcher struct {
	logger logging.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	group    singleflight.Group
}

func NewDispatcher(logger logging.Logger) *Dispatcher {
	return &Dispatcher{logger: logger, handlers: make(map[string]Handler)}
}

// Register binds h to name. Each name can be bound once.
func (d *Dispatcher) Register(name string, h Handler) error {
	if name == "" || h == nil {
		return ErrInvalidTriggerArg
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTrigger, name)
	}
	d.handlers[name] = h
	return nil
}

// Fire runs the handler bound to name and waits for it. A fire that arrives
// while the same trigger is running joins that run.
func (d *Dispatcher) Fire(ctx context.Context, name string) error {
	d.mu.RLock()
	h, ok := d.handlers[name]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrigger, name)
	}

	_, err, shared := d.group.Do(name, func() (any, error) {
		d.logger.Debug(ctx, "trigger fired", "trigger", name)
		return nil, h(ctx)
	})
	if shared {
		d.logger.Debug(ctx, "trigger coalesced", "trigger", name)
	}
	return err
}

// FireAsync fires name in the background, logging a failure.
func (d *Dispatcher) FireAsync(ctx context.Context, name string) {
	go func() {
		if err := d.Fire(ctx, name); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Warn(ctx, "trigger failed", "trigger", name, "error", err)
		}
	}()
}

func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
