package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/logging"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher probes the Remote API on an interval and tracks the connectivity
// mode. While online it delivers pending sync registrations, so a tag
// registered while offline fires on the transition back online.
type Watcher struct {
	pinger   Pinger
	manager  *SyncManager
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger

	// OnChange, when set, is called after every mode transition.
	OnChange func(Mode)

	mu   sync.RWMutex
	mode Mode
}

// DefaultCheckInterval replaces a non-positive watcher interval.
const DefaultCheckInterval = 3 * time.Second

// NewWatcher builds a watcher. manager may be nil when only the mode is of
// interest, as in the foreground CLI.
func NewWatcher(pinger Pinger, manager *SyncManager, interval time.Duration, logger logging.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	timeout := 3 * time.Second
	if interval < timeout {
		timeout = interval
	}
	return &Watcher{pinger: pinger, manager: manager, interval: interval, timeout: timeout, logger: logger}
}

func (w *Watcher) Mode() Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mode
}

func (w *Watcher) setMode(ctx context.Context, mode Mode) bool {
	w.mu.Lock()
	changed := w.mode != mode
	w.mode = mode
	w.mu.Unlock()

	if changed {
		w.logger.Info(ctx, "connectivity changed", "mode", string(mode))
		if w.OnChange != nil {
			w.OnChange(mode)
		}
	}
	return changed
}

// Run checks once immediately, then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Check probes once and, when online, fires pending registrations.
func (w *Watcher) Check(ctx context.Context) Mode {
	pingCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(pingCtx)
	cancel()

	if err != nil {
		w.setMode(ctx, ModeOffline)
		return ModeOffline
	}
	w.setMode(ctx, ModeOnline)

	if w.manager != nil {
		if _, err := w.manager.FirePending(ctx); err != nil {
			w.logger.Error(ctx, "firing sync registrations", "error", err)
		}
	}
	return ModeOnline
}
