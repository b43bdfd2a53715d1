package trigger

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
)

const tagPrefix = "trigger.tag."

// Registry persists registrations; the Durable Store implements it.
type Registry interface {
	SetMeta(ctx context.Context, key string, value []byte) error
	DeleteMeta(ctx context.Context, key string) error
	ListMeta(ctx context.Context, prefix string) (map[string][]byte, error)
}

type SyncManager struct {
	registry   Registry
	dispatcher *Dispatcher
	enabled    bool
	logger     logging.Logger
}

// NewSyncManager returns a manager. When enabled is false the environment
// offers no background execution and Register reports a PermissionError.
func NewSyncManager(registry Registry, dispatcher *Dispatcher, enabled bool, logger logging.Logger) *SyncManager {
	return &SyncManager{registry: registry, dispatcher: dispatcher, enabled: enabled, logger: logger}
}

func (m *SyncManager) Enabled() bool { return m.enabled }

// Register asks for tag to be fired once connectivity allows. Registering
// an already pending tag is a no-op.
func (m *SyncManager) Register(ctx context.Context, tag string) error {
	if !m.enabled {
		return &common.PermissionError{Capability: "background sync"}
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return common.NewValidationError("tag", "required")
	}
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return m.registry.SetMeta(ctx, tagPrefix+tag, []byte(now))
}

func (m *SyncManager) Unregister(ctx context.Context, tag string) error {
	return m.registry.DeleteMeta(ctx, tagPrefix+tag)
}

// Pending lists the registered tags in name order.
func (m *SyncManager) Pending(ctx context.Context) ([]string, error) {
	kv, err := m.registry.ListMeta(ctx, tagPrefix)
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(kv))
	for k := range kv {
		tags = append(tags, strings.TrimPrefix(k, tagPrefix))
	}
	sort.Strings(tags)
	return tags, nil
}

// FirePending delivers every pending registration. A tag whose handler
// succeeds is dropped; a failing one stays for the next delivery. It
// returns how many tags were delivered successfully.
func (m *SyncManager) FirePending(ctx context.Context) (int, error) {
	if m.dispatcher == nil {
		return 0, nil
	}
	tags, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, tag := range tags {
		err := m.dispatcher.Fire(ctx, tag)
		switch {
		case errors.Is(err, ErrUnknownTrigger):
			m.logger.Warn(ctx, "dropping registration without handler", "tag", tag)
			_ = m.Unregister(ctx, tag)
		case err != nil:
			m.logger.Warn(ctx, "background sync failed, will retry", "tag", tag, "error", err)
		default:
			if err := m.Unregister(ctx, tag); err != nil {
				return delivered, err
			}
			delivered++
		}
	}
	return delivered, nil
}
