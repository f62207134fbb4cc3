// Package realtime streams record change notifications: a decorator over
// the data provider publishes one event per committed write, a bus moves
// events between processes, and a hub fans them out to connected
// listeners.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Change describes one committed write.
type Change struct {
	Resource string    `json:"resource"`
	Action   string    `json:"action"`
	IDs      []string  `json:"ids"`
	At       time.Time `json:"at"`
}

// Bus carries changes from writers to forwarders, possibly across
// processes.
type Bus interface {
	Publish(ctx context.Context, change Change) error
	StartForwarder(ctx context.Context, onChange func(Change)) error
	Close() error
}

// LocalBus delivers changes synchronously inside one process. It is the
// default when no broker is configured.
type LocalBus struct {
	mu        sync.RWMutex
	log       *logger.Logger
	forwarder []func(Change)
	closed    bool
}

var _ Bus = (*LocalBus)(nil)

func NewLocalBus(log *logger.Logger) *LocalBus {
	return &LocalBus{log: log.With("service", "LocalBus")}
}

func (b *LocalBus) Publish(ctx context.Context, change Change) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, onChange := range b.forwarder {
		onChange(change)
	}
	return nil
}

func (b *LocalBus) StartForwarder(ctx context.Context, onChange func(Change)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarder = append(b.forwarder, onChange)
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.forwarder = nil
	return nil
}
