package cache

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/club-management/internal/core/events"
)

// Invalidator drops counters whose source rows changed.
type Invalidator struct {
	cache  Cache
	logger *slog.Logger
}

func NewInvalidator(c Cache, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{cache: c, logger: logger}
}

func (i *Invalidator) RegisterEventHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeExpenseTransitioned, i.pendingChanged)
	bus.Subscribe(events.EventTypeTransferTransitioned, i.pendingChanged)
}

func (i *Invalidator) pendingChanged(ctx context.Context, _ events.Event) error {
	Forget(ctx, i.cache, i.logger, KeyPendingCount)
	return nil
}
