package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/storage"
)

// EventPublisher sends ledger events. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.Event) error
}

// ledger guards the read-modify-write cycle shared by both collections.
// MarkInSpending touches transactions and goals under the same lock.
type ledger struct {
	mu     sync.Mutex
	store  *storage.Accessor
	events EventPublisher
	logger *applog.Logger

	hooksMu  sync.RWMutex
	onChange []func(context.Context)
}

// publish never fails the caller; the mutation is already persisted.
func (l *ledger) publish(ctx context.Context, ev *amqp.Event) {
	if l.events == nil {
		return
	}
	if err := l.events.Publish(ctx, ev); err != nil {
		l.logger.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldEventKind, ev.Kind,
			applog.FieldError, err)
	}
}

func (l *ledger) changed(ctx context.Context) {
	l.hooksMu.RLock()
	hooks := slices.Clone(l.onChange)
	l.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

func (l *ledger) subscribe(fn func(context.Context)) {
	l.hooksMu.Lock()
	l.onChange = append(l.onChange, fn)
	l.hooksMu.Unlock()
}

func storageFailure(collection string) error {
	metrics.StorageWriteFailures.WithLabelValues(collection).Inc()
	return fmt.Errorf("%w: could not save %s", core.ErrStorage, collection)
}
