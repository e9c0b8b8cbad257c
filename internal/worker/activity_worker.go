package worker

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/storage"
)

// DefaultActivityLimit is how many events the activity feed keeps.
const DefaultActivityLimit = 200

// Consumer delivers events until ctx ends. *amqp.Client implements it.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// ActivityWorker appends ledger events to the capped activity collection.
type ActivityWorker struct {
	store  *storage.Accessor
	limit  int
	logger *applog.Logger
	mu     sync.Mutex
}

func NewActivityWorker(store *storage.Accessor, limit int, logger *applog.Logger) *ActivityWorker {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ActivityWorker{
		store:  store,
		limit:  limit,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// Handle stores one event. A redelivered event is acknowledged without
// being stored twice. A failed save returns an error so the delivery is
// requeued.
func (w *ActivityWorker) Handle(ctx context.Context, ev *amqp.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	items := storage.Load[amqp.Event](ctx, w.store, storage.KeyActivity)
	for _, it := range items {
		if it.ID == ev.ID {
			metrics.ActivityEvents.WithLabelValues("duplicate").Inc()
			w.logger.DebugContext(ctx, "Skipping duplicate event", applog.FieldMessageID, ev.ID)
			return nil
		}
	}

	items = append(items, *ev)
	if over := len(items) - w.limit; over > 0 {
		items = items[over:]
	}

	if !storage.Save(ctx, w.store, storage.KeyActivity, items) {
		metrics.ActivityEvents.WithLabelValues("requeued").Inc()
		return fmt.Errorf("%w: could not save activity", core.ErrStorage)
	}

	metrics.ActivityEvents.WithLabelValues("stored").Inc()
	w.logger.InfoContext(ctx, "Recorded ledger event",
		applog.FieldEventKind, ev.Kind,
		applog.FieldMessageID, ev.ID,
		applog.FieldCount, len(items))
	return nil
}

// Run consumes until ctx ends.
func (w *ActivityWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Activity worker started", "limit", w.limit)
	return c.Consume(ctx, w.Handle)
}

// Recent returns up to n stored events, newest first. n <= 0 means all.
func Recent(ctx context.Context, store *storage.Accessor, n int) []amqp.Event {
	items := storage.Load[amqp.Event](ctx, store, storage.KeyActivity)
	out := make([]amqp.Event, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if n > 0 && len(out) == n {
			break
		}
		out = append(out, items[i])
	}
	return out
}
