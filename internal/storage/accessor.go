package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// Accessor reads and writes record collections over a Store. Reads never
// fail: a missing key, a backend error or a corrupt document all yield an
// empty collection. Writes report success as a bool. Every failure is
// logged here so callers only decide what to do next.
type Accessor struct {
	store  Store
	logger *applog.Logger
}

func NewAccessor(store Store, logger *applog.Logger) *Accessor {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Accessor{store: store, logger: logger.WithComponent(applog.ComponentStorage)}
}

// Load decodes the collection under key.
func Load[T any](ctx context.Context, a *Accessor, key string) []T {
	out := []T{}
	doc, found, err := a.store.Get(ctx, key)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to read collection",
			applog.FieldCollection, key, applog.FieldOperation, applog.OpRead, applog.FieldError, err)
		return out
	}
	if !found || len(doc) == 0 {
		return out
	}
	if err := json.Unmarshal(doc, &out); err != nil {
		a.logger.ErrorContext(ctx, "Failed to decode collection",
			applog.FieldCollection, key, applog.FieldOperation, applog.OpParse, applog.FieldError, err)
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// Save replaces the collection under key.
func Save[T any](ctx context.Context, a *Accessor, key string, items []T) bool {
	if items == nil {
		items = []T{}
	}
	doc, err := json.Marshal(items)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to encode collection",
			applog.FieldCollection, key, applog.FieldOperation, applog.OpUpdate, applog.FieldError, err)
		return false
	}
	if err := a.store.Put(ctx, key, doc); err != nil {
		a.logger.ErrorContext(ctx, "Failed to write collection",
			applog.FieldCollection, key, applog.FieldOperation, applog.OpUpdate, applog.FieldError, err)
		return false
	}
	a.logger.DebugContext(ctx, "Collection saved", applog.FieldCollection, key, applog.FieldCount, len(items))
	return true
}

func (a *Accessor) Transactions(ctx context.Context) []core.Transaction {
	return Load[core.Transaction](ctx, a, KeyTransactions)
}

func (a *Accessor) SaveTransactions(ctx context.Context, txs []core.Transaction) bool {
	return Save(ctx, a, KeyTransactions, txs)
}

func (a *Accessor) Goals(ctx context.Context) []core.Goal {
	return Load[core.Goal](ctx, a, KeyGoals)
}

func (a *Accessor) SaveGoals(ctx context.Context, gs []core.Goal) bool {
	return Save(ctx, a, KeyGoals, gs)
}

// Ready reports whether the backing store answers.
func (a *Accessor) Ready(ctx context.Context) error {
	if err := a.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorage, err)
	}
	return nil
}

func (a *Accessor) Close() error {
	return a.store.Close()
}
