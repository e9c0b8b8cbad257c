package rates

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
)

// Fetcher returns the latest table for a base currency.
type Fetcher interface {
	Latest(ctx context.Context, base string) (Table, error)
}

// Board holds the rates the presentation layer converts with. It keeps
// the last good table for its own base and a TTL cache for the others.
type Board struct {
	fetcher Fetcher
	base    string
	logger  *applog.Logger
	current atomic.Pointer[Table]
	others  *tableCache
}

// NewBoard returns a board for base. Until the first successful Refresh
// it serves the static fallback.
func NewBoard(fetcher Fetcher, base string, logger *applog.Logger) *Board {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Board{
		fetcher: fetcher,
		base:    strings.ToUpper(base),
		logger:  logger.WithComponent(applog.ComponentRates),
		others:  newTableCache(16, 10*time.Minute),
	}
}

func (b *Board) Base() string { return b.base }

// Current never fails: the last fetched table, else the static fallback
// rebased to the board's base when possible.
func (b *Board) Current() Table {
	if t := b.current.Load(); t != nil {
		return *t
	}
	fb := StaticFallback()
	if rebased, err := fb.Rebase(b.base); err == nil {
		rebased.Source = SourceFallback
		return rebased
	}
	return fb
}

// Refresh fetches the board's base table. On failure the previous table
// stays in place.
func (b *Board) Refresh(ctx context.Context) error {
	t, err := b.fetcher.Latest(ctx, b.base)
	if err != nil {
		metrics.RateFetches.WithLabelValues("error").Inc()
		b.logger.WarnContext(ctx, "Rate refresh failed, keeping previous rates",
			applog.FieldOperation, applog.OpRefresh,
			applog.FieldCurrency, b.base,
			applog.FieldRateSource, b.Current().Source,
			applog.FieldError, err)
		return err
	}
	metrics.RateFetches.WithLabelValues("ok").Inc()
	b.current.Store(&t)
	b.others.Set(t.Base, t)
	b.logger.DebugContext(ctx, "Rates refreshed",
		applog.FieldCurrency, b.base, applog.FieldCount, len(t.Rates))
	return nil
}

// Run refreshes immediately and then on every tick until ctx ends.
func (b *Board) Run(ctx context.Context, interval time.Duration) error {
	_ = b.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = b.Refresh(ctx)
		}
	}
}

// For returns a table based on another currency: fresh from the cache,
// else fetched, else a stale cached copy, else cross rates derived from
// Current.
func (b *Board) For(ctx context.Context, base string) (Table, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" || base == b.base {
		return b.Current(), nil
	}
	if t, ok := b.others.Get(base); ok {
		t.Source = SourceCache
		return t, nil
	}

	t, err := b.fetcher.Latest(ctx, base)
	if err == nil {
		metrics.RateFetches.WithLabelValues("ok").Inc()
		b.others.Set(base, t)
		return t, nil
	}
	metrics.RateFetches.WithLabelValues("error").Inc()

	if stale, ok := b.others.Stale(base); ok {
		stale.Source = SourceCache
		b.logger.WarnContext(ctx, "Serving stale rates",
			applog.FieldCurrency, base, applog.FieldError, err)
		return stale, nil
	}
	derived, derr := b.Current().Rebase(base)
	if derr != nil {
		return Table{}, fmt.Errorf("rates for %s: %w", base, derr)
	}
	b.logger.WarnContext(ctx, "Serving derived rates",
		applog.FieldCurrency, base, applog.FieldError, err)
	return derived, nil
}

// Convert converts with the current table.
func (b *Board) Convert(amount float64, from, to string) (float64, Table, error) {
	t := b.Current()
	v, err := t.Convert(amount, from, to)
	if err != nil {
		return 0, t, err
	}
	return v, t, nil
}

var _ Fetcher = (*Client)(nil)

