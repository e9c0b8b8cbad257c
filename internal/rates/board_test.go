package rates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

type fakeFetcher struct {
	mu     sync.Mutex
	tables map[string]Table
	err    error
	calls  int
}

func (f *fakeFetcher) Latest(_ context.Context, base string) (Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Table{}, f.err
	}
	t, ok := f.tables[base]
	if !ok {
		return Table{}, fmt.Errorf("%w: no table for %s", core.ErrNetwork, base)
	}
	return t, nil
}

func (f *fakeFetcher) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func liveHKD() Table {
	return Table{Base: "HKD", Rates: map[string]float64{"HKD": 1, "USD": 0.13, "CHF": 0.11}, Source: SourceLive}
}

func TestBoardCurrentFallsBack(t *testing.T) {
	b := NewBoard(&fakeFetcher{}, "HKD", applog.Discard())
	cur := b.Current()
	if cur.Source != SourceFallback || cur.Rates["USD"] != 0.128 {
		t.Errorf("Current() = %+v, want static fallback", cur)
	}

	usd := NewBoard(&fakeFetcher{}, "USD", applog.Discard()).Current()
	if usd.Base != "USD" || usd.Source != SourceFallback || usd.Rates["USD"] != 1 {
		t.Errorf("rebased fallback = %+v", usd)
	}
}

func TestBoardRefreshKeepsPreviousOnFailure(t *testing.T) {
	f := &fakeFetcher{tables: map[string]Table{"HKD": liveHKD()}}
	b := NewBoard(f, "HKD", applog.Discard())

	if err := b.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.fail(core.ErrNetwork)
	if err := b.Refresh(context.Background()); !errors.Is(err, core.ErrNetwork) {
		t.Fatalf("Refresh() error = %v", err)
	}
	if cur := b.Current(); cur.Source != SourceLive || cur.Rates["CHF"] != 0.11 {
		t.Errorf("Current() = %+v, want previous live table", cur)
	}
}

func TestBoardFor(t *testing.T) {
	usd := Table{Base: "USD", Rates: map[string]float64{"USD": 1, "HKD": 7.8}, Source: SourceLive}
	f := &fakeFetcher{tables: map[string]Table{"HKD": liveHKD(), "USD": usd}}
	b := NewBoard(f, "HKD", applog.Discard())
	ctx := context.Background()
	_ = b.Refresh(ctx)

	t.Run("own base is current", func(t *testing.T) {
		got, err := b.For(ctx, "hkd")
		if err != nil || got.Source != SourceLive || got.Base != "HKD" {
			t.Errorf("For(HKD) = %+v, %v", got, err)
		}
	})

	t.Run("fetch then cache", func(t *testing.T) {
		got, err := b.For(ctx, "USD")
		if err != nil || got.Source != SourceLive {
			t.Fatalf("For(USD) = %+v, %v", got, err)
		}
		calls := f.calls
		got, err = b.For(ctx, "USD")
		if err != nil || got.Source != SourceCache || f.calls != calls {
			t.Errorf("second For(USD) = %+v, %v, calls %d -> %d", got, err, calls, f.calls)
		}
	})

	t.Run("stale entry on failure", func(t *testing.T) {
		b.others.now = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { b.others.now = time.Now }()
		f.fail(core.ErrNetwork)
		defer f.fail(nil)

		got, err := b.For(ctx, "USD")
		if err != nil || got.Source != SourceCache || got.Rates["HKD"] != 7.8 {
			t.Errorf("For(USD) = %+v, %v", got, err)
		}
	})

	t.Run("derived when never fetched", func(t *testing.T) {
		f.fail(core.ErrNetwork)
		defer f.fail(nil)

		got, err := b.For(ctx, "CHF")
		if err != nil || got.Source != SourceDerived || got.Rates["CHF"] != 1 {
			t.Errorf("For(CHF) = %+v, %v", got, err)
		}
	})

	t.Run("unknown everywhere", func(t *testing.T) {
		f.fail(core.ErrNetwork)
		defer f.fail(nil)

		if _, err := b.For(ctx, "ZZZ"); !errors.Is(err, core.ErrUnknownCurrency) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestBoardRunStopsOnCancel(t *testing.T) {
	f := &fakeFetcher{tables: map[string]Table{"HKD": liveHKD()}}
	b := NewBoard(f, "HKD", applog.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, time.Hour) }()

	deadline := time.After(2 * time.Second)
	for b.Current().Source != SourceLive {
		select {
		case <-deadline:
			t.Fatal("initial refresh did not happen")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestBoardConvert(t *testing.T) {
	b := NewBoard(&fakeFetcher{}, "HKD", applog.Discard())
	got, tbl, err := b.Convert(100, "HKD", "USD")
	if err != nil || tbl.Source != SourceFallback {
		t.Fatalf("Convert() = %v, %+v, %v", got, tbl, err)
	}
	if got < 12.79 || got > 12.81 {
		t.Errorf("Convert() = %v", got)
	}
}
