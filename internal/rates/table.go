// Package rates looks up currency exchange rates and converts amounts.
package rates

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Where a Table came from.
const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceDerived  = "derived"
	SourceFallback = "fallback"
)

// Table maps currency codes to the number of units of that currency one
// unit of Base buys. Rates[Base] is always 1. A Table is never mutated
// after construction.
type Table struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Source    string             `json:"source"`
	UpdatedAt time.Time          `json:"updatedAt,omitzero"`
}

// StaticFallback is served when no live table has ever been fetched.
func StaticFallback() Table {
	return Table{
		Base: "HKD",
		Rates: map[string]float64{
			"HKD": 1,
			"USD": 0.128,
			"JPY": 19.5,
			"GBP": 0.10,
			"EUR": 0.12,
		},
		Source: SourceFallback,
	}
}

// Rate returns the rate for code, case-insensitively.
func (t Table) Rate(code string) (float64, bool) {
	r, ok := t.Rates[strings.ToUpper(code)]
	return r, ok && r > 0
}

// Codes lists the currencies in the table, sorted.
func (t Table) Codes() []string {
	codes := make([]string, 0, len(t.Rates))
	for c := range t.Rates {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Convert turns amount of from into to by going through the base:
// amount / rate[from] * rate[to]. Converting a currency to itself returns
// amount untouched, even for codes the table does not list.
func (t Table) Convert(amount float64, from, to string) (float64, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, core.ErrInvalidAmount
	}
	if from == to {
		return amount, nil
	}
	rf, ok := t.Rate(from)
	if !ok {
		return 0, fmt.Errorf("%w: %s", core.ErrUnknownCurrency, from)
	}
	rt, ok := t.Rate(to)
	if !ok {
		return 0, fmt.Errorf("%w: %s", core.ErrUnknownCurrency, to)
	}
	return amount / rf * rt, nil
}

// Rebase expresses the same rates relative to another currency in the
// table.
func (t Table) Rebase(base string) (Table, error) {
	base = strings.ToUpper(base)
	if base == t.Base {
		return t, nil
	}
	pivot, ok := t.Rate(base)
	if !ok {
		return Table{}, fmt.Errorf("%w: %s", core.ErrUnknownCurrency, base)
	}
	rates := make(map[string]float64, len(t.Rates))
	for code, r := range t.Rates {
		rates[code] = r / pivot
	}
	rates[base] = 1
	return Table{Base: base, Rates: rates, Source: SourceDerived, UpdatedAt: t.UpdatedAt}, nil
}
