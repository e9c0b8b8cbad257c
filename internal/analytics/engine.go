// Package analytics derives balances, rollups and series from a flat list
// of transactions. Every function is pure: inputs are never mutated and an
// empty list yields zeroed results.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"
)

type (
	// Totals is the income/expense rollup of a set of transactions.
	Totals struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Balance float64 `json:"balance"`
	}

	// MonthWindow is one calendar month of a comparison.
	MonthWindow struct {
		Year         int                `json:"year"`
		Month        time.Month         `json:"month"`
		Transactions []core.Transaction `json:"-"`
		Totals       Totals             `json:"totals"`
	}

	MonthlyComparison struct {
		Current  MonthWindow `json:"current"`
		Previous MonthWindow `json:"previous"`
	}

	// Change is a signed percentage. HasPrior is false when the previous
	// value was zero and no ratio exists.
	Change struct {
		Percent  float64 `json:"percent"`
		HasPrior bool    `json:"hasPrior"`
	}

	CategoryShare struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Percent  float64 `json:"percent"`
	}

	DailyPoint struct {
		Date    core.Date `json:"date"`
		Income  float64   `json:"income"`
		Expense float64   `json:"expense"`
	}
)

// ComputeTotals sums income and expense; balance is their difference.
func ComputeTotals(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income += tx.Amount
		case core.Expense:
			t.Expense += tx.Amount
		}
	}
	t.Balance = t.Income - t.Expense
	return t
}

// FilterLastNDays keeps transactions dated within the n days ending at ref,
// both ends included.
func FilterLastNDays(txs []core.Transaction, n int, ref core.Date) []core.Transaction {
	out := []core.Transaction{}
	if n <= 0 {
		return out
	}
	start := ref.AddDays(-(n - 1))
	for _, tx := range txs {
		if !tx.Date.Before(start) && !tx.Date.After(ref) {
			out = append(out, tx)
		}
	}
	return out
}

// CompareMonths partitions txs into the given month and the month before
// it. Transactions outside both are ignored.
func CompareMonths(txs []core.Transaction, month time.Month, year int) MonthlyComparison {
	py, pm := core.PreviousMonth(year, month)
	cmp := MonthlyComparison{
		Current:  MonthWindow{Year: year, Month: month, Transactions: []core.Transaction{}},
		Previous: MonthWindow{Year: py, Month: pm, Transactions: []core.Transaction{}},
	}
	for _, tx := range txs {
		switch {
		case tx.Date.InMonth(year, month):
			cmp.Current.Transactions = append(cmp.Current.Transactions, tx)
		case tx.Date.InMonth(py, pm):
			cmp.Previous.Transactions = append(cmp.Previous.Transactions, tx)
		}
	}
	cmp.Current.Totals = ComputeTotals(cmp.Current.Transactions)
	cmp.Previous.Totals = ComputeTotals(cmp.Previous.Transactions)
	return cmp
}

// PercentChange returns (current-previous)/previous*100. A zero previous
// value yields a Change without prior data instead of a division.
func PercentChange(current, previous float64) Change {
	if previous == 0 {
		return Change{}
	}
	return Change{Percent: (current - previous) / previous * 100, HasPrior: true}
}

func (c Change) String() string {
	if !c.HasPrior {
		return "no data"
	}
	return fmt.Sprintf("%+.1f%%", c.Percent)
}

// CategoryBreakdown sums amounts of the given type per literal category
// key, largest first.
func CategoryBreakdown(txs []core.Transaction, typ core.TransactionType) []CategoryShare {
	sums := make(map[string]float64)
	var total float64
	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		sums[tx.Category] += tx.Amount
		total += tx.Amount
	}

	out := make([]CategoryShare, 0, len(sums))
	for cat, amount := range sums {
		out = append(out, CategoryShare{Category: cat, Amount: amount, Percent: share(amount, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// DailySeries returns one point per day in the window of the given length
// ending at ref, oldest first. Days without transactions are zero-filled.
func DailySeries(txs []core.Transaction, days int, ref core.Date) []DailyPoint {
	if days <= 0 {
		return []DailyPoint{}
	}
	start := ref.AddDays(-(days - 1))
	series := make([]DailyPoint, days)
	for i := range series {
		series[i].Date = start.AddDays(i)
	}
	for _, tx := range txs {
		i := start.DaysUntil(tx.Date)
		if i < 0 || i >= days {
			continue
		}
		addTo(&series[i], tx)
	}
	return series
}

func addTo(p *DailyPoint, tx core.Transaction) {
	switch tx.Type {
	case core.Income:
		p.Income += tx.Amount
	case core.Expense:
		p.Expense += tx.Amount
	}
}
