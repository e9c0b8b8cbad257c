package analytics

import (
	"fmt"
	"sort"

	"fintrack/internal/core"
)

// WeeklySeries is the 7-day series shown on the dashboard.
func WeeklySeries(txs []core.Transaction, ref core.Date) []DailyPoint {
	return DailySeries(txs, 7, ref)
}

// LatestExpenses returns up to n expenses, newest date first.
func LatestExpenses(txs []core.Transaction, n int) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.IsExpense() {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c > 0
		}
		return out[i].ID > out[j].ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TotalsThrough rolls up transactions dated on or before d.
func TotalsThrough(txs []core.Transaction, d core.Date) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.Date.After(d) {
			continue
		}
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

// BalancePair is the net balance now and at the close of the previous
// month.
type BalancePair struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

// BalanceComparison compares the all-time balance against the balance as
// of the last day of the month before ref.
func BalanceComparison(txs []core.Transaction, ref core.Date) BalancePair {
	lastMonthEnd := ref.FirstOfMonth().AddDays(-1)
	return BalancePair{
		Current:  ComputeTotals(txs).Balance,
		Previous: TotalsThrough(txs, lastMonthEnd).Balance,
	}
}

// TrendSeries returns one point per distinct transaction date, ascending.
// Unlike DailySeries it does not fill gaps.
func TrendSeries(txs []core.Transaction) []DailyPoint {
	byDate := make(map[core.Date]*DailyPoint)
	for _, tx := range txs {
		p, ok := byDate[tx.Date]
		if !ok {
			p = &DailyPoint{Date: tx.Date}
			byDate[tx.Date] = p
		}
		addTo(p, tx)
	}
	out := make([]DailyPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// DescribeChange renders a Change the way the dashboard badges read.
// Growth from nothing is shown as +100%.
func DescribeChange(c Change, current float64) string {
	switch {
	case c.HasPrior:
		return fmt.Sprintf("%+.1f%% compared to last month", c.Percent)
	case current > 0:
		return "+100% compared to last month"
	default:
		return "No data from last month"
	}
}
