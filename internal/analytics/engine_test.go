package analytics

import (
	"math"
	"testing"
	"time"

	"fintrack/internal/core"
)

func tx(id int64, typ core.TransactionType, amount float64, cat, date string) core.Transaction {
	return core.Transaction{ID: id, Type: typ, Amount: amount, Category: cat, Date: core.MustParseDate(date)}
}

func TestComputeTotals(t *testing.T) {
	if got := ComputeTotals(nil); got != (Totals{}) {
		t.Errorf("ComputeTotals(nil) = %+v, want zero", got)
	}

	txs := []core.Transaction{
		tx(1, core.Income, 1000, "salary", "2024-01-01"),
		tx(2, core.Expense, 250.5, "food", "2024-01-02"),
		tx(3, core.Expense, 49.5, "bills", "2024-01-03"),
	}
	got := ComputeTotals(txs)
	want := Totals{Income: 1000, Expense: 300, Balance: 700}
	if got != want {
		t.Errorf("ComputeTotals() = %+v, want %+v", got, want)
	}
	if got.Balance != got.Income-got.Expense {
		t.Errorf("balance %v != income-expense", got.Balance)
	}
}

func TestFilterLastNDays(t *testing.T) {
	ref := core.MustParseDate("2024-03-31")
	txs := []core.Transaction{
		tx(1, core.Expense, 1, "food", "2024-03-02"), // 29 days before
		tx(2, core.Expense, 1, "food", "2024-03-01"), // 30 days before
		tx(3, core.Expense, 1, "food", "2024-03-31"),
		tx(4, core.Expense, 1, "food", "2024-04-01"), // after ref
	}
	got := FilterLastNDays(txs, 30, ref)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("FilterLastNDays() = %+v, want ids [1 3]", got)
	}
	if got := FilterLastNDays(txs, 0, ref); len(got) != 0 {
		t.Errorf("n=0 returned %d", len(got))
	}
	if got := FilterLastNDays(nil, 30, ref); got == nil {
		t.Error("expected empty, non-nil slice")
	}
}

func TestCompareMonthsWrapsYear(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.Expense, 100, "food", "2024-01-10"),
		tx(2, core.Expense, 40, "food", "2023-12-31"),
		tx(3, core.Income, 500, "salary", "2023-12-01"),
		tx(4, core.Expense, 999, "food", "2024-12-15"), // same month, wrong year
		tx(5, core.Expense, 999, "food", "2023-11-30"),
	}
	cmp := CompareMonths(txs, time.January, 2024)

	if cmp.Previous.Year != 2023 || cmp.Previous.Month != time.December {
		t.Fatalf("previous window = %d-%v", cmp.Previous.Year, cmp.Previous.Month)
	}
	if len(cmp.Current.Transactions) != 1 || cmp.Current.Totals.Expense != 100 {
		t.Errorf("current = %+v", cmp.Current)
	}
	if len(cmp.Previous.Transactions) != 2 || cmp.Previous.Totals.Income != 500 || cmp.Previous.Totals.Expense != 40 {
		t.Errorf("previous = %+v", cmp.Previous)
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name              string
		current, previous float64
		want              Change
	}{
		{"both zero", 0, 0, Change{}},
		{"no prior", 120, 0, Change{}},
		{"growth", 150, 100, Change{Percent: 50, HasPrior: true}},
		{"drop", 75, 100, Change{Percent: -25, HasPrior: true}},
		{"negative base keeps sign formula", -50, -100, Change{Percent: -50, HasPrior: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentChange(tt.current, tt.previous)
			if got != tt.want {
				t.Errorf("PercentChange(%v, %v) = %+v, want %+v", tt.current, tt.previous, got, tt.want)
			}
			if math.IsNaN(got.Percent) || math.IsInf(got.Percent, 0) {
				t.Errorf("non-finite percent %v", got.Percent)
			}
		})
	}
	if s := PercentChange(0, 0).String(); s != "no data" {
		t.Errorf("String() = %q", s)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.Expense, 30, "food", "2024-01-01"),
		tx(2, core.Expense, 50, "mystery", "2024-01-02"),
		tx(3, core.Expense, 20, "food", "2024-01-03"),
		tx(4, core.Income, 1000, "salary", "2024-01-03"),
	}
	got := CategoryBreakdown(txs, core.Expense)
	if len(got) != 2 {
		t.Fatalf("got %d shares, want 2: %+v", len(got), got)
	}
	// Unknown keys keep their own bucket; ties sort by key.
	if got[0].Category != "food" || got[0].Amount != 50 || got[1].Category != "mystery" {
		t.Errorf("order = %+v", got)
	}
	var sum float64
	for _, s := range got {
		sum += s.Percent
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Errorf("percentages sum to %v", sum)
	}
}

func TestCategoryBreakdownZeroTotal(t *testing.T) {
	txs := []core.Transaction{
		{ID: 1, Type: core.Expense, Amount: 0, Category: "food", Date: core.MustParseDate("2024-01-01")},
	}
	got := CategoryBreakdown(txs, core.Expense)
	if len(got) != 1 || got[0].Percent != 0 {
		t.Errorf("zero total breakdown = %+v", got)
	}
	if got := CategoryBreakdown(nil, core.Income); len(got) != 0 {
		t.Errorf("empty breakdown = %+v", got)
	}
}

func TestDailySeriesZeroFills(t *testing.T) {
	ref := core.MustParseDate("2024-01-07")
	txs := []core.Transaction{
		tx(1, core.Income, 10, "gift", "2024-01-01"),
		tx(2, core.Expense, 5, "food", "2024-01-07"),
		tx(3, core.Expense, 2, "food", "2024-01-07"),
		tx(4, core.Expense, 100, "food", "2023-12-31"),
	}
	got := WeeklySeries(txs, ref)
	if len(got) != 7 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Date.String() != "2024-01-01" || got[6].Date.String() != "2024-01-07" {
		t.Errorf("window = %v..%v", got[0].Date, got[6].Date)
	}
	if got[0].Income != 10 || got[6].Expense != 7 {
		t.Errorf("sums = %+v / %+v", got[0], got[6])
	}
	for i := 1; i < 6; i++ {
		if got[i].Income != 0 || got[i].Expense != 0 {
			t.Errorf("day %d not zero: %+v", i, got[i])
		}
	}
}
