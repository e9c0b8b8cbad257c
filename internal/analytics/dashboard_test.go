package analytics

import (
	"testing"

	"fintrack/internal/core"
)

func TestLatestExpenses(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.Expense, 1, "food", "2024-01-01"),
		tx(2, core.Expense, 1, "food", "2024-01-05"),
		tx(3, core.Income, 1, "salary", "2024-01-09"),
		tx(4, core.Expense, 1, "food", "2024-01-05"),
		tx(5, core.Expense, 1, "food", "2024-01-03"),
	}
	got := LatestExpenses(txs, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	ids := [3]int64{got[0].ID, got[1].ID, got[2].ID}
	if ids != [3]int64{4, 2, 5} {
		t.Errorf("LatestExpenses() ids = %v, want [4 2 5]", ids)
	}
	if txs[0].ID != 1 {
		t.Error("input was reordered")
	}
}

func TestBalanceComparison(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.Income, 1000, "salary", "2024-01-15"),
		tx(2, core.Expense, 200, "food", "2024-01-31"),
		tx(3, core.Expense, 300, "food", "2024-02-01"),
	}
	got := BalanceComparison(txs, core.MustParseDate("2024-02-20"))
	if got.Current != 500 || got.Previous != 800 {
		t.Errorf("BalanceComparison() = %+v, want {500 800}", got)
	}
}

func TestTrendSeries(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.Expense, 5, "food", "2024-01-09"),
		tx(2, core.Income, 50, "gift", "2024-01-02"),
		tx(3, core.Expense, 7, "food", "2024-01-09"),
	}
	got := TrendSeries(txs)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Date.String() != "2024-01-02" || got[0].Income != 50 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Expense != 12 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestDescribeChange(t *testing.T) {
	tests := []struct {
		change  Change
		current float64
		want    string
	}{
		{Change{Percent: 12.5, HasPrior: true}, 10, "+12.5% compared to last month"},
		{Change{Percent: -3, HasPrior: true}, 10, "-3.0% compared to last month"},
		{Change{}, 40, "+100% compared to last month"},
		{Change{}, 0, "No data from last month"},
	}
	for _, tt := range tests {
		if got := DescribeChange(tt.change, tt.current); got != tt.want {
			t.Errorf("DescribeChange(%+v, %v) = %q, want %q", tt.change, tt.current, got, tt.want)
		}
	}
}
