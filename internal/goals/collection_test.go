package goals

import (
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestReplaceAndRemove(t *testing.T) {
	gs := []core.Goal{goal(1, false, "2024-01-01"), goal(2, false, "2024-01-02")}

	updated := gs[1]
	updated.Name = "new"
	out, err := Replace(gs, updated)
	if err != nil || out[1].Name != "new" {
		t.Fatalf("Replace() = %+v, %v", out, err)
	}
	if gs[1].Name == "new" {
		t.Error("Replace mutated input")
	}

	out, err = Remove(gs, 1)
	if err != nil || len(out) != 1 || out[0].ID != 2 {
		t.Fatalf("Remove() = %+v, %v", out, err)
	}
	if _, err := Remove(gs, 99); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Remove(missing) error = %v", err)
	}
}

func TestPinnedOverviewLimit(t *testing.T) {
	gs := []core.Goal{
		goal(1, true, "2024-04-01"),
		goal(2, true, "2024-01-01"),
		goal(3, false, "2023-01-01"),
		goal(4, true, "2024-02-01"),
		goal(5, true, "2024-03-01"),
	}
	got := PinnedOverview(gs, 50, core.MustParseDate("2024-01-01"), 3)
	if len(got) != 3 || got[0].ID != 2 || got[1].ID != 4 || got[2].ID != 5 {
		t.Fatalf("PinnedOverview() ids = %v", []int64{got[0].ID, got[1].ID, got[2].ID})
	}
	if got[0].Progress.Percentage != 50 {
		t.Errorf("progress = %+v", got[0].Progress)
	}
}

func TestNewViewDayCounts(t *testing.T) {
	today := core.MustParseDate("2024-01-10")
	v := NewView(goal(1, false, "2024-01-05"), 0, today)
	if v.DaysRemaining == nil || *v.DaysRemaining != -5 || !v.Overdue || v.DaysTaken != nil {
		t.Errorf("active view = %+v", v)
	}

	g := goal(2, false, "2024-01-05")
	g.CreatedAt = core.TimestampOf(created.AddDate(0, 0, 5))
	g, _ = Achieve(g, 0, core.MustParseDate("2024-01-01"))
	v = NewView(g, 0, today)
	if v.DaysTaken == nil || *v.DaysTaken != 0 {
		t.Errorf("achieved view days taken = %v, want clamped 0", v.DaysTaken)
	}
}
