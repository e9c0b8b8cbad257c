package goals

import (
	"fintrack/internal/core"
)

// Find returns the index of the goal with id.
func Find(gs []core.Goal, id int64) (int, error) {
	for i, g := range gs {
		if g.ID == id {
			return i, nil
		}
	}
	return -1, core.ErrNotFound
}

// Replace returns a copy of gs with the goal sharing g's id swapped in.
func Replace(gs []core.Goal, g core.Goal) ([]core.Goal, error) {
	i, err := Find(gs, g.ID)
	if err != nil {
		return gs, err
	}
	out := append([]core.Goal(nil), gs...)
	out[i] = g
	return out, nil
}

// Remove returns a copy of gs without id.
func Remove(gs []core.Goal, id int64) ([]core.Goal, error) {
	i, err := Find(gs, id)
	if err != nil {
		return gs, err
	}
	out := make([]core.Goal, 0, len(gs)-1)
	out = append(out, gs[:i]...)
	return append(out, gs[i+1:]...), nil
}

// View is a goal decorated for display.
type View struct {
	core.Goal
	CategoryInfo  core.CategoryInfo `json:"categoryInfo"`
	Progress      Progress          `json:"progress"`
	DaysRemaining *int              `json:"daysRemaining,omitempty"`
	DaysTaken     *int              `json:"daysTaken,omitempty"`
	Overdue       bool              `json:"overdue"`
}

// NewView fills progress and day counts for g.
func NewView(g core.Goal, balance float64, today core.Date) View {
	v := View{
		Goal:         g,
		CategoryInfo: core.LookupGoalCategory(g.Category),
		Progress:     ProgressOf(g, balance),
	}
	if g.Achieved {
		taken := max(DaysTaken(g.CreatedAt.Time, g.AchievedAt), 0)
		v.DaysTaken = &taken
		return v
	}
	left := DaysRemaining(g.Deadline, today)
	v.DaysRemaining = &left
	v.Overdue = left < 0
	return v
}

// Board groups goals the way the goals page lists them.
type Board struct {
	Active   []View `json:"active"`
	Achieved []View `json:"achieved"`
}

func NewBoard(gs []core.Goal, balance float64, today core.Date) Board {
	b := Board{Active: []View{}, Achieved: []View{}}
	for _, g := range ListActive(gs) {
		b.Active = append(b.Active, NewView(g, balance, today))
	}
	for _, g := range ListAchieved(gs) {
		b.Achieved = append(b.Achieved, NewView(g, balance, today))
	}
	return b
}

// PinnedOverview returns up to limit pinned active goals with live
// progress, in ListActive order.
func PinnedOverview(gs []core.Goal, balance float64, today core.Date, limit int) []View {
	out := []View{}
	for _, g := range ListActive(gs) {
		if !g.Pinned || len(out) == limit {
			continue
		}
		out = append(out, NewView(g, balance, today))
	}
	return out
}
