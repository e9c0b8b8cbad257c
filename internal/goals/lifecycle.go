// Package goals implements the savings-goal lifecycle: an active goal may
// be pinned until it is achieved, at which point its progress
// is frozen for good. Functions here take every input as a parameter and
// return new values; persistence belongs to the caller.
package goals

import (
	"math"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Input carries the editable fields of a goal.
type Input struct {
	Name     string    `json:"name"`
	Target   float64   `json:"target"`
	Deadline core.Date `json:"deadline"`
	Category string    `json:"category"`
}

// Progress is the live or frozen state of a goal against the balance.
type Progress struct {
	Current    float64 `json:"current"`
	Percentage float64 `json:"percentage"`
	Remaining  float64 `json:"remaining"`
}

// SpendingSource selects which date MarkInSpending records.
type SpendingSource string

const (
	FromAchievedDate SpendingSource = "achieved"
	FromDeadline     SpendingSource = "deadline"
)

// Validate reports every invalid field.
func (in Input) Validate() error {
	v := &core.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	if !(in.Target > 0) || math.IsInf(in.Target, 0) {
		v.Add("target", "must be a positive number")
	}
	if in.Deadline.IsZero() {
		v.Add("deadline", "is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		v.Add("category", "is required")
	}
	return v.OrNil()
}

// New builds an active goal from validated input.
func New(in Input, id int64, createdAt time.Time) (core.Goal, error) {
	if err := in.Validate(); err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		Target:    in.Target,
		Deadline:  in.Deadline,
		Category:  strings.TrimSpace(in.Category),
		CreatedAt: core.TimestampOf(createdAt),
	}, nil
}

// Edit overwrites the editable fields. Identity, lifecycle state, the
// frozen snapshot, the spending flag and the pin survive.
func Edit(g core.Goal, in Input) (core.Goal, error) {
	if err := in.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.Name = strings.TrimSpace(in.Name)
	g.Target = in.Target
	g.Deadline = in.Deadline
	g.Category = strings.TrimSpace(in.Category)
	return g, nil
}

// TogglePin flips the pin of an active goal.
func TogglePin(g core.Goal) (core.Goal, error) {
	if g.Achieved {
		return g, core.ErrGoalAchieved
	}
	g.Pinned = !g.Pinned
	return g, nil
}

// Achieve freezes the goal's progress against balance. The transition is
// one-way; a second call returns ErrGoalAchieved and leaves g untouched.
func Achieve(g core.Goal, balance float64, today core.Date) (core.Goal, error) {
	if g.Achieved {
		return g, core.ErrGoalAchieved
	}
	p := compute(g.Target, balance)
	g.Achieved = true
	g.AchievedAt = today
	g.FrozenCurrent = ptr(p.Current)
	g.FrozenProgress = ptr(p.Percentage)
	g.FrozenRemaining = ptr(p.Remaining)
	return g, nil
}

// MarkInSpending records the goal's target as an "other" expense on date.
// Repeating it appends another expense; the flag stays set.
func MarkInSpending(g core.Goal, date core.Date, txID int64) (core.Goal, core.Transaction, error) {
	if !g.Achieved {
		return g, core.Transaction{}, core.ErrGoalActive
	}
	tx := core.Transaction{
		ID:          txID,
		Type:        core.Expense,
		Amount:      g.Target,
		Category:    core.CategoryOther,
		Date:        date,
		Description: "Goal: " + g.Name,
	}
	g.MarkedInSpending = true
	return g, tx, nil
}

// SpendingDate resolves the date a caller picked for MarkInSpending.
func SpendingDate(g core.Goal, src SpendingSource) (core.Date, error) {
	switch src {
	case FromAchievedDate:
		if g.AchievedAt.IsZero() {
			return core.Date{}, core.ErrGoalActive
		}
		return g.AchievedAt, nil
	case FromDeadline:
		return g.Deadline, nil
	default:
		v := &core.ValidationError{}
		v.Add("use", "must be achieved or deadline")
		return core.Date{}, v
	}
}

// ProgressOf returns the frozen snapshot of an achieved goal, or the live
// progress against balance otherwise.
func ProgressOf(g core.Goal, balance float64) Progress {
	if g.Achieved && g.FrozenCurrent != nil && g.FrozenProgress != nil && g.FrozenRemaining != nil {
		return Progress{
			Current:    *g.FrozenCurrent,
			Percentage: *g.FrozenProgress,
			Remaining:  *g.FrozenRemaining,
		}
	}
	return compute(g.Target, balance)
}

func compute(target, balance float64) Progress {
	current := math.Max(balance, 0)
	var pct float64
	if target > 0 {
		pct = math.Min(current/target*100, 100)
	}
	return Progress{
		Current:    current,
		Percentage: pct,
		Remaining:  math.Max(target-current, 0),
	}
}

// ListActive returns active goals, pinned first, then by nearest deadline.
func ListActive(gs []core.Goal) []core.Goal {
	out := make([]core.Goal, 0, len(gs))
	for _, g := range gs {
		if !g.Achieved {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out
}

// ListAchieved returns achieved goals, most recent first.
func ListAchieved(gs []core.Goal) []core.Goal {
	out := make([]core.Goal, 0, len(gs))
	for _, g := range gs {
		if g.Achieved {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AchievedAt.After(out[j].AchievedAt)
	})
	return out
}

// DaysRemaining is negative once the deadline has passed.
func DaysRemaining(deadline, today core.Date) int {
	return today.DaysUntil(deadline)
}

// DaysTaken counts calendar days from creation to achievement. Callers
// clamp it at zero for display.
func DaysTaken(createdAt time.Time, achievedAt core.Date) int {
	return core.DateOf(createdAt).DaysUntil(achievedAt)
}

func ptr(f float64) *float64 { return &f }
