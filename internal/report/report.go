// Package report renders the dashboard, analytics, goals and rates as
// markdown, and turns that markdown into styled terminal output.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/goals"
	"fintrack/internal/rates"
	"fintrack/internal/services"
)

// Options control terminal rendering.
type Options struct {
	// Style is a glamour standard style ("dark", "light", "notty") or
	// "auto" to detect the terminal.
	Style string
	Width int
}

func DefaultOptions() Options {
	return Options{Style: "auto", Width: 100}
}

// Render styles markdown for the terminal.
func Render(md string, opts Options) (string, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions().Width
	}
	style := glamour.WithAutoStyle()
	if opts.Style != "" && opts.Style != "auto" {
		style = glamour.WithStandardStyle(opts.Style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(opts.Width))
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}

// Summary renders the dashboard snapshot. Amounts are labelled with
// currency.
func Summary(snap services.Snapshot, currency string) string {
	m := money(currency)
	var b strings.Builder

	fmt.Fprintf(&b, "# Summary for %s\n\n", snap.Date)

	b.WriteString("| | Amount | Change |\n|---|---:|---|\n")
	month := fmt.Sprintf("%s %d", snap.Date.Month(), snap.Date.Year())
	row(&b, "Balance", m(snap.Balance.Value), snap.Balance.Text)
	row(&b, "Income, "+month, m(snap.MonthIncome.Value), snap.MonthIncome.Text)
	row(&b, "Expense, "+month, m(snap.MonthExpense.Value), snap.MonthExpense.Text)
	b.WriteString("\n")

	b.WriteString("## Last 30 days\n\n")
	totals(&b, snap.Last30Days, m)

	b.WriteString("## Latest expenses\n\n")
	if len(snap.LatestExpenses) == 0 {
		b.WriteString("_No expenses yet._\n\n")
	} else {
		b.WriteString("| Date | Category | Description | Amount |\n|---|---|---|---:|\n")
		for _, tx := range snap.LatestExpenses {
			row(&b, tx.Date.String(), core.LookupCategory(tx.Category).String(), tx.Description, m(tx.Amount))
		}
		b.WriteString("\n")
	}

	b.WriteString("## This week\n\n")
	b.WriteString("| Day | Income | Expense |\n|---|---:|---:|\n")
	for _, p := range snap.Weekly {
		row(&b, p.Date.String(), m(p.Income), m(p.Expense))
	}
	b.WriteString("\n")

	b.WriteString("## Pinned goals\n\n")
	if len(snap.PinnedGoals) == 0 {
		b.WriteString("_No pinned goals._\n")
	}
	for _, v := range snap.PinnedGoals {
		goalLine(&b, v, m)
	}
	return b.String()
}

// Analytics renders the all-time and 30-day breakdowns.
func Analytics(rep services.Report, currency string) string {
	m := money(currency)
	var b strings.Builder

	b.WriteString("# Analytics\n\n")
	b.WriteString("## All time\n\n")
	totals(&b, rep.AllTime, m)
	shares(&b, "Expenses by category", rep.ExpenseByCategory, m)
	shares(&b, "Income by category", rep.IncomeByCategory, m)

	b.WriteString("## Last 30 days\n\n")
	totals(&b, rep.Last30Days, m)
	shares(&b, "Expenses by category, 30 days", rep.Expense30Days, m)
	shares(&b, "Income by category, 30 days", rep.Income30Days, m)
	return b.String()
}

// Goals renders the goal board: active goals first, then achieved ones.
func Goals(board goals.Board, currency string) string {
	m := money(currency)
	var b strings.Builder

	b.WriteString("# Goals\n\n## Active\n\n")
	if len(board.Active) == 0 {
		b.WriteString("_No active goals._\n\n")
	}
	for _, v := range board.Active {
		goalLine(&b, v, m)
	}
	if len(board.Active) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("## Achieved\n\n")
	if len(board.Achieved) == 0 {
		b.WriteString("_Nothing achieved yet._\n")
	}
	for _, v := range board.Achieved {
		goalLine(&b, v, m)
	}
	return b.String()
}

// Rates renders a rate table, one currency per row.
func Rates(t rates.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Exchange rates\n\n1 %s buys, source _%s_", t.Base, t.Source)
	if !t.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, ", updated %s", t.UpdatedAt.Format("2006-01-02 15:04"))
	}
	b.WriteString(":\n\n| Currency | Rate |\n|---|---:|\n")
	for _, code := range t.Codes() {
		row(&b, code, fmt.Sprintf("%.4f", t.Rates[code]))
	}
	return b.String()
}

func money(currency string) func(float64) string {
	return func(v float64) string { return core.FormatCurrency(v, currency) }
}

func totals(b *strings.Builder, t analytics.Totals, m func(float64) string) {
	fmt.Fprintf(b, "- Income: **%s**\n- Expense: **%s**\n- Balance: **%s**\n\n",
		m(t.Income), m(t.Expense), m(t.Balance))
}

func shares(b *strings.Builder, title string, ss []analytics.CategoryShare, m func(float64) string) {
	fmt.Fprintf(b, "### %s\n\n", title)
	if len(ss) == 0 {
		b.WriteString("_No data._\n\n")
		return
	}
	b.WriteString("| Category | Amount | Share |\n|---|---:|---:|\n")
	for _, s := range ss {
		row(b, core.LookupCategory(s.Category).String(), m(s.Amount), fmt.Sprintf("%.1f%%", s.Percent))
	}
	b.WriteString("\n")
}

func goalLine(b *strings.Builder, v goals.View, m func(float64) string) {
	fmt.Fprintf(b, "- %s **%s**: %.1f%% (%s of %s)",
		v.CategoryInfo.Icon, escape(v.Name), v.Progress.Percentage, m(v.Progress.Current), m(v.Target))
	switch {
	case v.DaysTaken != nil:
		fmt.Fprintf(b, ", achieved %s in %d days", v.AchievedAt, *v.DaysTaken)
	case v.Overdue:
		fmt.Fprintf(b, ", overdue by %d days", -*v.DaysRemaining)
	case v.DaysRemaining != nil:
		fmt.Fprintf(b, ", %d days left", *v.DaysRemaining)
	}
	if v.Pinned {
		b.WriteString(" (pinned)")
	}
	b.WriteString("\n")
}

func row(b *strings.Builder, cells ...string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escape(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

// escape keeps user text from breaking table cells or emphasis.
func escape(s string) string {
	r := strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "\n", " ")
	return r.Replace(s)
}
