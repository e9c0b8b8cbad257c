package services

import (
	"context"
	"sync/atomic"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/goals"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/storage"
)

const (
	latestExpenseCount = 5
	pinnedGoalLimit    = 3
	rollingWindowDays  = 30
)

// Indicator is a headline figure with its month-over-month change.
type Indicator struct {
	Value  float64          `json:"value"`
	Change analytics.Change `json:"change"`
	Text   string           `json:"text"`
}

func indicator(current, previous float64) Indicator {
	c := analytics.PercentChange(current, previous)
	return Indicator{Value: current, Change: c, Text: analytics.DescribeChange(c, current)}
}

// Snapshot is everything the summary page shows.
type Snapshot struct {
	Date           core.Date                   `json:"date"`
	Balance        Indicator                   `json:"balance"`
	MonthIncome    Indicator                   `json:"monthIncome"`
	MonthExpense   Indicator                   `json:"monthExpense"`
	Month          analytics.MonthlyComparison `json:"month"`
	Last30Days     analytics.Totals            `json:"last30Days"`
	LatestExpenses []core.Transaction          `json:"latestExpenses"`
	Weekly         []analytics.DailyPoint      `json:"weekly"`
	PinnedGoals    []goals.View                `json:"pinnedGoals"`
	GeneratedAt    time.Time                   `json:"generatedAt"`
}

// Report is the analytics page: all-time and 30-day views side by side.
type Report struct {
	AllTime           analytics.Totals          `json:"allTime"`
	Last30Days        analytics.Totals          `json:"last30Days"`
	ExpenseByCategory []analytics.CategoryShare `json:"expenseByCategory"`
	IncomeByCategory  []analytics.CategoryShare `json:"incomeByCategory"`
	Expense30Days     []analytics.CategoryShare `json:"expense30Days"`
	Income30Days      []analytics.CategoryShare `json:"income30Days"`
	Trend             []analytics.DailyPoint    `json:"trend"`
}

// DashboardService computes snapshots from the stored collections and
// keeps the most recent one for cheap reads.
type DashboardService struct {
	store  *storage.Accessor
	logger *applog.Logger
	today  func() core.Date
	latest atomic.Pointer[Snapshot]
}

func NewDashboardService(store *storage.Accessor, logger *applog.Logger) *DashboardService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DashboardService{
		store:  store,
		logger: logger.WithComponent(applog.ComponentDashboard),
		today:  core.Today,
	}
}

// Snapshot computes the dashboard as of today.
func (s *DashboardService) Snapshot(ctx context.Context, today core.Date) Snapshot {
	txs := s.store.Transactions(ctx)
	gs := s.store.Goals(ctx)

	bal := analytics.BalanceComparison(txs, today)
	month := analytics.CompareMonths(txs, today.Month(), today.Year())

	return Snapshot{
		Date:           today,
		Balance:        indicator(bal.Current, bal.Previous),
		MonthIncome:    indicator(month.Current.Totals.Income, month.Previous.Totals.Income),
		MonthExpense:   indicator(month.Current.Totals.Expense, month.Previous.Totals.Expense),
		Month:          month,
		Last30Days:     analytics.ComputeTotals(analytics.FilterLastNDays(txs, rollingWindowDays, today)),
		LatestExpenses: analytics.LatestExpenses(txs, latestExpenseCount),
		Weekly:         analytics.WeeklySeries(txs, today),
		PinnedGoals:    goals.PinnedOverview(gs, bal.Current, today, pinnedGoalLimit),
		GeneratedAt:    time.Now(),
	}
}

// Analytics computes the category and trend report as of today.
func (s *DashboardService) Analytics(ctx context.Context, today core.Date) Report {
	txs := s.store.Transactions(ctx)
	recent := analytics.FilterLastNDays(txs, rollingWindowDays, today)

	return Report{
		AllTime:           analytics.ComputeTotals(txs),
		Last30Days:        analytics.ComputeTotals(recent),
		ExpenseByCategory: analytics.CategoryBreakdown(txs, core.Expense),
		IncomeByCategory:  analytics.CategoryBreakdown(txs, core.Income),
		Expense30Days:     analytics.CategoryBreakdown(recent, core.Expense),
		Income30Days:      analytics.CategoryBreakdown(recent, core.Income),
		Trend:             analytics.TrendSeries(txs),
	}
}

// Refresh recomputes the cached snapshot.
func (s *DashboardService) Refresh(ctx context.Context) {
	snap := s.Snapshot(ctx, s.today())
	s.latest.Store(&snap)
	metrics.DashboardRefreshes.Inc()
	s.logger.DebugContext(ctx, "Dashboard refreshed",
		applog.FieldOperation, applog.OpRefresh,
		"balance", snap.Balance.Value)
}

// Latest serves the cached snapshot, computing one on first use.
func (s *DashboardService) Latest(ctx context.Context) Snapshot {
	if snap := s.latest.Load(); snap != nil {
		return *snap
	}
	s.Refresh(ctx)
	return *s.latest.Load()
}

// Run refreshes on every tick until ctx ends.
func (s *DashboardService) Run(ctx context.Context, interval time.Duration) error {
	s.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
