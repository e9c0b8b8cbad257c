package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/goals"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/storage"
)

// GoalService loads goals, applies one lifecycle step and saves the
// result. The balance a step needs is read from the transactions at call
// time.
type GoalService struct {
	l      *ledger
	txs    *TransactionService
	ids    *core.IDGenerator
	logger *applog.Logger
	now    func() time.Time
}

// SpendingResult is what MarkInSpending recorded. AlreadyMarked is true
// when the goal had been marked before, so the caller can warn about the
// duplicate expense.
type SpendingResult struct {
	Goal          core.Goal        `json:"goal"`
	Transaction   core.Transaction `json:"transaction"`
	AlreadyMarked bool             `json:"alreadyMarked"`
}

// NewGoalService shares the ledger lock and event publisher of txs.
func NewGoalService(txs *TransactionService, logger *applog.Logger) *GoalService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &GoalService{
		l:      txs.l,
		txs:    txs,
		ids:    txs.ids,
		logger: logger.WithComponent(applog.ComponentGoals),
		now:    time.Now,
	}
}

func (s *GoalService) balance(ctx context.Context) float64 {
	return analytics.ComputeTotals(s.l.store.Transactions(ctx)).Balance
}

// List groups the goals into active and achieved views.
func (s *GoalService) List(ctx context.Context, today core.Date) goals.Board {
	return goals.NewBoard(s.l.store.Goals(ctx), s.balance(ctx), today)
}

// View returns one goal with its progress.
func (s *GoalService) View(ctx context.Context, id int64, today core.Date) (goals.View, error) {
	gs := s.l.store.Goals(ctx)
	i, err := goals.Find(gs, id)
	if err != nil {
		return goals.View{}, fmt.Errorf("goal %d: %w", id, err)
	}
	return goals.NewView(gs[i], s.balance(ctx), today), nil
}

func (s *GoalService) Create(ctx context.Context, in goals.Input) (core.Goal, error) {
	g, err := goals.New(in, s.ids.Next(), s.now())
	if err != nil {
		return core.Goal{}, err
	}

	s.l.mu.Lock()
	gs := s.l.store.Goals(ctx)
	ok := s.l.store.SaveGoals(ctx, append(gs, g))
	s.l.mu.Unlock()
	if !ok {
		return core.Goal{}, storageFailure(storage.KeyGoals)
	}

	s.after(ctx, "Goal created", applog.OpCreate, amqp.KindGoalCreated, g)
	return g, nil
}

func (s *GoalService) Update(ctx context.Context, id int64, in goals.Input) (core.Goal, error) {
	if err := in.Validate(); err != nil {
		return core.Goal{}, err
	}
	g, err := s.mutate(ctx, id, func(g core.Goal) (core.Goal, error) {
		return goals.Edit(g, in)
	})
	if err != nil {
		return core.Goal{}, err
	}
	s.after(ctx, "Goal updated", applog.OpUpdate, amqp.KindGoalUpdated, g)
	return g, nil
}

// TogglePin fails with core.ErrGoalAchieved for achieved goals.
func (s *GoalService) TogglePin(ctx context.Context, id int64) (core.Goal, error) {
	g, err := s.mutate(ctx, id, goals.TogglePin)
	if err != nil {
		return core.Goal{}, err
	}
	s.after(ctx, "Goal pin toggled", applog.OpPin, amqp.KindGoalPinned, g)
	return g, nil
}

// Achieve freezes the goal against the current balance. Confirmation is
// the caller's job.
func (s *GoalService) Achieve(ctx context.Context, id int64, today core.Date) (core.Goal, error) {
	g, err := s.mutate(ctx, id, func(g core.Goal) (core.Goal, error) {
		return goals.Achieve(g, s.balance(ctx), today)
	})
	if err != nil {
		return core.Goal{}, err
	}
	s.after(ctx, "Goal achieved", applog.OpAchieve, amqp.KindGoalAchieved, g)
	return g, nil
}

// Delete removes the goal. Confirmation is the caller's job.
func (s *GoalService) Delete(ctx context.Context, id int64) error {
	s.l.mu.Lock()
	gs := s.l.store.Goals(ctx)
	i, err := goals.Find(gs, id)
	if err != nil {
		s.l.mu.Unlock()
		return fmt.Errorf("goal %d: %w", id, err)
	}
	removed := gs[i]
	rest, _ := goals.Remove(gs, id)
	ok := s.l.store.SaveGoals(ctx, rest)
	s.l.mu.Unlock()
	if !ok {
		return storageFailure(storage.KeyGoals)
	}

	s.after(ctx, "Goal deleted", applog.OpDelete, amqp.KindGoalDeleted, removed)
	return nil
}

// RepeatSpendingError is returned when a goal already marked in spending is
// marked again without confirmRepeat. Nothing was written.
type RepeatSpendingError struct {
	Goal core.Goal
}

func (e *RepeatSpendingError) Error() string {
	return fmt.Sprintf("goal %q: %v", e.Goal.Name, core.ErrAlreadyMarked)
}

func (e *RepeatSpendingError) Unwrap() error { return core.ErrAlreadyMarked }

// MarkInSpending records the achieved goal's target as an expense dated by
// src. The transaction is written before the goal flag. Repeating the call
// appends another expense, but only when confirmRepeat is set; the check
// runs under the ledger lock so two first marks cannot both skip it.
func (s *GoalService) MarkInSpending(ctx context.Context, id int64, src goals.SpendingSource, confirmRepeat bool) (SpendingResult, error) {
	s.l.mu.Lock()
	gs := s.l.store.Goals(ctx)
	i, err := goals.Find(gs, id)
	if err != nil {
		s.l.mu.Unlock()
		return SpendingResult{}, fmt.Errorf("goal %d: %w", id, err)
	}
	g := gs[i]

	date, err := goals.SpendingDate(g, src)
	if err != nil {
		s.l.mu.Unlock()
		return SpendingResult{}, err
	}
	if g.MarkedInSpending && !confirmRepeat {
		s.l.mu.Unlock()
		return SpendingResult{}, &RepeatSpendingError{Goal: g}
	}
	marked, tx, err := goals.MarkInSpending(g, date, s.ids.Next())
	if err != nil {
		s.l.mu.Unlock()
		return SpendingResult{}, err
	}

	if err := s.txs.appendLocked(ctx, tx); err != nil {
		s.l.mu.Unlock()
		return SpendingResult{}, err
	}
	gs[i] = marked
	ok := s.l.store.SaveGoals(ctx, gs)
	s.l.mu.Unlock()
	if !ok {
		// The expense is already recorded; only the flag is missing.
		return SpendingResult{}, storageFailure(storage.KeyGoals)
	}

	res := SpendingResult{Goal: marked, Transaction: tx, AlreadyMarked: g.MarkedInSpending}
	if res.AlreadyMarked {
		s.logger.WarnContext(ctx, "Goal marked in spending again",
			applog.NewFields().WithGoal(g.ID, g.Name).WithTransaction(tx.ID, string(tx.Type), tx.Amount, tx.Category).ToSlice()...)
	}
	metrics.LedgerMutations.WithLabelValues(applog.OpCreate, string(tx.Type)).Inc()
	s.l.publish(ctx, amqp.NewEvent(amqp.KindTransactionCreated, tx.ID, tx.Amount, tx.Category))
	s.after(ctx, "Goal marked in spending", applog.OpSpend, amqp.KindGoalSpent, marked)
	return res, nil
}

// mutate applies fn to the goal with id and saves the collection.
func (s *GoalService) mutate(ctx context.Context, id int64, fn func(core.Goal) (core.Goal, error)) (core.Goal, error) {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	gs := s.l.store.Goals(ctx)
	i, err := goals.Find(gs, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %d: %w", id, err)
	}
	g, err := fn(gs[i])
	if err != nil {
		return core.Goal{}, err
	}
	next, err := goals.Replace(gs, g)
	if err != nil {
		return core.Goal{}, err
	}
	if !s.l.store.SaveGoals(ctx, next) {
		return core.Goal{}, storageFailure(storage.KeyGoals)
	}
	return g, nil
}

func (s *GoalService) after(ctx context.Context, msg, op string, kind amqp.EventKind, g core.Goal) {
	metrics.GoalTransitions.WithLabelValues(op).Inc()
	s.logger.InfoContext(ctx, msg,
		applog.NewFields().WithOperation(op).WithGoal(g.ID, g.Name).ToSlice()...)
	s.l.publish(ctx, amqp.NewEvent(kind, g.ID, g.Target, g.Name))
	s.l.changed(ctx)
}
