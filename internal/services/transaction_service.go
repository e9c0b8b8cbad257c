package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/storage"
)

// TransactionInput carries the editable fields of a transaction.
type TransactionInput struct {
	Type        core.TransactionType `json:"type"`
	Amount      float64              `json:"amount"`
	Category    string               `json:"category"`
	Date        core.Date            `json:"date"`
	Description string               `json:"description"`
}

func (in TransactionInput) build(id int64) (core.Transaction, error) {
	tx := core.Transaction{
		ID:          id,
		Type:        in.Type,
		Amount:      in.Amount,
		Category:    strings.TrimSpace(in.Category),
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
	}
	return tx, tx.Validate()
}

// TransactionService persists transactions and announces every change.
type TransactionService struct {
	l   *ledger
	ids *core.IDGenerator
}

// NewTransactionService wires the service. events may be nil.
func NewTransactionService(store *storage.Accessor, events EventPublisher, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &TransactionService{
		l: &ledger{
			store:  store,
			events: events,
			logger: logger.WithComponent(applog.ComponentLedger),
		},
		ids: core.NewIDGenerator(),
	}
}

// OnChange registers fn to run after every persisted mutation, including
// the ones GoalService makes.
func (s *TransactionService) OnChange(fn func(context.Context)) {
	s.l.subscribe(fn)
}

// List returns every transaction, newest date first, ties by id.
func (s *TransactionService) List(ctx context.Context) []core.Transaction {
	txs := s.l.store.Transactions(ctx)
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
	return txs
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	for _, tx := range s.l.store.Transactions(ctx) {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
}

// Balance is the all-time net balance.
func (s *TransactionService) Balance(ctx context.Context) float64 {
	return analytics.ComputeTotals(s.l.store.Transactions(ctx)).Balance
}

func (s *TransactionService) Create(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	tx, err := in.build(s.ids.Next())
	if err != nil {
		return core.Transaction{}, err
	}

	s.l.mu.Lock()
	txs := s.l.store.Transactions(ctx)
	ok := s.l.store.SaveTransactions(ctx, append(txs, tx))
	s.l.mu.Unlock()
	if !ok {
		return core.Transaction{}, storageFailure(storage.KeyTransactions)
	}

	s.after(ctx, "Transaction created", applog.OpCreate, amqp.KindTransactionCreated, tx)
	return tx, nil
}

// Update replaces every field but the id.
func (s *TransactionService) Update(ctx context.Context, id int64, in TransactionInput) (core.Transaction, error) {
	tx, err := in.build(id)
	if err != nil {
		return core.Transaction{}, err
	}

	s.l.mu.Lock()
	txs := s.l.store.Transactions(ctx)
	i := indexOf(txs, id)
	if i < 0 {
		s.l.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	txs[i] = tx
	ok := s.l.store.SaveTransactions(ctx, txs)
	s.l.mu.Unlock()
	if !ok {
		return core.Transaction{}, storageFailure(storage.KeyTransactions)
	}

	s.after(ctx, "Transaction updated", applog.OpUpdate, amqp.KindTransactionUpdated, tx)
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	s.l.mu.Lock()
	txs := s.l.store.Transactions(ctx)
	i := indexOf(txs, id)
	if i < 0 {
		s.l.mu.Unlock()
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	removed := txs[i]
	ok := s.l.store.SaveTransactions(ctx, append(txs[:i], txs[i+1:]...))
	s.l.mu.Unlock()
	if !ok {
		return storageFailure(storage.KeyTransactions)
	}

	s.after(ctx, "Transaction deleted", applog.OpDelete, amqp.KindTransactionDeleted, removed)
	return nil
}

// appendLocked adds tx to the collection; the caller holds s.l.mu.
func (s *TransactionService) appendLocked(ctx context.Context, tx core.Transaction) error {
	txs := s.l.store.Transactions(ctx)
	if !s.l.store.SaveTransactions(ctx, append(txs, tx)) {
		return storageFailure(storage.KeyTransactions)
	}
	return nil
}

func (s *TransactionService) after(ctx context.Context, msg, op string, kind amqp.EventKind, tx core.Transaction) {
	metrics.LedgerMutations.WithLabelValues(op, string(tx.Type)).Inc()
	s.l.logger.InfoContext(ctx, msg,
		applog.NewFields().WithOperation(op).
			WithTransaction(tx.ID, string(tx.Type), tx.Amount, tx.Category).ToSlice()...)
	s.l.publish(ctx, amqp.NewEvent(kind, tx.ID, tx.Amount, tx.Category))
	s.l.changed(ctx)
}

func indexOf(txs []core.Transaction, id int64) int {
	for i, tx := range txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

