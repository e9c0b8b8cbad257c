package core

import (
	"math"
	"strings"
	"sync"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Transaction struct {
		ID          int64           `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      float64         `json:"amount"`
		Category    string          `json:"category"`
		Date        Date            `json:"date"`
		Description string          `json:"description,omitempty"`
	}

	Goal struct {
		ID               int64     `json:"id"`
		Name             string    `json:"name"`
		Target           float64   `json:"target"`
		Deadline         Date      `json:"deadline"`
		Category         string    `json:"category"`
		CreatedAt        Timestamp `json:"createdAt"`
		Achieved         bool      `json:"achieved"`
		AchievedAt       Date      `json:"achievedAt"`
		Pinned           bool      `json:"pinned"`
		MarkedInSpending bool      `json:"markedInSpending"`
		FrozenCurrent    *float64  `json:"frozenCurrent,omitempty"`
		FrozenProgress   *float64  `json:"frozenProgress,omitempty"`
		FrozenRemaining  *float64  `json:"frozenRemaining,omitempty"`
	}
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (t Transaction) IsIncome() bool  { return t.Type == Income }
func (t Transaction) IsExpense() bool { return t.Type == Expense }

// Validate reports every invalid field at once.
func (t Transaction) Validate() error {
	v := &ValidationError{}
	if !t.Type.IsValid() {
		v.Add("type", "must be income or expense")
	}
	if !isPositiveAmount(t.Amount) {
		v.Add("amount", "must be a positive number")
	}
	if strings.TrimSpace(t.Category) == "" {
		v.Add("category", "is required")
	}
	if t.Date.IsZero() {
		v.Add("date", "is required")
	}
	if len(t.Description) > 200 {
		v.Add("description", "too long (max 200 characters)")
	}
	return v.OrNil()
}

func isPositiveAmount(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// IDGenerator hands out creation-time ids in milliseconds, bumping the
// value when two calls land in the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
