package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventKind names a ledger mutation as "<entity>.<verb>".
type EventKind string

const (
	KindTransactionCreated EventKind = "transaction.created"
	KindTransactionUpdated EventKind = "transaction.updated"
	KindTransactionDeleted EventKind = "transaction.deleted"
	KindGoalCreated        EventKind = "goal.created"
	KindGoalUpdated        EventKind = "goal.updated"
	KindGoalDeleted        EventKind = "goal.deleted"
	KindGoalPinned         EventKind = "goal.pinned"
	KindGoalAchieved       EventKind = "goal.achieved"
	KindGoalSpent          EventKind = "goal.marked_in_spending"
)

// Entity is the part before the dot.
func (k EventKind) Entity() string {
	entity, _, _ := strings.Cut(string(k), ".")
	return entity
}

// Event is published after every persisted mutation. It carries enough to
// render an activity feed without reading the collections back.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entityId"`
	Summary   string    `json:"summary,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(kind EventKind, entityID int64, amount float64, summary string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Entity:    kind.Entity(),
		EntityID:  entityID,
		Summary:   summary,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects ones without a kind or id.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Kind == "" || e.ID == "" {
		return nil, fmt.Errorf("event is missing id or kind")
	}
	if e.Entity == "" {
		e.Entity = e.Kind.Entity()
	}
	return &e, nil
}
