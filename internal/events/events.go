// Package events publishes domain events about trips, expenses and exchange
// rates to a message broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/spendilog/internal/models"
)

// Type is the event name. It doubles as the AMQP routing key.
type Type string

const (
	ExpenseAdded   Type = "expense.added"
	ExpenseDeleted Type = "expense.deleted"
	DebtSettled    Type = "debt.settled"
	RatesRefreshed Type = "rates.refreshed"
)

// Event is the envelope written to the broker.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	TripID     string          `json:"trip_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// New builds an event with a fresh ID. data is encoded as JSON.
func New(typ Type, tripID string, data any) (*Event, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Event{
		ID:         uuid.New().String(),
		Type:       typ,
		TripID:     tripID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// ExpenseEvent builds an expense.added, expense.deleted or debt.settled
// event carrying the expense.
func ExpenseEvent(typ Type, expense *models.Expense) (*Event, error) {
	return New(typ, expense.TripID, expense)
}

// RatesEvent carries the summary of a newly published rate table.
type RatesEvent struct {
	Base       string    `json:"base"`
	Currencies int       `json:"currencies"`
	FetchedAt  time.Time `json:"fetched_at"`
	Source     string    `json:"source"`
}

// RatesRefreshedEvent builds a rates.refreshed event for snap.
func RatesRefreshedEvent(snap *models.RateSnapshot) (*Event, error) {
	return New(RatesRefreshed, "", RatesEvent{
		Base:       snap.Base,
		Currencies: len(snap.Rates),
		FetchedAt:  snap.FetchedAt,
		Source:     snap.Source,
	})
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error { return nil }

func (NopPublisher) Close() error { return nil }
