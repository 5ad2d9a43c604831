package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/mmynk/spendilog/internal/models"
)

func TestExpenseEvent(t *testing.T) {
	expense := &models.Expense{
		ID:           "e1",
		TripID:       "t1",
		Amount:       45,
		Currency:     "EUR",
		PaidBy:       "c",
		SplitBetween: []string{"a"},
		Kind:         models.ExpenseKindSettlement,
	}

	event, err := ExpenseEvent(DebtSettled, expense)
	if err != nil {
		t.Fatalf("ExpenseEvent failed: %v", err)
	}
	if event.ID == "" || event.Type != DebtSettled || event.TripID != "t1" {
		t.Errorf("unexpected envelope: %+v", event)
	}

	var decoded models.Expense
	if err := json.Unmarshal(event.Data, &decoded); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if decoded.ID != "e1" || decoded.Amount != 45 || decoded.Recipient() != "a" {
		t.Errorf("unexpected data: %+v", decoded)
	}
}

func TestRatesRefreshedEvent(t *testing.T) {
	fetched := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	event, err := RatesRefreshedEvent(&models.RateSnapshot{
		Base:      "EUR",
		Rates:     map[string]float64{"EUR": 1, "USD": 1.1},
		FetchedAt: fetched,
		Source:    "test",
	})
	if err != nil {
		t.Fatalf("RatesRefreshedEvent failed: %v", err)
	}

	var data RatesEvent
	if err := json.Unmarshal(event.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Base != "EUR" || data.Currencies != 2 || !data.FetchedAt.Equal(fetched) {
		t.Errorf("unexpected data: %+v", data)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	event, _ := New(ExpenseAdded, "t1", nil)
	if err := p.Publish(context.Background(), event); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestAMQPPublisher(t *testing.T) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		t.Skip("AMQP_URL not set")
	}

	p, err := NewAMQPPublisher(url, "spendilog-test")
	if err != nil {
		t.Fatalf("NewAMQPPublisher failed: %v", err)
	}
	defer p.Close()

	event, _ := New(ExpenseDeleted, "t1", map[string]string{"id": "e1"})
	if err := p.Publish(context.Background(), event); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
}
