package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/spendilog/internal/events"
	"github.com/mmynk/spendilog/internal/models"
)

type fakeRates struct {
	mu        sync.Mutex
	calls     int
	refreshed bool
	err       error
}

func (f *fakeRates) RefreshIfStale(context.Context) (*models.RateSnapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	snap := &models.RateSnapshot{Base: "EUR", Rates: map[string]float64{"EUR": 1}, FetchedAt: time.Now()}
	return snap, f.refreshed, f.err
}

func (f *fakeRates) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name       string
		rates      *fakeRates
		wantResult bool
		wantEvents int
	}{
		{name: "refreshed", rates: &fakeRates{refreshed: true}, wantResult: true, wantEvents: 1},
		{name: "still fresh", rates: &fakeRates{}, wantResult: false, wantEvents: 0},
		{name: "provider down", rates: &fakeRates{err: errors.New("boom")}, wantResult: false, wantEvents: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			r := NewRateRefresher(tt.rates, pub, time.Hour)

			if got := r.RunOnce(context.Background()); got != tt.wantResult {
				t.Errorf("RunOnce = %v, want %v", got, tt.wantResult)
			}
			if len(pub.events) != tt.wantEvents {
				t.Fatalf("published %d events, want %d", len(pub.events), tt.wantEvents)
			}
			if tt.wantEvents > 0 && pub.events[0].Type != events.RatesRefreshed {
				t.Errorf("event type = %s", pub.events[0].Type)
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	rates := &fakeRates{}
	r := NewRateRefresher(rates, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for rates.Calls() < 3 {
		select {
		case <-deadline:
			t.Fatalf("refresher only ran %d times", rates.Calls())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
