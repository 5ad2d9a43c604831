// Package worker runs background jobs alongside the RPC server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/spendilog/internal/events"
	"github.com/mmynk/spendilog/internal/models"
)

// RateSource is the part of currency.RateStore the refresher drives.
type RateSource interface {
	RefreshIfStale(ctx context.Context) (*models.RateSnapshot, bool, error)
}

// RateRefresher periodically refreshes exchange rates once they go stale.
type RateRefresher struct {
	rates     RateSource
	publisher events.Publisher
	interval  time.Duration
}

// NewRateRefresher creates a refresher checking rates every interval.
// publisher may be nil.
func NewRateRefresher(rates RateSource, publisher events.Publisher, interval time.Duration) *RateRefresher {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RateRefresher{
		rates:     rates,
		publisher: publisher,
		interval:  interval,
	}
}

// Run checks once immediately and then on every tick until ctx is cancelled.
// Refresh failures are logged and retried on the next tick.
func (r *RateRefresher) Run(ctx context.Context) error {
	slog.Info("Rate refresher started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Rate refresher stopped")
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single staleness check and reports whether the rates
// were refreshed.
func (r *RateRefresher) RunOnce(ctx context.Context) bool {
	snap, refreshed, err := r.rates.RefreshIfStale(ctx)
	if err != nil {
		slog.Warn("Periodic rate refresh failed", "error", err)
		return false
	}
	if !refreshed {
		slog.Debug("Rates still fresh", "fetched_at", snap.FetchedAt)
		return false
	}

	event, err := events.RatesRefreshedEvent(snap)
	if err == nil {
		err = r.publisher.Publish(ctx, event)
	}
	if err != nil {
		slog.Warn("Failed to publish rates event", "error", err)
	}
	return true
}
