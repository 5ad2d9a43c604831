package currency

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mmynk/spendilog/internal/metrics"
	"github.com/mmynk/spendilog/internal/models"
)

// DefaultMaxAge is how long a fetched snapshot stays fresh.
const DefaultMaxAge = 24 * time.Hour

// Provider fetches a live rate table relative to base.
type Provider interface {
	Fetch(ctx context.Context, base string) (*models.RateSnapshot, error)
}

// Cache persists the last good snapshot across restarts.
// Load returns nil and no error when nothing has been cached yet.
type Cache interface {
	Load(ctx context.Context) (*models.RateSnapshot, error)
	Save(ctx context.Context, snap *models.RateSnapshot) error
}

// RateStore publishes the current exchange rate snapshot. Readers call Get and
// always receive a complete snapshot; Refresh swaps in a new one atomically.
type RateStore struct {
	base     string
	provider Provider
	cache    Cache
	maxAge   time.Duration
	now      func() time.Time

	current atomic.Pointer[models.RateSnapshot]
	group   singleflight.Group
}

// NewRateStore creates a store seeded with the bundled fallback table.
// cache may be nil. A non-positive maxAge selects DefaultMaxAge.
func NewRateStore(base string, provider Provider, cache Cache, maxAge time.Duration) (*RateStore, error) {
	fallback, err := FallbackSnapshot(base)
	if err != nil {
		return nil, fmt.Errorf("failed to build fallback rates: %w", err)
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	s := &RateStore{
		base:     fallback.Base,
		provider: provider,
		cache:    cache,
		maxAge:   maxAge,
		now:      time.Now,
	}
	s.current.Store(fallback)
	return s, nil
}

// Base returns the currency every rate is relative to.
func (s *RateStore) Base() string {
	return s.base
}

// Get returns the published snapshot. It never returns nil.
func (s *RateStore) Get() *models.RateSnapshot {
	return s.current.Load()
}

// Converter returns a converter bound to the published snapshot.
func (s *RateStore) Converter() *Converter {
	return NewConverter(s.Get())
}

// Stale reports whether the published snapshot should be refreshed.
func (s *RateStore) Stale() bool {
	snap := s.Get()
	return snap.Source == SourceFallback || snap.Age(s.now()) >= s.maxAge
}

// Load restores the cached snapshot, if any. A cached snapshot that does not
// validate is ignored.
func (s *RateStore) Load(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	snap, err := s.cache.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cached rates: %w", err)
	}
	if snap == nil {
		return nil
	}
	if err := ValidateSnapshot(snap, s.base); err != nil {
		slog.Warn("Ignoring cached rate snapshot", "error", err)
		return nil
	}

	s.publish(snap)
	slog.Info("Restored cached rates",
		"base", snap.Base,
		"currencies", len(snap.Rates),
		"fetched_at", snap.FetchedAt,
	)
	return nil
}

// Refresh fetches a new snapshot and publishes it. On failure the current
// snapshot stays published and the error is returned. Concurrent calls share
// a single fetch, which outlives the cancellation of any one caller; a
// cancelled caller stops waiting and gets ctx.Err().
func (s *RateStore) Refresh(ctx context.Context) (*models.RateSnapshot, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh", func() (any, error) {
		return s.refresh(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.RateSnapshot), nil
	}
}

// RefreshIfStale refreshes only when Stale reports true. It returns the
// published snapshot and whether a refresh happened.
func (s *RateStore) RefreshIfStale(ctx context.Context) (*models.RateSnapshot, bool, error) {
	if !s.Stale() {
		return s.Get(), false, nil
	}
	snap, err := s.Refresh(ctx)
	if err != nil {
		return s.Get(), false, err
	}
	return snap, true, nil
}

func (s *RateStore) refresh(ctx context.Context) (*models.RateSnapshot, error) {
	snap, err := s.provider.Fetch(ctx, s.base)
	if err != nil {
		metrics.RateRefreshes.WithLabelValues("error").Inc()
		slog.Warn("Rate refresh failed, keeping current rates",
			"source", s.Get().Source,
			"error", err,
		)
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	if err := ValidateSnapshot(snap, s.base); err != nil {
		metrics.RateRefreshes.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("invalid rates from provider: %w", err)
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = s.now()
	}

	s.publish(snap)
	metrics.RateRefreshes.WithLabelValues("ok").Inc()

	if s.cache != nil {
		if err := s.cache.Save(ctx, snap); err != nil {
			slog.Warn("Failed to cache rates", "error", err)
		}
	}

	slog.Info("Rates refreshed",
		"base", snap.Base,
		"currencies", len(snap.Rates),
		"source", snap.Source,
	)
	return snap, nil
}

func (s *RateStore) publish(snap *models.RateSnapshot) {
	s.current.Store(snap)
	metrics.RateSnapshotAge.Set(snap.Age(s.now()).Seconds())
}
