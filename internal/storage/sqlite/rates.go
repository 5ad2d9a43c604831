package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/spendilog/internal/models"
)

// rateHistory is how many snapshots are kept.
const rateHistory = 30

// SaveRateSnapshot records a snapshot and prunes old history.
func (s *SQLiteStore) SaveRateSnapshot(ctx context.Context, snap *models.RateSnapshot) error {
	rates, err := json.Marshal(snap.Rates)
	if err != nil {
		return fmt.Errorf("failed to encode rates: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO rate_snapshots (base, rates, source, fetched_at) VALUES (?, ?, ?, ?)",
		snap.Base, string(rates), snap.Source, snap.FetchedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM rate_snapshots WHERE id NOT IN (
			SELECT id FROM rate_snapshots ORDER BY fetched_at DESC, id DESC LIMIT ?
		)`,
		rateHistory,
	)
	if err != nil {
		return fmt.Errorf("failed to prune rate snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestRateSnapshot returns the most recently fetched snapshot.
// Returns nil and no error when no snapshot was ever saved.
func (s *SQLiteStore) LatestRateSnapshot(ctx context.Context) (*models.RateSnapshot, error) {
	var (
		snap      models.RateSnapshot
		rates     string
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT base, rates, source, fetched_at FROM rate_snapshots ORDER BY fetched_at DESC, id DESC LIMIT 1",
	).Scan(&snap.Base, &rates, &snap.Source, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(rates), &snap.Rates); err != nil {
		return nil, fmt.Errorf("failed to decode rates: %w", err)
	}
	snap.FetchedAt = time.UnixMilli(fetchedAt).UTC()

	return &snap, nil
}
