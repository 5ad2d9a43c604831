// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/spendilog/internal/models"
	"github.com/mmynk/spendilog/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTrip persists a new trip with its members and preferred currencies.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	// Generate IDs if not set
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.CreatedAt == 0 {
		trip.CreatedAt = time.Now().Unix()
	}
	assignMemberIDs(trip.Members)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO trips (id, name, main_currency, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		trip.ID, trip.Name, trip.MainCurrency, trip.CreatedBy, trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	if err := insertTripChildren(ctx, tx, trip); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetTrip retrieves a trip by ID, including members, currencies and expenses.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	trip := &models.Trip{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, main_currency, created_by, created_at FROM trips WHERE id = ?",
		tripID,
	).Scan(&trip.ID, &trip.Name, &trip.MainCurrency, &trip.CreatedBy, &trip.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %s: %w", tripID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	if err := s.loadTripChildren(ctx, trip); err != nil {
		return nil, err
	}

	trip.Expenses, err = s.ListExpenses(ctx, tripID)
	if err != nil {
		return nil, err
	}

	return trip, nil
}

// ListTrips retrieves trips, optionally filtered by owner, newest first.
// Expenses are not loaded.
func (s *SQLiteStore) ListTrips(ctx context.Context, owner string) ([]*models.Trip, error) {
	query := "SELECT id, name, main_currency, created_by, created_at FROM trips"
	var args []any
	if owner != "" {
		query += " WHERE created_by = ?"
		args = append(args, owner)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		trip := &models.Trip{}
		if err := rows.Scan(&trip.ID, &trip.Name, &trip.MainCurrency, &trip.CreatedBy, &trip.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	rows.Close()

	for _, trip := range trips {
		if err := s.loadTripChildren(ctx, trip); err != nil {
			return nil, err
		}
	}

	return trips, nil
}

// UpdateTrip replaces the trip header, members and preferred currencies.
func (s *SQLiteStore) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	assignMemberIDs(trip.Members)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE trips SET name = ?, main_currency = ? WHERE id = ?",
		trip.Name, trip.MainCurrency, trip.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("trip %s: %w", trip.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM trip_members WHERE trip_id = ?", trip.ID); err != nil {
		return fmt.Errorf("failed to clear members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM trip_currencies WHERE trip_id = ?", trip.ID); err != nil {
		return fmt.Errorf("failed to clear currencies: %w", err)
	}
	if err := insertTripChildren(ctx, tx, trip); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteTrip removes a trip; members and expenses cascade.
func (s *SQLiteStore) DeleteTrip(ctx context.Context, tripID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM trips WHERE id = ?", tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("trip %s: %w", tripID, storage.ErrNotFound)
	}
	return nil
}

func assignMemberIDs(members []models.Member) {
	for i := range members {
		if members[i].ID == "" {
			members[i].ID = uuid.New().String()
		}
	}
}

func insertTripChildren(ctx context.Context, tx *sql.Tx, trip *models.Trip) error {
	for i, m := range trip.Members {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO trip_members (trip_id, id, name, position) VALUES (?, ?, ?, ?)",
			trip.ID, m.ID, m.Name, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	for i, code := range trip.PreferredCurrencies {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO trip_currencies (trip_id, code, position) VALUES (?, ?, ?)",
			trip.ID, code, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert preferred currency: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadTripChildren(ctx context.Context, trip *models.Trip) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM trip_members WHERE trip_id = ? ORDER BY position",
		trip.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	trip.Members = nil
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		trip.Members = append(trip.Members, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}
	rows.Close()

	curRows, err := s.db.QueryContext(ctx,
		"SELECT code FROM trip_currencies WHERE trip_id = ? ORDER BY position",
		trip.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get preferred currencies: %w", err)
	}
	defer curRows.Close()

	trip.PreferredCurrencies = nil
	for curRows.Next() {
		var code string
		if err := curRows.Scan(&code); err != nil {
			return fmt.Errorf("failed to scan preferred currency: %w", err)
		}
		trip.PreferredCurrencies = append(trip.PreferredCurrencies, code)
	}
	if err := curRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate preferred currencies: %w", err)
	}

	return nil
}
