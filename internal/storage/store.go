// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/spendilog/internal/models"
)

// ErrNotFound is wrapped by every lookup that finds no record.
var ErrNotFound = errors.New("not found")

// Store defines the interface for trip, expense, user and rate storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateTrip persists a new trip with its members.
	// The trip ID, member IDs and CreatedAt are populated by the store when empty.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip with its members and all expenses.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// ListTrips retrieves trip headers and members, newest first.
	// An empty owner lists every trip.
	ListTrips(ctx context.Context, owner string) ([]*models.Trip, error)

	// UpdateTrip replaces the trip header, members and preferred currencies.
	// Expenses are left untouched.
	UpdateTrip(ctx context.Context, trip *models.Trip) error

	// DeleteTrip removes a trip and all its expenses.
	DeleteTrip(ctx context.Context, tripID string) error

	// CreateExpense appends an expense to its trip.
	// The expense ID and CreatedAt are populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpenses returns a trip's expenses ordered by date, then creation.
	ListExpenses(ctx context.Context, tripID string) ([]models.Expense, error)

	// DeleteExpense removes one expense from a trip.
	DeleteExpense(ctx context.Context, tripID, expenseID string) error

	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// SaveRateSnapshot records a fetched exchange rate table.
	SaveRateSnapshot(ctx context.Context, snap *models.RateSnapshot) error

	// LatestRateSnapshot returns the most recent table, or nil when none exists.
	LatestRateSnapshot(ctx context.Context) (*models.RateSnapshot, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
