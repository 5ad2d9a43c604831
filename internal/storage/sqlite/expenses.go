package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/spendilog/internal/models"
	"github.com/mmynk/spendilog/internal/storage"
)

// CreateExpense persists a new expense and its split members.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate ID if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, trip_id, description, amount, currency, category, date, paid_by, split_type, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.Description, expense.Amount, expense.Currency,
		expense.Category, expense.Date, expense.PaidBy, string(expense.SplitType), string(expense.Kind),
		expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, memberID := range expense.SplitBetween {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, member_id, position) VALUES (?, ?, ?)",
			expense.ID, memberID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListExpenses retrieves all expenses of a trip with their split members.
func (s *SQLiteStore) ListExpenses(ctx context.Context, tripID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, description, amount, currency, category, date, paid_by, split_type, kind, created_at
		 FROM expenses WHERE trip_id = ? ORDER BY date, created_at, rowid`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	index := make(map[string]int)
	for rows.Next() {
		var e models.Expense
		var splitType, kind string
		if err := rows.Scan(&e.ID, &e.TripID, &e.Description, &e.Amount, &e.Currency, &e.Category,
			&e.Date, &e.PaidBy, &splitType, &kind, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.SplitType = models.SplitType(splitType)
		e.Kind = models.ExpenseKind(kind)
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if len(expenses) == 0 {
		return expenses, nil
	}

	splitRows, err := s.db.QueryContext(ctx,
		`SELECT s.expense_id, s.member_id FROM expense_splits s
		 JOIN expenses e ON e.id = s.expense_id
		 WHERE e.trip_id = ? ORDER BY s.expense_id, s.position`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var expenseID, memberID string
		if err := splitRows.Scan(&expenseID, &memberID); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		if i, ok := index[expenseID]; ok {
			expenses[i].SplitBetween = append(expenses[i].SplitBetween, memberID)
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}

	return expenses, nil
}

// DeleteExpense removes an expense from a trip.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, tripID, expenseID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND trip_id = ?",
		expenseID, tripID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}
