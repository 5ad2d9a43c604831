package models

import (
	"errors"
	"testing"
)

func validExpense() *Expense {
	return &Expense{
		TripID:       "trip-1",
		Amount:       90,
		Currency:     "EUR",
		Date:         "2026-05-01",
		PaidBy:       "a",
		SplitBetween: []string{"a", "b", "c"},
		SplitType:    SplitTypeEqually,
		Kind:         ExpenseKindPurchase,
	}
}

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Expense)
		wantErr error
	}{
		{name: "valid purchase", modify: func(*Expense) {}},
		{name: "RFC3339 date", modify: func(e *Expense) { e.Date = "2026-05-01T18:30:00Z" }},
		{name: "zero amount", modify: func(e *Expense) { e.Amount = 0 }, wantErr: ErrInvalidAmount},
		{name: "negative amount", modify: func(e *Expense) { e.Amount = -1 }, wantErr: ErrInvalidAmount},
		{name: "empty currency", modify: func(e *Expense) { e.Currency = "" }, wantErr: ErrInvalidCurrency},
		{name: "bad date", modify: func(e *Expense) { e.Date = "01/05/2026" }, wantErr: ErrInvalidDate},
		{name: "bad split type", modify: func(e *Expense) { e.SplitType = "shares" }, wantErr: ErrInvalidSplitType},
		{name: "missing payer", modify: func(e *Expense) { e.PaidBy = "" }, wantErr: ErrMissingPayer},
		{name: "unknown payer", modify: func(e *Expense) { e.PaidBy = "z" }, wantErr: ErrUnknownMember},
		{name: "empty split", modify: func(e *Expense) { e.SplitBetween = nil }, wantErr: ErrEmptySplit},
		{name: "unknown split member", modify: func(e *Expense) { e.SplitBetween = []string{"a", "z"} }, wantErr: ErrUnknownMember},
		{name: "duplicate split member", modify: func(e *Expense) { e.SplitBetween = []string{"a", "a"} }, wantErr: ErrDuplicateSplitter},
		{
			name: "settlement with two recipients",
			modify: func(e *Expense) {
				e.Kind = ExpenseKindSettlement
				e.SplitBetween = []string{"b", "c"}
			},
			wantErr: ErrSettlementSplit,
		},
		{
			name: "settlement to self",
			modify: func(e *Expense) {
				e.Category = AdjustmentCategory
				e.SplitBetween = []string{"a"}
			},
			wantErr: ErrSelfSettlement,
		},
	}

	trip := testTrip()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.modify(e)
			err := e.Validate(trip)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExpenseNormalize(t *testing.T) {
	t.Run("purchase defaults", func(t *testing.T) {
		e := &Expense{Currency: " usd"}
		e.Normalize()
		if e.Currency != "USD" || e.SplitType != SplitTypeEqually || e.Kind != ExpenseKindPurchase {
			t.Errorf("unexpected defaults: %+v", e)
		}
		if e.IsSettlement() {
			t.Error("purchase should not be a settlement")
		}
	})

	t.Run("legacy category becomes settlement kind", func(t *testing.T) {
		e := &Expense{Category: AdjustmentCategory}
		e.Normalize()
		if e.Kind != ExpenseKindSettlement {
			t.Errorf("Kind = %s, want settlement", e.Kind)
		}
	})

	t.Run("settlement kind gets legacy category", func(t *testing.T) {
		e := &Expense{Kind: ExpenseKindSettlement, Category: "Food"}
		e.Normalize()
		if e.Category != AdjustmentCategory {
			t.Errorf("Category = %q, want %q", e.Category, AdjustmentCategory)
		}
	})
}
