package models

import (
	"fmt"
	"time"
)

// SimplifiedDebt is one transfer of a settle-up plan: From pays Amount to To.
// Debts are derived from balances and are never stored.
type SimplifiedDebt struct {
	From   Member  `json:"from"`
	To     Member  `json:"to"`
	Amount float64 `json:"amount"`
}

// Balances maps member IDs to their signed net position in the trip's main
// currency. Positive = owed money, negative = owes money.
type Balances map[string]float64

// NewSettlement builds the settlement expense that records debt.From paying
// amount to debt.To. The amount may differ from debt.Amount to allow partial
// settlements. The returned expense is not appended to the trip; persisting it
// is the caller's job.
func (t *Trip) NewSettlement(debt SimplifiedDebt, amount float64, now time.Time) (*Expense, error) {
	if !ValidAmount(amount) {
		return nil, ErrInvalidAmount
	}
	if debt.From.ID == debt.To.ID {
		return nil, ErrSelfSettlement
	}
	if !t.HasMember(debt.From.ID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, debt.From.ID)
	}
	if !t.HasMember(debt.To.ID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, debt.To.ID)
	}

	return &Expense{
		TripID:       t.ID,
		Description:  fmt.Sprintf("%s paid %s", memberLabel(debt.From), memberLabel(debt.To)),
		Amount:       amount,
		Currency:     t.MainCurrency,
		Category:     AdjustmentCategory,
		Date:         now.UTC().Format(DateLayout),
		PaidBy:       debt.From.ID,
		SplitBetween: []string{debt.To.ID},
		SplitType:    SplitTypeEqually,
		Kind:         ExpenseKindSettlement,
		CreatedAt:    now.Unix(),
	}, nil
}

func memberLabel(m Member) string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}
