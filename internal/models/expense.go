package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// AdjustmentCategory is the legacy category that marks a settlement transfer.
// Records written before ExpenseKind existed only carry this marker.
const AdjustmentCategory = "Aggiustamento Saldo"

// DateLayout is the calendar date format used for Expense.Date.
const DateLayout = "2006-01-02"

// ExpenseKind discriminates purchases from settlement transfers.
type ExpenseKind string

const (
	ExpenseKindPurchase   ExpenseKind = "purchase"
	ExpenseKindSettlement ExpenseKind = "settlement"
)

// SplitType selects how a purchase is divided among its participants.
type SplitType string

const (
	SplitTypeEqually SplitType = "equally"
)

var (
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrMissingPayer      = errors.New("expense must have a payer")
	ErrEmptySplit        = errors.New("expense must be split between at least one member")
	ErrInvalidSplitType  = errors.New("unsupported split type")
	ErrInvalidDate       = errors.New("date must be ISO-8601")
	ErrSettlementSplit   = errors.New("settlement must have exactly one recipient")
	ErrSelfSettlement    = errors.New("settlement payer and recipient must differ")
	ErrDuplicateSplitter = errors.New("member listed twice in split")
)

// Expense is a purchase or a settlement recorded on a trip.
//
// For a purchase, PaidBy fronted Amount and SplitBetween share it.
// For a settlement, PaidBy is the debtor paying down a debt and
// SplitBetween holds exactly one member, the recipient.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// TripID is the trip this expense belongs to.
	TripID string `json:"trip_id"`

	// Description is a free-form label (e.g., "Dinner at Ramiro").
	Description string `json:"description,omitempty"`

	// Amount is the positive magnitude in Currency.
	Amount float64 `json:"amount"`

	// Currency is the code Amount is expressed in.
	Currency string `json:"currency"`

	// Category is a user-facing category. AdjustmentCategory marks settlements.
	Category string `json:"category,omitempty"`

	// Date is the ISO-8601 date of the expense.
	Date string `json:"date"`

	// PaidBy is the member ID of the payer.
	PaidBy string `json:"paid_by"`

	// SplitBetween is the ordered set of member IDs sharing the cost.
	SplitBetween []string `json:"split_between"`

	// SplitType is how the cost is divided. Only SplitTypeEqually is defined.
	SplitType SplitType `json:"split_type"`

	// Kind is the variant of the expense.
	Kind ExpenseKind `json:"kind"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"created_at"`
}

// IsSettlement reports whether the expense transfers balance between two
// members instead of recording a purchase.
func (e *Expense) IsSettlement() bool {
	return e.Kind == ExpenseKindSettlement || e.Category == AdjustmentCategory
}

// Recipient returns the settlement recipient, or "" when the expense has none.
func (e *Expense) Recipient() string {
	if len(e.SplitBetween) == 0 {
		return ""
	}
	return e.SplitBetween[0]
}

// Normalize fills defaults and canonicalises the discriminant so that the
// Kind and the legacy category always agree.
func (e *Expense) Normalize() {
	e.Currency = NormalizeCurrency(e.Currency)
	if e.SplitType == "" {
		e.SplitType = SplitTypeEqually
	}
	if e.IsSettlement() {
		e.Kind = ExpenseKindSettlement
		e.Category = AdjustmentCategory
	} else if e.Kind == "" {
		e.Kind = ExpenseKindPurchase
	}
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ValidAmount reports whether amount is finite and strictly positive.
func ValidAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}

// Validate checks an expense against the members of trip.
func (e *Expense) Validate(trip *Trip) error {
	if !ValidAmount(e.Amount) {
		return ErrInvalidAmount
	}
	if err := ValidateCurrency(e.Currency); err != nil {
		return err
	}
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if e.SplitType != SplitTypeEqually {
		return fmt.Errorf("%w: %q", ErrInvalidSplitType, e.SplitType)
	}
	if e.PaidBy == "" {
		return ErrMissingPayer
	}
	if !trip.HasMember(e.PaidBy) {
		return fmt.Errorf("%w: payer %s", ErrUnknownMember, e.PaidBy)
	}
	if len(e.SplitBetween) == 0 {
		return ErrEmptySplit
	}
	seen := make(map[string]bool, len(e.SplitBetween))
	for _, id := range e.SplitBetween {
		if !trip.HasMember(id) {
			return fmt.Errorf("%w: %s", ErrUnknownMember, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateSplitter, id)
		}
		seen[id] = true
	}
	if e.IsSettlement() {
		if len(e.SplitBetween) != 1 {
			return ErrSettlementSplit
		}
		if e.SplitBetween[0] == e.PaidBy {
			return ErrSelfSettlement
		}
	}
	return nil
}
