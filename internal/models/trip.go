package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyTripName    = errors.New("trip name cannot be empty")
	ErrNoMembers        = errors.New("trip must have at least one member")
	ErrEmptyMemberName  = errors.New("member name cannot be empty")
	ErrDuplicateMember  = errors.New("duplicate member id")
	ErrInvalidCurrency  = errors.New("currency code must be 3 letters")
	ErrUnknownMember    = errors.New("member is not part of the trip")
	ErrMemberReferenced = errors.New("member is referenced by expenses")
)

// Member is a participant of a trip.
type Member struct {
	// ID is unique within the trip (UUID format when assigned by the store).
	ID string `json:"id"`

	// Name is the display name of the member.
	Name string `json:"name"`
}

// Trip groups members and the expenses they share.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string `json:"id"`

	// Name is the display name of the trip (e.g., "Lisbon 2026").
	Name string `json:"name"`

	// Members is the ordered list of trip participants.
	Members []Member `json:"members"`

	// Expenses holds every purchase and settlement recorded for the trip.
	Expenses []Expense `json:"expenses,omitempty"`

	// MainCurrency is the ledger currency all balances are reported in.
	MainCurrency string `json:"main_currency"`

	// PreferredCurrencies are shown first when picking an expense currency.
	PreferredCurrencies []string `json:"preferred_currencies,omitempty"`

	// CreatedBy is the user ID of the trip owner. Empty for anonymous trips.
	CreatedBy string `json:"created_by,omitempty"`

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64 `json:"created_at"`
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCurrency checks that code looks like an ISO 4217 code.
func ValidateCurrency(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return nil
}

// Normalize canonicalises currency codes and member names in place.
func (t *Trip) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.MainCurrency = NormalizeCurrency(t.MainCurrency)
	for i := range t.PreferredCurrencies {
		t.PreferredCurrencies[i] = NormalizeCurrency(t.PreferredCurrencies[i])
	}
	for i := range t.Members {
		t.Members[i].Name = strings.TrimSpace(t.Members[i].Name)
	}
}

// Validate checks the trip header and member list. Expenses are validated
// separately when they are added.
func (t *Trip) Validate() error {
	if t.Name == "" {
		return ErrEmptyTripName
	}
	if err := ValidateCurrency(t.MainCurrency); err != nil {
		return fmt.Errorf("main currency: %w", err)
	}
	for _, c := range t.PreferredCurrencies {
		if err := ValidateCurrency(c); err != nil {
			return fmt.Errorf("preferred currency: %w", err)
		}
	}
	if len(t.Members) == 0 {
		return ErrNoMembers
	}
	seen := make(map[string]bool, len(t.Members))
	for _, m := range t.Members {
		if m.Name == "" {
			return ErrEmptyMemberName
		}
		if m.ID == "" {
			continue // assigned by the store
		}
		if seen[m.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

// Member returns the member with the given ID.
func (t *Trip) Member(id string) (Member, bool) {
	for _, m := range t.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// HasMember reports whether id belongs to a trip member.
func (t *Trip) HasMember(id string) bool {
	_, ok := t.Member(id)
	return ok
}

// ReferencedMembers returns the set of member IDs used by any expense,
// either as payer or as split participant.
func (t *Trip) ReferencedMembers() map[string]bool {
	refs := make(map[string]bool)
	for _, e := range t.Expenses {
		if e.PaidBy != "" {
			refs[e.PaidBy] = true
		}
		for _, id := range e.SplitBetween {
			refs[id] = true
		}
	}
	return refs
}
