package rpc

import (
	"time"

	"github.com/mmynk/spendilog/internal/models"
)

// User is the public view of an account. The password hash never leaves the
// server.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

// NewUser converts a stored user to its public view.
func NewUser(u *models.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Rates is a published exchange rate table.
type Rates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
	Source    string             `json:"source"`
	Stale     bool               `json:"stale"`
}

type ConvertRequest struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	// Locale is a BCP 47 tag used for Display. Defaults to English.
	Locale string `json:"locale,omitempty"`
}

type ConvertResponse struct {
	// Amount is the unrounded converted value.
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
}

type GetRatesRequest struct{}

type GetRatesResponse struct {
	Rates *Rates `json:"rates"`
}

type RefreshRatesRequest struct{}

type RefreshRatesResponse struct {
	Rates *Rates `json:"rates"`
}

type CreateTripRequest struct {
	Name                string   `json:"name"`
	MainCurrency        string   `json:"main_currency"`
	PreferredCurrencies []string `json:"preferred_currencies,omitempty"`
	// Members are display names; IDs are assigned by the server.
	Members []string `json:"members"`
}

type CreateTripResponse struct {
	Trip *models.Trip `json:"trip"`
}

type GetTripRequest struct {
	TripID string `json:"trip_id"`
}

type GetTripResponse struct {
	Trip *models.Trip `json:"trip"`
}

type ListTripsRequest struct{}

type ListTripsResponse struct {
	Trips []*models.Trip `json:"trips"`
}

type UpdateTripRequest struct {
	TripID              string   `json:"trip_id"`
	Name                string   `json:"name"`
	MainCurrency        string   `json:"main_currency"`
	PreferredCurrencies []string `json:"preferred_currencies,omitempty"`
	// Members replaces the member list. Entries without an ID are new members.
	Members []models.Member `json:"members"`
}

type UpdateTripResponse struct {
	Trip *models.Trip `json:"trip"`
}

type DeleteTripRequest struct {
	TripID string `json:"trip_id"`
}

type DeleteTripResponse struct{}

type AddExpenseRequest struct {
	TripID       string   `json:"trip_id"`
	Description  string   `json:"description,omitempty"`
	Amount       float64  `json:"amount"`
	Currency     string   `json:"currency"`
	Category     string   `json:"category,omitempty"`
	Date         string   `json:"date,omitempty"`
	PaidBy       string   `json:"paid_by"`
	SplitBetween []string `json:"split_between"`
	SplitType    string   `json:"split_type,omitempty"`
}

type AddExpenseResponse struct {
	Expense *models.Expense `json:"expense"`
}

type ListExpensesRequest struct {
	TripID string `json:"trip_id"`
}

type ListExpensesResponse struct {
	Expenses []models.Expense `json:"expenses"`
}

type DeleteExpenseRequest struct {
	TripID    string `json:"trip_id"`
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type GetBalancesRequest struct {
	TripID string `json:"trip_id"`
	Locale string `json:"locale,omitempty"`
}

// MemberBalance is one member's position in the trip's main currency.
type MemberBalance struct {
	Member     models.Member `json:"member"`
	Balance    float64       `json:"balance"`
	TotalPaid  float64       `json:"total_paid"`
	TotalShare float64       `json:"total_share"`
	Display    string        `json:"display"`
}

// Debt is one suggested transfer of the settle-up plan.
type Debt struct {
	From    models.Member `json:"from"`
	To      models.Member `json:"to"`
	Amount  float64       `json:"amount"`
	Display string        `json:"display"`
}

type GetBalancesResponse struct {
	TripID       string           `json:"trip_id"`
	MainCurrency string           `json:"main_currency"`
	Balances     []MemberBalance  `json:"balances"`
	Debts        []Debt           `json:"debts"`
	Settlements  []models.Expense `json:"settlements"`
	TotalSpent   float64          `json:"total_spent"`
	RatesAsOf    time.Time        `json:"rates_as_of"`
	RatesSource  string           `json:"rates_source"`
}

type SettleDebtRequest struct {
	TripID string  `json:"trip_id"`
	FromID string  `json:"from_id"`
	ToID   string  `json:"to_id"`
	Amount float64 `json:"amount"`
}

type SettleDebtResponse struct {
	Expense *models.Expense `json:"expense"`
}
