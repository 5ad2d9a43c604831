package models

import "time"

// RateSnapshot is a point-in-time exchange rate table. Each rate is the number
// of units of the currency per one unit of Base, so Rates[Base] is always 1.
type RateSnapshot struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
	Source    string             `json:"source"`
}

// Rate returns the rate for code and whether it is present.
func (s *RateSnapshot) Rate(code string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	r, ok := s.Rates[code]
	return r, ok
}

// Age returns how long ago the snapshot was fetched.
func (s *RateSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}
