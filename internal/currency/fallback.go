package currency

import (
	"fmt"
	"time"

	"github.com/mmynk/spendilog/internal/models"
)

// SourceFallback tags the bundled snapshot.
const SourceFallback = "fallback"

// fallbackRates is a bundled EUR-based table used until a live refresh
// succeeds. Values are units per 1 EUR.
var fallbackRates = map[string]float64{
	"EUR": 1.0,
	"USD": 1.08,
	"GBP": 0.85,
	"CHF": 0.96,
	"JPY": 162.5,
	"CNY": 7.8,
	"AUD": 1.64,
	"CAD": 1.47,
	"NZD": 1.78,
	"SEK": 11.4,
	"NOK": 11.6,
	"DKK": 7.46,
	"PLN": 4.3,
	"CZK": 25.2,
	"HUF": 392.0,
	"RON": 4.97,
	"TRY": 35.0,
	"MXN": 19.6,
	"BRL": 5.9,
	"ARS": 1000.0,
	"INR": 90.5,
	"THB": 38.5,
	"IDR": 17300.0,
	"VND": 27400.0,
	"SGD": 1.45,
	"HKD": 8.45,
	"KRW": 1460.0,
	"ZAR": 19.8,
	"MAD": 10.8,
	"EGP": 52.0,
	"ISK": 149.0,
	"AED": 3.97,
}

// fallbackDate is the day the bundled table was captured.
var fallbackDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// FallbackSnapshot returns the bundled table expressed relative to base.
func FallbackSnapshot(base string) (*models.RateSnapshot, error) {
	base = models.NormalizeCurrency(base)
	baseRate, ok := fallbackRates[base]
	if !ok {
		return nil, &RateUnavailableError{Currency: base}
	}

	rates := make(map[string]float64, len(fallbackRates))
	for code, r := range fallbackRates {
		rates[code] = r / baseRate
	}
	rates[base] = 1.0

	return &models.RateSnapshot{
		Base:      base,
		Rates:     rates,
		FetchedAt: fallbackDate,
		Source:    SourceFallback,
	}, nil
}

// ValidateSnapshot normalises codes in snap and checks that it can serve
// conversions relative to base.
func ValidateSnapshot(snap *models.RateSnapshot, base string) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	base = models.NormalizeCurrency(base)
	if models.NormalizeCurrency(snap.Base) != base {
		return fmt.Errorf("snapshot base %q does not match %q", snap.Base, base)
	}
	if len(snap.Rates) == 0 {
		return fmt.Errorf("snapshot has no rates")
	}

	rates := make(map[string]float64, len(snap.Rates))
	for code, r := range snap.Rates {
		if !models.ValidAmount(r) {
			return fmt.Errorf("invalid rate for %s: %v", code, r)
		}
		rates[models.NormalizeCurrency(code)] = r
	}
	rates[base] = 1.0

	snap.Base = base
	snap.Rates = rates
	return nil
}
