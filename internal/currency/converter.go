// Package currency converts amounts between currencies using a published
// exchange rate snapshot, and keeps that snapshot fresh.
package currency

import (
	"errors"
	"fmt"

	"github.com/mmynk/spendilog/internal/metrics"
	"github.com/mmynk/spendilog/internal/models"
)

// ErrRateUnavailable is matched by every conversion failure caused by a
// currency missing from the rate table.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateUnavailableError names the currency that could not be converted.
type RateUnavailableError struct {
	Currency string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no exchange rate for %s", e.Currency)
}

func (e *RateUnavailableError) Unwrap() error {
	return ErrRateUnavailable
}

// Converter converts amounts using one fixed rate snapshot.
// Build a new Converter per computation so that a concurrent refresh
// never changes rates halfway through.
type Converter struct {
	snap *models.RateSnapshot
}

// NewConverter returns a converter reading from snap.
func NewConverter(snap *models.RateSnapshot) *Converter {
	return &Converter{snap: snap}
}

// Snapshot returns the rate table the converter reads from.
func (c *Converter) Snapshot() *models.RateSnapshot {
	return c.snap
}

// Convert converts amount from one currency to another. Identical codes
// return amount unchanged. A code missing from the snapshot yields a
// *RateUnavailableError; the result is never rounded.
func (c *Converter) Convert(amount float64, from, to string) (float64, error) {
	from = models.NormalizeCurrency(from)
	to = models.NormalizeCurrency(to)
	if from == to {
		return amount, nil
	}

	fromRate, ok := c.snap.Rate(from)
	if !ok || fromRate <= 0 {
		metrics.ConversionFailures.WithLabelValues(from).Inc()
		return 0, &RateUnavailableError{Currency: from}
	}
	toRate, ok := c.snap.Rate(to)
	if !ok || toRate <= 0 {
		metrics.ConversionFailures.WithLabelValues(to).Inc()
		return 0, &RateUnavailableError{Currency: to}
	}

	return amount / fromRate * toRate, nil
}
