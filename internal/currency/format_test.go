package currency

import (
	"testing"

	"golang.org/x/text/language"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{12.344, 12.34},
		{12.345, 12.35},
		{-12.345, -12.35},
		{0.005, 0.01},
		{100, 100},
		{33.333333, 33.33},
	}

	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	got := Format(language.English, 1234.5, "EUR")
	if got != "1,234.50 EUR" {
		t.Errorf("Format() = %q, want %q", got, "1,234.50 EUR")
	}
}
