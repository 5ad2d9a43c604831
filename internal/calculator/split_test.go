package calculator

import (
	"math"
	"testing"

	"github.com/mmynk/spendilog/internal/models"
)

func TestCalculateShares(t *testing.T) {
	tests := []struct {
		name         string
		amount       float64
		participants []string
		splitType    models.SplitType
		wantErr      bool
		validateFunc func(t *testing.T, shares []Share)
	}{
		{
			name:         "three-way equal split",
			amount:       90.0,
			participants: []string{"alice", "bob", "charlie"},
			splitType:    models.SplitTypeEqually,
			validateFunc: func(t *testing.T, shares []Share) {
				if len(shares) != 3 {
					t.Fatalf("got %d shares, want 3", len(shares))
				}
				for _, s := range shares {
					if math.Abs(s.Amount-30.0) > 1e-9 {
						t.Errorf("%s share = %v, want 30.0", s.MemberID, s.Amount)
					}
				}
			},
		},
		{
			name:         "shares keep participant order",
			amount:       10.0,
			participants: []string{"bob", "alice"},
			splitType:    models.SplitTypeEqually,
			validateFunc: func(t *testing.T, shares []Share) {
				if shares[0].MemberID != "bob" || shares[1].MemberID != "alice" {
					t.Errorf("order = %v, want [bob alice]", shares)
				}
			},
		},
		{
			name:         "uneven amount sums back exactly enough",
			amount:       100.0,
			participants: []string{"a", "b", "c"},
			splitType:    models.SplitTypeEqually,
			validateFunc: func(t *testing.T, shares []Share) {
				var sum float64
				for _, s := range shares {
					sum += s.Amount
				}
				if math.Abs(sum-100.0) > 1e-9 {
					t.Errorf("sum = %v, want 100.0", sum)
				}
			},
		},
		{
			name:         "empty split type means equally",
			amount:       20.0,
			participants: []string{"a", "b"},
			splitType:    "",
			validateFunc: func(t *testing.T, shares []Share) {
				if math.Abs(shares[0].Amount-10.0) > 1e-9 {
					t.Errorf("share = %v, want 10.0", shares[0].Amount)
				}
			},
		},
		{
			name:         "no participants should error",
			amount:       10.0,
			participants: []string{},
			splitType:    models.SplitTypeEqually,
			wantErr:      true,
		},
		{
			name:         "unknown split type should error",
			amount:       10.0,
			participants: []string{"a"},
			splitType:    "percentage",
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := CalculateShares(tt.amount, tt.participants, tt.splitType)
			if (err != nil) != tt.wantErr {
				t.Errorf("CalculateShares() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.validateFunc != nil {
				tt.validateFunc(t, shares)
			}
		})
	}
}
