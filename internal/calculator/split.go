package calculator

import (
	"fmt"

	"github.com/mmynk/spendilog/internal/models"
)

// Share is one member's portion of a purchase.
type Share struct {
	MemberID string
	Amount   float64
}

// CalculateShares divides amount among participants according to splitType.
// Equal shares are not rounded, so they always sum back to amount within
// floating point error.
func CalculateShares(amount float64, participants []string, splitType models.SplitType) ([]Share, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}

	switch splitType {
	case models.SplitTypeEqually, "":
		perPerson := amount / float64(len(participants))
		shares := make([]Share, len(participants))
		for i, id := range participants {
			shares[i] = Share{MemberID: id, Amount: perPerson}
		}
		return shares, nil
	default:
		return nil, fmt.Errorf("unsupported split type %q", splitType)
	}
}
