package calculator

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mmynk/spendilog/internal/metrics"
	"github.com/mmynk/spendilog/internal/models"
)

// Epsilon is the smallest balance, in main-currency units, treated as non-zero.
// It matches two-decimal display precision and keeps floating point noise from
// producing micro-transfers.
const Epsilon = 0.01

// Converter converts an amount between two currency codes.
type Converter interface {
	Convert(amount float64, from, to string) (float64, error)
}

// MemberSummary is the spending breakdown for one member.
type MemberSummary struct {
	Member     models.Member
	NetBalance float64 // Positive = owed money, Negative = owes money
	TotalPaid  float64 // Purchases this member fronted
	TotalShare float64 // This member's share of all purchases
}

// ComputeBalances returns every member's signed net balance in mainCurrency.
//
// Algorithm:
//   - Every member starts at zero
//   - Purchase: payer gets +amount, each split member gets -amount/len(split)
//   - Settlement: payer (debtor) gets +amount, the single recipient gets -amount
//   - Purchases or settlements without payer or split members are skipped
//
// The result is a pure sum, so expense order does not matter and the balances
// add up to zero. A missing exchange rate aborts the computation.
func ComputeBalances(members []models.Member, expenses []models.Expense, mainCurrency string, conv Converter) (models.Balances, error) {
	balances := make(models.Balances, len(members))
	known := make(map[string]bool, len(members))
	for _, m := range members {
		balances[m.ID] = 0
		known[m.ID] = true
	}

	credit := func(id string, amount float64) {
		if !known[id] {
			slog.Warn("Expense references unknown member", "member_id", id)
			known[id] = true
		}
		balances[id] += amount
	}

	for i := range expenses {
		e := &expenses[i]

		if e.PaidBy == "" || len(e.SplitBetween) == 0 {
			slog.Debug("Skipping malformed expense", "expense_id", e.ID)
			continue
		}

		amount, err := conv.Convert(e.Amount, e.Currency, mainCurrency)
		if err != nil {
			metrics.BalanceComputations.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to convert expense %s: %w", e.ID, err)
		}

		if e.IsSettlement() {
			credit(e.PaidBy, amount)
			credit(e.Recipient(), -amount)
			continue
		}

		shares, err := CalculateShares(amount, e.SplitBetween, e.SplitType)
		if err != nil {
			slog.Debug("Skipping expense with unsupported split", "expense_id", e.ID, "error", err)
			continue
		}
		credit(e.PaidBy, amount)
		for _, s := range shares {
			credit(s.MemberID, -s.Amount)
		}
	}

	metrics.BalanceComputations.WithLabelValues("ok").Inc()
	return balances, nil
}

// Settlements returns the expenses that are settlement transfers, in input order.
func Settlements(expenses []models.Expense) []models.Expense {
	var out []models.Expense
	for _, e := range expenses {
		if e.IsSettlement() {
			out = append(out, e)
		}
	}
	return out
}

// Summarize returns per-member totals for purchases in mainCurrency, in member
// order, together with the trip's total spend. Settlements move money between
// members and are not counted as spending, but they do affect NetBalance.
func Summarize(members []models.Member, expenses []models.Expense, mainCurrency string, conv Converter) ([]MemberSummary, float64, error) {
	balances, err := ComputeBalances(members, expenses, mainCurrency, conv)
	if err != nil {
		return nil, 0, err
	}

	paid := make(map[string]float64)
	share := make(map[string]float64)
	var total float64
	for i := range expenses {
		e := &expenses[i]
		if e.IsSettlement() || e.PaidBy == "" || len(e.SplitBetween) == 0 {
			continue
		}
		amount, err := conv.Convert(e.Amount, e.Currency, mainCurrency)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to convert expense %s: %w", e.ID, err)
		}
		shares, err := CalculateShares(amount, e.SplitBetween, e.SplitType)
		if err != nil {
			continue
		}
		total += amount
		paid[e.PaidBy] += amount
		for _, s := range shares {
			share[s.MemberID] += s.Amount
		}
	}

	summaries := make([]MemberSummary, 0, len(balances))
	for _, m := range orderedParties(balances, members) {
		summaries = append(summaries, MemberSummary{
			Member:     m,
			NetBalance: balances[m.ID],
			TotalPaid:  paid[m.ID],
			TotalShare: share[m.ID],
		})
	}
	return summaries, total, nil
}

// party is a debtor or creditor with the magnitude still to settle.
type party struct {
	member models.Member
	amount float64
}

// SimplifyDebts turns net balances into a list of transfers that zero them.
//
// Debtors and creditors are taken in member order (balance IDs missing from
// members follow, sorted by ID). The first debtor pays the first creditor
// min(owed, due); a party leaves its list once its residual drops below
// Epsilon. The greedy plan is not guaranteed to be minimal, but it settles
// everything in at most len(parties)-1 transfers.
func SimplifyDebts(balances models.Balances, members []models.Member) []models.SimplifiedDebt {
	var debtors, creditors []party
	for _, m := range orderedParties(balances, members) {
		b := balances[m.ID]
		switch {
		case b < -Epsilon:
			debtors = append(debtors, party{member: m, amount: -b})
		case b > Epsilon:
			creditors = append(creditors, party{member: m, amount: b})
		}
	}

	var debts []models.SimplifiedDebt
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := debtor.amount
		if creditor.amount < amount {
			amount = creditor.amount
		}

		if amount > Epsilon {
			debts = append(debts, models.SimplifiedDebt{
				From:   debtor.member,
				To:     creditor.member,
				Amount: amount,
			})
		}

		debtor.amount -= amount
		creditor.amount -= amount

		if debtor.amount < Epsilon {
			i++
		}
		if creditor.amount < Epsilon {
			j++
		}
	}

	return debts
}

// ApplyDebts returns a copy of balances after every debt has been paid:
// the payer's balance rises and the recipient's falls by the amount.
func ApplyDebts(balances models.Balances, debts []models.SimplifiedDebt) models.Balances {
	out := make(models.Balances, len(balances))
	for id, b := range balances {
		out[id] = b
	}
	for _, d := range debts {
		out[d.From.ID] += d.Amount
		out[d.To.ID] -= d.Amount
	}
	return out
}

// orderedParties lists members in order, then any other balance IDs sorted.
func orderedParties(balances models.Balances, members []models.Member) []models.Member {
	seen := make(map[string]bool, len(members))
	out := make([]models.Member, 0, len(balances))
	for _, m := range members {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if _, ok := balances[m.ID]; ok {
			out = append(out, m)
		}
	}

	var extra []string
	for id := range balances {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		out = append(out, models.Member{ID: id, Name: id})
	}
	return out
}
