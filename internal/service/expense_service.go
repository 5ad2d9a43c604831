package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/spendilog/internal/calculator"
	"github.com/mmynk/spendilog/internal/currency"
	"github.com/mmynk/spendilog/internal/events"
	"github.com/mmynk/spendilog/internal/models"
	"github.com/mmynk/spendilog/internal/rpc"
	"github.com/mmynk/spendilog/internal/storage"
)

// ConverterSource hands out converters bound to the current rate snapshot.
type ConverterSource interface {
	Converter() *currency.Converter
}

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	store     storage.Store
	rates     ConverterSource
	publisher events.Publisher
	now       func() time.Time
}

var _ rpc.ExpenseServiceHandler = (*ExpenseService)(nil)

// NewExpenseService creates an ExpenseService. publisher may be nil.
func NewExpenseService(store storage.Store, rates ConverterSource, publisher events.Publisher) *ExpenseService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ExpenseService{
		store:     store,
		rates:     rates,
		publisher: publisher,
		now:       time.Now,
	}
}

// AddExpense records a purchase (or a settlement marked by its category).
func (s *ExpenseService) AddExpense(ctx context.Context, req *connect.Request[rpc.AddExpenseRequest]) (*connect.Response[rpc.AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"trip_id", req.Msg.TripID,
		"amount", req.Msg.Amount,
		"currency", req.Msg.Currency,
		"split_count", len(req.Msg.SplitBetween),
	)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}

	expense := &models.Expense{
		TripID:       trip.ID,
		Description:  req.Msg.Description,
		Amount:       req.Msg.Amount,
		Currency:     req.Msg.Currency,
		Category:     req.Msg.Category,
		Date:         req.Msg.Date,
		PaidBy:       req.Msg.PaidBy,
		SplitBetween: req.Msg.SplitBetween,
		SplitType:    models.SplitType(req.Msg.SplitType),
	}
	if expense.Date == "" {
		expense.Date = s.now().UTC().Format(models.DateLayout)
	}
	expense.Normalize()
	if err := expense.Validate(trip); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "trip_id", trip.ID, "error", err)
		return nil, toConnectError(err)
	}

	event, err := events.ExpenseEvent(events.ExpenseAdded, expense)
	publish(ctx, s.publisher, event, err)

	slog.Info("Expense added", "trip_id", trip.ID, "expense_id", expense.ID)
	return connect.NewResponse(&rpc.AddExpenseResponse{Expense: expense}), nil
}

// ListExpenses lists a trip's expenses ordered by date.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[rpc.ListExpensesRequest]) (*connect.Response[rpc.ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "trip_id", req.Msg.TripID)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.ListExpensesResponse{Expenses: trip.Expenses}), nil
}

// DeleteExpense removes one expense from a trip.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[rpc.DeleteExpenseRequest]) (*connect.Response[rpc.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received",
		"trip_id", req.Msg.TripID,
		"expense_id", req.Msg.ExpenseID,
	)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}

	var deleted *models.Expense
	for i := range trip.Expenses {
		if trip.Expenses[i].ID == req.Msg.ExpenseID {
			deleted = &trip.Expenses[i]
			break
		}
	}
	if deleted == nil {
		return nil, toConnectError(fmt.Errorf("expense %s: %w", req.Msg.ExpenseID, storage.ErrNotFound))
	}

	if err := s.store.DeleteExpense(ctx, trip.ID, deleted.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", deleted.ID, "error", err)
		return nil, toConnectError(err)
	}

	event, err := events.ExpenseEvent(events.ExpenseDeleted, deleted)
	publish(ctx, s.publisher, event, err)

	slog.Info("Expense deleted", "trip_id", trip.ID, "expense_id", deleted.ID)
	return connect.NewResponse(&rpc.DeleteExpenseResponse{}), nil
}

// GetBalances computes every member's net balance in the trip's main
// currency, the settle-up plan and the recorded settlements. All conversions
// of one call read the same rate snapshot.
func (s *ExpenseService) GetBalances(ctx context.Context, req *connect.Request[rpc.GetBalancesRequest]) (*connect.Response[rpc.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "trip_id", req.Msg.TripID)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}

	conv := s.rates.Converter()
	summaries, total, err := calculator.Summarize(trip.Members, trip.Expenses, trip.MainCurrency, conv)
	if err != nil {
		var rateErr *currency.RateUnavailableError
		if errors.As(err, &rateErr) {
			slog.Warn("GetBalances missing exchange rate",
				"trip_id", trip.ID,
				"currency", rateErr.Currency,
			)
		}
		return nil, toConnectError(err)
	}

	tag := displayTag(req.Msg.Locale)
	balances := make(models.Balances, len(summaries))
	resp := &rpc.GetBalancesResponse{
		TripID:       trip.ID,
		MainCurrency: trip.MainCurrency,
		Balances:     make([]rpc.MemberBalance, 0, len(summaries)),
		Debts:        []rpc.Debt{},
		Settlements:  calculator.Settlements(trip.Expenses),
		TotalSpent:   total,
		RatesAsOf:    conv.Snapshot().FetchedAt,
		RatesSource:  conv.Snapshot().Source,
	}
	for _, sum := range summaries {
		balances[sum.Member.ID] = sum.NetBalance
		resp.Balances = append(resp.Balances, rpc.MemberBalance{
			Member:     sum.Member,
			Balance:    sum.NetBalance,
			TotalPaid:  sum.TotalPaid,
			TotalShare: sum.TotalShare,
			Display:    currency.Format(tag, sum.NetBalance, trip.MainCurrency),
		})
	}
	for _, debt := range calculator.SimplifyDebts(balances, trip.Members) {
		resp.Debts = append(resp.Debts, rpc.Debt{
			From:    debt.From,
			To:      debt.To,
			Amount:  debt.Amount,
			Display: currency.Format(tag, debt.Amount, trip.MainCurrency),
		})
	}

	slog.Info("GetBalances successful",
		"trip_id", trip.ID,
		"members", len(resp.Balances),
		"debts", len(resp.Debts),
		"total_spent", total,
	)
	return connect.NewResponse(resp), nil
}

// SettleDebt records that one member paid another. The amount may be less
// or more than the suggested debt.
func (s *ExpenseService) SettleDebt(ctx context.Context, req *connect.Request[rpc.SettleDebtRequest]) (*connect.Response[rpc.SettleDebtResponse], error) {
	slog.Info("SettleDebt request received",
		"trip_id", req.Msg.TripID,
		"from_id", req.Msg.FromID,
		"to_id", req.Msg.ToID,
		"amount", req.Msg.Amount,
	)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}

	from, ok := trip.Member(req.Msg.FromID)
	if !ok {
		return nil, toConnectError(fmt.Errorf("%w: %s", models.ErrUnknownMember, req.Msg.FromID))
	}
	to, ok := trip.Member(req.Msg.ToID)
	if !ok {
		return nil, toConnectError(fmt.Errorf("%w: %s", models.ErrUnknownMember, req.Msg.ToID))
	}

	debt := models.SimplifiedDebt{From: from, To: to, Amount: req.Msg.Amount}
	expense, err := trip.NewSettlement(debt, req.Msg.Amount, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("SettleDebt failed", "trip_id", trip.ID, "error", err)
		return nil, toConnectError(err)
	}

	event, err := events.ExpenseEvent(events.DebtSettled, expense)
	publish(ctx, s.publisher, event, err)

	slog.Info("Debt settled",
		"trip_id", trip.ID,
		"expense_id", expense.ID,
		"from", from.Name,
		"to", to.Name,
	)
	return connect.NewResponse(&rpc.SettleDebtResponse{Expense: expense}), nil
}
