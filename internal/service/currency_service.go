package service

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"connectrpc.com/connect"

	"github.com/mmynk/spendilog/internal/currency"
	"github.com/mmynk/spendilog/internal/events"
	"github.com/mmynk/spendilog/internal/models"
	"github.com/mmynk/spendilog/internal/rpc"
)

// RateManager is the part of currency.RateStore the currency service uses.
type RateManager interface {
	ConverterSource
	Get() *models.RateSnapshot
	Stale() bool
	Refresh(ctx context.Context) (*models.RateSnapshot, error)
}

var _ RateManager = (*currency.RateStore)(nil)

// CurrencyService implements the Connect CurrencyService.
type CurrencyService struct {
	rates     RateManager
	publisher events.Publisher
}

var _ rpc.CurrencyServiceHandler = (*CurrencyService)(nil)

// NewCurrencyService creates a CurrencyService. publisher may be nil.
func NewCurrencyService(rates RateManager, publisher events.Publisher) *CurrencyService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CurrencyService{rates: rates, publisher: publisher}
}

func (s *CurrencyService) ratesMessage(snap *models.RateSnapshot) *rpc.Rates {
	return &rpc.Rates{
		Base:      snap.Base,
		Rates:     snap.Rates,
		FetchedAt: snap.FetchedAt,
		Source:    snap.Source,
		Stale:     s.rates.Stale(),
	}
}

// Convert converts an amount with the published rates.
func (s *CurrencyService) Convert(ctx context.Context, req *connect.Request[rpc.ConvertRequest]) (*connect.Response[rpc.ConvertResponse], error) {
	from := models.NormalizeCurrency(req.Msg.From)
	to := models.NormalizeCurrency(req.Msg.To)
	slog.Debug("Convert request received", "amount", req.Msg.Amount, "from", from, "to", to)

	if math.IsNaN(req.Msg.Amount) || math.IsInf(req.Msg.Amount, 0) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("amount must be finite"))
	}
	if err := models.ValidateCurrency(from); err != nil {
		return nil, toConnectError(err)
	}
	if err := models.ValidateCurrency(to); err != nil {
		return nil, toConnectError(err)
	}

	amount, err := s.rates.Converter().Convert(req.Msg.Amount, from, to)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.ConvertResponse{
		Amount:  amount,
		Display: currency.Format(displayTag(req.Msg.Locale), amount, to),
	}), nil
}

// GetRates returns the published rate table.
func (s *CurrencyService) GetRates(ctx context.Context, req *connect.Request[rpc.GetRatesRequest]) (*connect.Response[rpc.GetRatesResponse], error) {
	return connect.NewResponse(&rpc.GetRatesResponse{Rates: s.ratesMessage(s.rates.Get())}), nil
}

// RefreshRates fetches new rates from the provider. When the provider fails
// the previous table stays published.
func (s *CurrencyService) RefreshRates(ctx context.Context, req *connect.Request[rpc.RefreshRatesRequest]) (*connect.Response[rpc.RefreshRatesResponse], error) {
	slog.Info("RefreshRates request received")

	snap, err := s.rates.Refresh(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	event, err := events.RatesRefreshedEvent(snap)
	publish(ctx, s.publisher, event, err)

	return connect.NewResponse(&rpc.RefreshRatesResponse{Rates: s.ratesMessage(snap)}), nil
}
