package service

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/spendilog/internal/auth"
	"github.com/mmynk/spendilog/internal/currency"
	"github.com/mmynk/spendilog/internal/events"
	"github.com/mmynk/spendilog/internal/middleware"
	"github.com/mmynk/spendilog/internal/models"
	"github.com/mmynk/spendilog/internal/rpc"
	"github.com/mmynk/spendilog/internal/storage/sqlite"
)

type stubProvider struct {
	mu    sync.Mutex
	rates map[string]float64
	err   error
}

func (p *stubProvider) Fetch(_ context.Context, base string) (*models.RateSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return &models.RateSnapshot{
		Base:      base,
		Rates:     maps.Clone(p.rates),
		FetchedAt: time.Now().UTC(),
		Source:    "stub",
	}, nil
}

func (p *stubProvider) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	store     *sqlite.SQLiteStore
	provider  *stubProvider
	publisher *recordingPublisher
	jwt       *auth.JWTManager

	trips    *rpc.TripServiceClient
	expenses *rpc.ExpenseServiceClient
	currency *rpc.CurrencyServiceClient
	auth     *rpc.AuthServiceClient
}

// setupTestServer serves every service over httptest with a temp SQLite
// store and rates EUR=1, USD=2, GBP=0.5.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	provider := &stubProvider{rates: map[string]float64{"EUR": 1, "USD": 2, "GBP": 0.5}}
	rates, err := currency.NewRateStore("EUR", provider, currency.NewStoreCache(store), time.Hour)
	if err != nil {
		t.Fatalf("failed to create rate store: %v", err)
	}
	if _, err := rates.Refresh(context.Background()); err != nil {
		t.Fatalf("failed to load rates: %v", err)
	}

	publisher := &recordingPublisher{}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticatorWithCost(store, bcrypt.MinCost)

	interceptors := connect.WithInterceptors(middleware.OptionalAuth(jwtManager))
	mux := http.NewServeMux()
	mux.Handle(rpc.NewTripServiceHandler(NewTripService(store), interceptors))
	mux.Handle(rpc.NewExpenseServiceHandler(NewExpenseService(store, rates, publisher), interceptors))
	mux.Handle(rpc.NewCurrencyServiceHandler(NewCurrencyService(rates, publisher), interceptors))
	mux.Handle(rpc.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, slog.Default()), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:     store,
		provider:  provider,
		publisher: publisher,
		jwt:       jwtManager,
		trips:     rpc.NewTripServiceClient(http.DefaultClient, server.URL),
		expenses:  rpc.NewExpenseServiceClient(http.DefaultClient, server.URL),
		currency:  rpc.NewCurrencyServiceClient(http.DefaultClient, server.URL),
		auth:      rpc.NewAuthServiceClient(http.DefaultClient, server.URL),
	}
}

// createTrip creates an anonymous EUR trip with the given member names.
func (env *testEnv) createTrip(t *testing.T, names ...string) *models.Trip {
	t.Helper()
	resp, err := env.trips.CreateTrip(context.Background(), connect.NewRequest(&rpc.CreateTripRequest{
		Name:         "Lisbon",
		MainCurrency: "EUR",
		Members:      names,
	}))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return resp.Msg.Trip
}

func (env *testEnv) addExpense(t *testing.T, tripID string, amount float64, cur, paidBy string, split ...string) *models.Expense {
	t.Helper()
	resp, err := env.expenses.AddExpense(context.Background(), connect.NewRequest(&rpc.AddExpenseRequest{
		TripID:       tripID,
		Amount:       amount,
		Currency:     cur,
		Date:         "2026-05-01",
		PaidBy:       paidBy,
		SplitBetween: split,
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %T: %v", err, err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected code %v, got %v (%v)", want, connectErr.Code(), err)
	}
}
