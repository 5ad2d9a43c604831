// Package server assembles the HTTP handler serving the Connect services,
// metrics and health checks.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/spendilog/internal/auth"
	"github.com/mmynk/spendilog/internal/middleware"
	"github.com/mmynk/spendilog/internal/models"
	"github.com/mmynk/spendilog/internal/rpc"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateStatus reports the published rate table for health checks.
type RateStatus interface {
	Get() *models.RateSnapshot
	Stale() bool
}

// Config holds everything NewRouter wires together.
type Config struct {
	Auth     rpc.AuthServiceHandler
	Trips    rpc.TripServiceHandler
	Expenses rpc.ExpenseServiceHandler
	Currency rpc.CurrencyServiceHandler

	JWTManager *auth.JWTManager
	// RequireAuth rejects anonymous calls to the trip and expense services.
	RequireAuth bool

	Store Pinger
	Rates RateStatus
}

// NewRouter builds the root handler.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)

	logging := middleware.LoggingInterceptor()
	optional := connect.WithInterceptors(logging, middleware.OptionalAuth(cfg.JWTManager))
	protected := optional
	currencyOpts := optional
	if cfg.RequireAuth {
		protected = connect.WithInterceptors(logging, middleware.RequireAuth(cfg.JWTManager))
		// Refreshing hits the upstream rate API
		currencyOpts = connect.WithInterceptors(logging,
			middleware.RequireAuthFor(cfg.JWTManager, rpc.CurrencyServiceRefreshRatesProcedure))
	}

	mount := func(path string, h http.Handler) {
		r.Handle(path+"*", h)
	}
	mount(rpc.NewAuthServiceHandler(cfg.Auth, optional))
	mount(rpc.NewCurrencyServiceHandler(cfg.Currency, currencyOpts))
	mount(rpc.NewTripServiceHandler(cfg.Trips, protected))
	mount(rpc.NewExpenseServiceHandler(cfg.Expenses, protected))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz", healthz(cfg.Store, cfg.Rates))

	return r
}

type healthResponse struct {
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	RatesSource string    `json:"rates_source"`
	RatesAsOf   time.Time `json:"rates_as_of"`
	RatesStale  bool      `json:"rates_stale"`
}

// healthz reports 503 when the store is unreachable. Stale rates are
// reported but do not fail the check.
func healthz(store Pinger, rates RateStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if err := store.Ping(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
		snap := rates.Get()
		resp.RatesSource = snap.Source
		resp.RatesAsOf = snap.FetchedAt
		resp.RatesStale = rates.Stale()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Warn("Failed to write health response", "error", err)
		}
	}
}

// requestLogger logs all incoming requests
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", chimiddleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// cors adds CORS headers for browser access
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
