package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/spendilog/internal/auth"
	"github.com/mmynk/spendilog/internal/config"
	"github.com/mmynk/spendilog/internal/currency"
	"github.com/mmynk/spendilog/internal/events"
	"github.com/mmynk/spendilog/internal/server"
	"github.com/mmynk/spendilog/internal/service"
	"github.com/mmynk/spendilog/internal/storage/sqlite"
	"github.com/mmynk/spendilog/internal/worker"
	"github.com/mmynk/spendilog/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	cache, closeCache, err := newRateCache(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer closeCache()

	provider := currency.NewHTTPProvider(cfg.RatesAPIURL, cfg.RatesTimeout)
	rates, err := currency.NewRateStore(cfg.RatesBase, provider, cache, cfg.RatesMaxAge)
	if err != nil {
		return fmt.Errorf("failed to initialize rates: %w", err)
	}
	if err := rates.Load(ctx); err != nil {
		slog.Warn("No cached rates, using fallback table until the first refresh", "error", err)
	}

	publisher := newPublisher(cfg)
	defer publisher.Close()

	secret := cfg.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		slog.Warn("JWT_SECRET not set, tokens will not survive a restart")
	}
	jwtManager := auth.NewJWTManager(secret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	handler := server.NewRouter(server.Config{
		Auth:        service.NewAuthService(authenticator, jwtManager, slog.Default()),
		Trips:       service.NewTripService(store),
		Expenses:    service.NewExpenseService(store, rates, publisher),
		Currency:    service.NewCurrencyService(rates, publisher),
		JWTManager:  jwtManager,
		RequireAuth: cfg.RequireAuth,
		Store:       store,
		Rates:       rates,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		// h2c serves HTTP/2 without TLS for gRPC clients
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Connect server starting",
			"address", srv.Addr,
			"url", fmt.Sprintf("http://localhost%s", srv.Addr),
			"require_auth", cfg.RequireAuth,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return worker.NewRateRefresher(rates, publisher, cfg.RatesRefreshInterval).Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newRateCache selects the rate cache backend. The returned func releases it.
func newRateCache(ctx context.Context, cfg *config.Config, store *sqlite.SQLiteStore) (currency.Cache, func(), error) {
	switch cfg.RateCache {
	case config.RateCacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		slog.Info("Caching rates in redis", "addr", cfg.RedisAddr)
		return currency.NewRedisCache(client, currency.DefaultRedisKey), func() { client.Close() }, nil
	case config.RateCacheNone:
		return nil, func() {}, nil
	default:
		return currency.NewStoreCache(store), func() {}, nil
	}
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		slog.Warn("AMQP unavailable, events disabled", "error", err)
		return events.NopPublisher{}
	}
	slog.Info("Publishing events", "exchange", cfg.AMQPExchange)
	return publisher
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
