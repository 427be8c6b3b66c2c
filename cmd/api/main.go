// Package main is the entry point for the weather-wager API server.
//
// It loads configuration, builds the key-value store backend, wires the rate
// limiter, wallet and weather gateway into the HTTP chassis, and serves until
// interrupted. Graceful shutdown is handled via OS signal interception
// (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"weatherwager/internal/api/handlers"
	"weatherwager/internal/config"
	"weatherwager/internal/core"
	"weatherwager/internal/notify"
	"weatherwager/internal/ratelimit"
	"weatherwager/internal/store"
	"weatherwager/internal/wallet"
	"weatherwager/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("weatherwager API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeStore, err := newStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("initializing %s store: %w", cfg.Store.Backend, err)
	}
	defer closeStore()

	limiter := ratelimit.New(kv, ratelimit.PoliciesFromConfig(cfg.RateLimit), logger)
	broadcast := notify.NewBroadcast()
	tokenWallet := wallet.New(kv, cfg.Wallet.InitialTokens, broadcast, logger)
	gateway := weather.NewGateway(weather.Options{
		APIKey:           cfg.Weather.APIKey,
		WeatherBaseURL:   cfg.Weather.WeatherBaseURL,
		NominatimBaseURL: cfg.Weather.NominatimBaseURL,
		ForecastDays:     cfg.Weather.ForecastDays,
		Timeout:          cfg.Weather.RequestTimeout,
		Logger:           logger,
	})

	srv, err := core.NewServer(cfg, limiter, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	weatherHandler := handlers.NewWeatherHandler(gateway, srv, logger)
	orderHandler := handlers.NewOrderHandler(tokenWallet, logger)
	simulationHandler := handlers.NewSimulationHandler(gateway, tokenWallet, logger)
	walletHandler := handlers.NewWalletHandler(tokenWallet)
	rateLimitHandler := handlers.NewRateLimitHandler(limiter)

	srv.MountRoutes(
		weatherHandler.RegisterRoutes,
		orderHandler.RegisterRoutes,
		simulationHandler.RegisterRoutes,
		walletHandler.RegisterRoutes,
		rateLimitHandler.RegisterRoutes,
	)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// newStore builds the configured KV backend. The returned closer releases
// backend resources; it is a no-op for the memory and file backends.
func newStore(ctx context.Context, cfg config.StoreConfig) (store.KV, func(), error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	case "file":
		s, err := store.NewFileStore(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "redis":
		s, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.RedisTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// newLogger builds the process-wide JSON logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
