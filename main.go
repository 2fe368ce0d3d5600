package main

import (
	"context"
	"errors"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"velocitysol/config"
	"velocitysol/internal/adapters/alternativeme"
	"velocitysol/internal/adapters/binancestream"
	"velocitysol/internal/adapters/coingecko"
	"velocitysol/internal/adapters/jupiter"
	"velocitysol/internal/adapters/logger"
	"velocitysol/internal/adapters/noop"
	"velocitysol/internal/adapters/sqlite"
	"velocitysol/internal/app"
	"velocitysol/internal/cache"
	"velocitysol/internal/domain"
	"velocitysol/internal/fallback"
	"velocitysol/internal/ports"
	"velocitysol/internal/ratelimit"
	"velocitysol/internal/scheduler"
	"velocitysol/internal/server"
	"velocitysol/internal/strategy"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Shared infrastructure
	dataCache := cache.New(cache.Config{})
	limiter := ratelimit.New(ratelimit.Config{})
	mock := fallback.NewGenerator(fallback.GeneratorConfig{})

	// 4. Upstream adapters
	jupiterClient, err := jupiter.New(jupiter.Config{
		PriceBaseURL: cfg.JupiterPriceBaseURL,
		QuoteBaseURL: cfg.JupiterQuoteBaseURL,
		Timeout:      cfg.HTTPTimeout,
		Logger:       appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Jupiter client: %v", err)
	}
	coingeckoClient, err := coingecko.New(coingecko.Config{
		BaseURL: cfg.CoinGeckoBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize CoinGecko client: %v", err)
	}
	fearGreedClient, err := alternativeme.New(alternativeme.Config{
		BaseURL: cfg.AlternativeBaseURL,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize alternative.me client: %v", err)
	}

	// 5. Application services
	marketData, err := app.NewMarketDataService(app.MarketDataDeps{
		Logger:    appLogger,
		Cache:     dataCache,
		Limiter:   limiter,
		Mock:      mock,
		Jupiter:   jupiterClient,
		Quotes:    jupiterClient,
		CoinGecko: coingeckoClient,
		History:   coingeckoClient,
		Market:    coingeckoClient,
		FearGreed: fearGreedClient,
		Pingers: map[string]ports.Pinger{
			"jupiter":   jupiterClient,
			"coingecko": coingeckoClient,
		},
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize market data service: %v", err)
	}

	scorer, err := strategy.NewScorer(appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize scorer: %v", err)
	}

	// 6. Signal history repository (optional persistence)
	var signalRepo ports.SignalRepository
	if cfg.DBPath != "" {
		repo, rerr := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if rerr != nil {
			log.Fatalf("FATAL: Failed to initialize signal repository: %v", rerr)
		}
		signalRepo = repo
	} else {
		appLogger.Info(ctx, "No DB_PATH configured, signal history disabled")
		signalRepo = noop.NewRepository()
	}
	defer func() {
		if cerr := signalRepo.Close(); cerr != nil {
			appLogger.Error(ctx, cerr, "Error closing signal repository")
		}
	}()

	signals, err := app.NewSignalService(app.SignalDeps{
		Logger:      appLogger,
		MarketData:  marketData,
		Scorer:      scorer,
		Repo:        signalRepo,
		HistoryDays: cfg.SignalHistoryDays,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize signal service: %v", err)
	}

	// 7. Background signal cycle
	sched, err := scheduler.New(ctx, signals, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize scheduler: %v", err)
	}
	if err := sched.Register(cfg.SignalCronSpec); err != nil {
		log.Fatalf("FATAL: Failed to register signal cycle: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// 8. Live price stream feeding the WebSocket hub
	hub := server.NewHub(appLogger)
	defer hub.Close()
	var streamStopCh chan struct{}
	if cfg.StreamEnabled {
		streamer, serr := binancestream.New(binancestream.Config{
			Symbol:               cfg.Symbol,
			Interval:             cfg.StreamInterval,
			Logger:               appLogger,
			ReconnectDelay:       cfg.ReconnectDelay,
			MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		})
		if serr != nil {
			log.Fatalf("FATAL: Failed to initialize price streamer: %v", serr)
		}
		_, streamStopCh, serr = streamer.StreamPrices(ctx,
			func(tick *domain.PriceTick) { hub.Broadcast(tick) },
			func(err error) { appLogger.Warn(ctx, "price stream error", map[string]interface{}{"error": err.Error()}) },
		)
		if serr != nil {
			appLogger.Error(ctx, serr, "Failed to start price stream, continuing without live feed")
		}
	}

	// 9. HTTP server
	srv, err := server.New(server.Config{
		Logger:     appLogger,
		MarketData: marketData,
		Signals:    signals,
		Hub:        hub,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 10. Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLogger.Info(ctx, "Shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err := <-errCh:
		appLogger.Error(ctx, err, "HTTP server failed")
	}

	if streamStopCh != nil {
		select {
		case streamStopCh <- struct{}{}:
		default:
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "HTTP server shutdown failed")
	}
	appLogger.Info(context.Background(), "Shutdown complete")
}
