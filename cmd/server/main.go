package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/web3-frozen/defiboard/internal/board"
	"github.com/web3-frozen/defiboard/internal/cache"
	"github.com/web3-frozen/defiboard/internal/coin"
	"github.com/web3-frozen/defiboard/internal/config"
	"github.com/web3-frozen/defiboard/internal/ethos"
	"github.com/web3-frozen/defiboard/internal/handler"
	"github.com/web3-frozen/defiboard/internal/hyperliquid"
	"github.com/web3-frozen/defiboard/internal/llama"
	"github.com/web3-frozen/defiboard/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	// Cache store: in-memory by default, Redis when configured so replicas
	// share upstream fetches. Redis being down is not fatal.
	var store cache.Store = cache.NewMemory()
	if cfg.RedisURL != "" {
		rs, err := cache.NewRedis(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory cache", "error", err)
		} else {
			defer rs.Close()
			store = rs
			logger.Info("redis connected for shared cache")
		}
	}
	c := cache.New(store, logger)

	// Upstream clients and the aggregation engine
	analytics := llama.New(c, logger)
	reputation := ethos.New(c, logger, cfg.EthosAPIKey)
	coins := coin.New(c, logger, cfg.CoingeckoAPIKey)
	perps := hyperliquid.New()
	engine := board.NewEngine(analytics, reputation, coins, logger)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready())

	r.Route("/api", func(r chi.Router) {
		r.Get("/cards", handler.Cards(engine))
		r.Get("/reputation", handler.Reputation(reputation))
		r.Get("/reviews", handler.Reviews(reputation))
		r.Get("/diagnostics/hyperliquid", handler.HyperliquidDiagnostics(perps))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
