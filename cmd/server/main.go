package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akisma/CostFX-sub001/agent"
	"github.com/akisma/CostFX-sub001/api"
	"github.com/akisma/CostFX-sub001/config"
	"github.com/akisma/CostFX-sub001/metrics"
	"github.com/akisma/CostFX-sub001/retry"
	"github.com/akisma/CostFX-sub001/service"
	"github.com/akisma/CostFX-sub001/square"
	"github.com/akisma/CostFX-sub001/store"
)

func main() {
	cfg := config.Load()
	logger := agent.NewDefaultLogger()

	var st store.Store
	if cfg.RedisAddr != "" {
		redisStore, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			logger.Error("Failed to connect to Redis", agent.Field{Key: "error", Value: err})
			os.Exit(1)
		}
		st = redisStore
		logger.Info("Connected to Redis", agent.Field{Key: "addr", Value: cfg.RedisAddr})
	} else {
		st = store.NewMemoryStore()
		logger.Info("Using in-memory store")
	}
	defer st.Close()

	var posClient *square.Client
	if cfg.SquareAccessToken != "" {
		posClient = square.NewClient(square.Config{
			BaseURL:     cfg.SquareBaseURL,
			AccessToken: cfg.SquareAccessToken,
			Logger:      logger,
			Policy: retry.New(retry.Options{
				MaxRetries: cfg.RetryMaxRetries,
				BaseDelay:  cfg.RetryBaseDelay,
				MaxDelay:   cfg.RetryMaxDelay,
				Jitter:     cfg.RetryJitter,
				Logger:     logger,
			}),
		})
		logger.Info("Square POS client configured")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(service.Config{
		Logger:     logger,
		Store:      st,
		Square:     posClient,
		Observer:   metrics.New(registry),
		InsightTTL: cfg.InsightTTL,
	})

	handler := api.NewHandler(svc, logger)
	router := api.NewRouter(handler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", agent.Field{Key: "port", Value: cfg.ServerPort})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", agent.Field{Key: "error", Value: err})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown error", agent.Field{Key: "error", Value: err})
	}

	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Service shutdown error", agent.Field{Key: "error", Value: err})
	}

	logger.Info("Server stopped")
}
