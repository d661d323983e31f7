package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/coursemarket/internal/api"
	"github.com/dom/coursemarket/internal/api/middleware"
	"github.com/dom/coursemarket/internal/assets"
	"github.com/dom/coursemarket/internal/config"
	"github.com/dom/coursemarket/internal/logger"
	"github.com/dom/coursemarket/internal/metrics"
	"github.com/dom/coursemarket/internal/payment"
	"github.com/dom/coursemarket/internal/repository/postgres"
	"github.com/dom/coursemarket/internal/service"
	"github.com/dom/coursemarket/internal/websocket"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	gormLogger "gorm.io/gorm/logger"
)

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.SetupDefault(os.Stdout, cfg.Environment)

	dbLogLevel := gormLogger.Warn
	if cfg.IsProduction() {
		dbLogLevel = gormLogger.Error
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, dbLogLevel)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	repos := postgres.NewRepositories(db)

	assetHost, err := assets.NewCloudinaryHost(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		log.Error("failed to configure asset host", "error", err)
		os.Exit(1)
	}
	payments := payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	hub := websocket.NewHub()
	go hub.Run()

	services := service.NewServices(repos, cfg, service.Dependencies{
		Assets:    assetHost,
		Payments:  payments,
		Publisher: hub,
		Metrics:   collector,
	})

	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, time.Minute)
	defer authLimiter.Stop()

	router := api.NewRouter(services, hub, cfg, api.Observability{
		Logger:   log,
		Metrics:  collector,
		Gatherer: registry,
	}, authLimiter)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "environment", cfg.Environment, "auth_transport", cfg.AuthTransport)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	hub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("server stopped")
}
