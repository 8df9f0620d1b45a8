package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marovet/roundsync/internal/adapters/cache"
	"github.com/marovet/roundsync/internal/adapters/database"
	"github.com/marovet/roundsync/internal/api/handlers"
	"github.com/marovet/roundsync/internal/api/routes"
	"github.com/marovet/roundsync/internal/application/services"
	"github.com/marovet/roundsync/internal/infrastructure/clients/postgres"
	"github.com/marovet/roundsync/internal/infrastructure/clients/redis"
	"github.com/marovet/roundsync/internal/infrastructure/observability"
	"github.com/marovet/roundsync/internal/scrape"
	"github.com/marovet/roundsync/pkg/config"
)

func main() {
	// .env is optional; real deployments set environment variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("roundsync-api", os.Getenv("APP_ENV"))
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Redis is optional: without it the API works, it just cannot serve the
	// last report between restarts.
	var reportCache *cache.ReportCache
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Redis client, report cache disabled")
	} else {
		defer redisClient.Close()
		reportCache = cache.NewReportCache(redisClient)
		logger.Info().Msg("Redis client initialized")
	}

	// Initialize adapters and services
	patientAdapter := database.NewPatientAdapter(pgClient)
	patientService := services.NewPatientService(patientAdapter)

	source := scrape.NewProviderSource(&cfg.Provider, *logger)
	syncService := services.NewSyncService(source, cfg.Provider.Category, metrics)
	importService := services.NewImportService(syncService, patientAdapter, reportCache, metrics)

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(importService, syncService, patientService)
	patientHandler := handlers.NewPatientHandler(patientService)

	// Set up router
	router := routes.NewRouter(syncHandler, patientHandler, metrics)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: handler,
		// Import passes drive a whole browser session; the write timeout has
		// to cover login plus extraction.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Provider.LoginTimeout + 2*cfg.Provider.NavTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}
