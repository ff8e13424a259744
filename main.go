package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/clinicdesk/internal/api"
	"stealthcompany.com/clinicdesk/internal/dal"
	"stealthcompany.com/clinicdesk/internal/metrics"
	"stealthcompany.com/clinicdesk/pkg/zerolog_config"
)

func main() {
	// Load .env file if present; otherwise assume environment variables are set
	if err := godotenv.Load(".env"); err != nil {
		log.Info().Msg("No .env file found, assuming environment variables are set")
	}

	// Get configuration from environment
	elasticsearchURL := getEnvOrDefault("ELASTICSEARCH_URL", "http://elasticsearch:9200")
	apiPort := getEnvOrDefault("API_PORT", "8080")
	apiLogLevel := getEnvOrDefault("API_LOG_LEVEL", "info")

	// Set app prefix
	zerolog_config.SetAppPrefix("clinicdesk")

	// Initialize zerolog with Elasticsearch
	zerolog_config.StartupWithEnv(elasticsearchURL, "logs", apiLogLevel)

	log.Info().Msg("Starting clinicdesk service")

	// Start system metrics collection (gated by ENABLE_SYSTEM_METRICS)
	metrics.StartSystemMetricsCollection(15 * time.Second)

	store, cleanup, err := buildStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to document store")
	}

	server := api.NewServer(store)
	router := server.SetupRoutes()

	httpServer := &http.Server{
		Addr:         ":" + apiPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Listen for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", apiPort).
			Msg("Server starting")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().
				Err(err).
				Msg("Failed to start server")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	cleanup()
	log.Info().Msg("Service shutdown complete")
}

// buildStore selects the store backend. The in-memory store exists for local
// development; everything real runs on Couchbase.
func buildStore() (dal.Store, func(), error) {
	if os.Getenv("STORE_BACKEND") == "memory" {
		log.Warn().Msg("Using in-memory store; data will not survive a restart")
		return dal.NewMemoryStore(), func() {}, nil
	}

	// Establish the first pooled connection up front so a misconfigured
	// cluster fails the boot instead of the first request.
	conn, err := dal.GetConnectionWithRetry()
	if err != nil {
		return nil, nil, err
	}
	dal.ReturnConnection(conn)

	cleanup := func() {
		log.Info().Msg("Closing database connections...")
		if conn, err := dal.GetConnOrGenConn(); err == nil {
			if err := conn.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close database connection")
			} else {
				log.Info().Msg("Database connection closed")
			}
		}
	}
	return dal.NewCouchbaseStore(), cleanup, nil
}

// Helper function to get environment variable with default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
