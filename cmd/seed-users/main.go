package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/clinicdesk/internal/dal"
	"stealthcompany.com/clinicdesk/pkg/zerolog_config"
)

// seed-users writes staff profiles into the users collection so verified
// identities resolve to a role. Usage:
//
//	seed-users uid:role[:name] ...
//
// e.g. seed-users abc123:doctor:"Dr Mehta" def456:receptionist
func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Info().Msg("No .env file found, assuming environment variables are set")
	}

	zerolog_config.SetAppPrefix("clinicdesk-seed")
	zerolog_config.StartupWithEnv(
		getEnvOrDefault("ELASTICSEARCH_URL", "http://elasticsearch:9200"),
		"logs",
		getEnvOrDefault("API_LOG_LEVEL", "info"),
	)

	if len(os.Args) < 2 {
		log.Fatal().Msg("Usage: seed-users uid:role[:name] ...")
	}

	conn, err := dal.GetConnectionWithRetry()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Couchbase")
	}
	defer conn.Close()

	users := dal.NewUserModel(dal.NewCouchbaseStore())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, arg := range os.Args[1:] {
		parts := strings.SplitN(arg, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			log.Fatal().Str("arg", arg).Msg("Expected uid:role[:name]")
		}
		profile := dal.UserProfile{
			UID:       parts[0],
			Role:      parts[1],
			CreatedAt: time.Now().UTC(),
		}
		if len(parts) == 3 {
			profile.Name = parts[2]
		}
		if err := users.Save(ctx, profile); err != nil {
			log.Fatal().Err(err).Str("uid", profile.UID).Msg("Failed to save staff profile")
		}
		log.Info().
			Str("uid", profile.UID).
			Str("role", profile.Role).
			Msg("Staff profile saved")
	}

	log.Info().Msg("Seeding complete")
}

// Helper function to get environment variable with default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
