package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	Addr           string
	AllowedOrigins []string

	LogLevel  string
	LogFormat string

	// memory, postgres, or mongo
	DocstoreDriver string
	DatabaseURL    string
	MongoURI       string
	MongoDatabase  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AssetDir     string
	AssetBaseURL string

	TicketmasterAPIKey string

	JWTSecret string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	driver := envOrDefault("DOCSTORE_DRIVER", "memory")
	cfg := Config{
		Addr:           fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		AllowedOrigins: parseAllowedOrigins(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		DocstoreDriver: driver,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  envOrDefault("MONGO_DATABASE", "dtxent"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AssetDir:     os.Getenv("ASSET_DIR"),
		AssetBaseURL: envOrDefault("ASSET_BASE_URL", "/assets"),

		TicketmasterAPIKey: os.Getenv("TICKETMASTER_API_KEY"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		BootstrapAdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}

	switch driver {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL env var is required for the postgres driver")
		}
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, errors.New("MONGO_URI env var is required for the mongo driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown DOCSTORE_DRIVER %q", driver)
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET env var is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	var origins []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
