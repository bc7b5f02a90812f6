package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AuthorityURL   string // Required: base URL of the token issuance authority
	AuthorityToken string // Optional: bearer credential for the authority

	PageOrigin string // Required: this deployment's own origin, e.g. https://grain.example
	APIHost    string // Optional: host substituted for $API_HOST in templates (default: page origin host)

	TokenLifetime time.Duration // Optional: issued token lifetime (default: 5m)

	SessionIssuer    string // Optional: expected iss claim on session tokens
	SessionPublicKey string // Optional: base64 Ed25519 public key; empty disables account sessions

	DatabaseFile string // Optional: SQLite file for handoff records; empty keeps them in memory
	SealKeyPath  string // Optional: path to the token sealing key file

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1m)
}

func LoadConfig() Config {
	return Config{
		AuthorityURL:     os.Getenv("OFFER_AUTHORITY_URL"),
		AuthorityToken:   os.Getenv("OFFER_AUTHORITY_TOKEN"),
		PageOrigin:       os.Getenv("OFFER_PAGE_ORIGIN"),
		APIHost:          os.Getenv("OFFER_API_HOST"),
		TokenLifetime:    getEnvDurationOrDefault("OFFER_TOKEN_LIFETIME", 5*time.Minute),
		SessionIssuer:    os.Getenv("OFFER_SESSION_ISSUER"),
		SessionPublicKey: os.Getenv("OFFER_SESSION_PUBLIC_KEY"),
		DatabaseFile:     os.Getenv("OFFER_DATABASE_FILE"),
		SealKeyPath:      os.Getenv("OFFER_SEAL_KEY_PATH"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
