package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort           = 8080
	defaultDebounceMS     = 1000
	defaultSuppressWindow = 3000
	defaultInviteTTLDays  = 14
)

type Config struct {
	// database path
	DatabasePath string

	// HTTP server settings
	Port          int
	AllowedOrigin string

	// auth
	JWTSecret string

	// sync engine tuning
	Debounce       time.Duration // coalescing delay before a change event triggers a fetch
	SuppressWindow time.Duration // echo window after a session's own class mutations

	// invite token lifetime in days
	InviteTTLDays int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	cfg := Config{
		DatabasePath:   getEnvOrDefault("DATABASE_PATH", "yearbook.db"),
		Port:           getEnvIntOrDefault("PORT", defaultPort),
		AllowedOrigin:  getEnvOrDefault("ALLOWED_ORIGIN", "http://localhost:5173"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		Debounce:       time.Duration(getEnvIntOrDefault("DEBOUNCE_MS", defaultDebounceMS)) * time.Millisecond,
		SuppressWindow: time.Duration(getEnvIntOrDefault("SUPPRESS_WINDOW_MS", defaultSuppressWindow)) * time.Millisecond,
		InviteTTLDays:  getEnvIntOrDefault("INVITE_TTL_DAYS", defaultInviteTTLDays),
	}
	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is not set; using an insecure development secret")
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}
	return cfg, nil
}
