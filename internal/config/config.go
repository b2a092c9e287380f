package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port   string
	AppEnv string // development, production

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Session configuration
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	CookieSecure       bool

	// External OAuth identity (optional)
	OIDCIssuer   string
	OIDCClientID string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		AppEnv:             getEnv("APP_ENV", "development"),
		DBType:             getEnv("DB_TYPE", "mysql"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBDatabase:         getEnv("DB_DATABASE", ""),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:  getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
		AccessTokenTTL:     getEnvAsDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CookieSecure:       getEnv("COOKIE_SECURE", "true") == "true",
		OIDCIssuer:         getEnv("OIDC_ISSUER", ""),
		OIDCClientID:       getEnv("OIDC_CLIENT_ID", ""),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBUser == "" && cfg.DBType != "sqlite" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if cfg.OIDCIssuer != "" && cfg.OIDCClientID == "" {
		return nil, fmt.Errorf("OIDC_CLIENT_ID is required when OIDC_ISSUER is set")
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
