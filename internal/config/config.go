package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int
	DatabasePath    string
	RedisAddr       string // empty disables the debt-list cache
	FrontendOrigin  string
	TurnstileSecret string // empty disables captcha verification
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:      port,
		DatabasePath:    getEnv("DATABASE_PATH", "./mydebts.db"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		FrontendOrigin:  getEnv("FRONTEND_ORIGIN", "http://localhost:4200"),
		TurnstileSecret: getEnv("TURNSTILE_SECRET", ""),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
