package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer          string // Optional: issuer claim for service tokens (default: crewdir)
	TransportSecret string // Optional: HS256 secret for service tokens; empty disables auth

	DatabaseFile  string // Optional: path to SQLite database file (default: ./directory.db)
	PepperFile    string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	Seed          bool   // Optional: seed built-in roles and the Admin account on startup (default: true)
	AdminPassword string // Optional: initial Admin password; generated when empty

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:          getEnvOrDefault("DIR_ISSUER", "crewdir"),
		TransportSecret: os.Getenv("DIR_TRANSPORT_SECRET"),
		DatabaseFile:    getEnvOrDefault("DIR_DATABASE_FILE", "directory.db"),
		PepperFile:      getEnvOrDefault("DIR_PEPPER_FILE", "pepper"),
		Seed:            getEnvBoolOrDefault("DIR_SEED", true),
		AdminPassword:   os.Getenv("DIR_ADMIN_PASSWORD"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
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

	return defaultValue
}
