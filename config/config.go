package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Ledger limits
	MaxTicketsPerEvent   int
	MaxTicketsPerUser    int
	MaxEventNameLength   int
	MaxMetadataCIDLength int

	// Admin
	LedgerAdmin    string
	AdminTokenHash string

	// Rate limiting
	RateLimitWindow time.Duration
	RateLimitBudget int

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
	StatsInterval time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Ledger limits
		MaxTicketsPerEvent:   getEnvAsInt("MAX_TICKETS_PER_EVENT", 1_000_000),
		MaxTicketsPerUser:    getEnvAsInt("MAX_TICKETS_PER_USER", 1000),
		MaxEventNameLength:   getEnvAsInt("MAX_EVENT_NAME_LENGTH", 200),
		MaxMetadataCIDLength: getEnvAsInt("MAX_METADATA_CID_LENGTH", 1000),

		// Admin
		LedgerAdmin:    getEnv("LEDGER_ADMIN", ""),
		AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),

		// Rate limiting
		RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),
		RateLimitBudget: getEnvAsInt("RATE_LIMIT_BUDGET", 60),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
		StatsInterval: getEnvAsDuration("STATS_INTERVAL", "30s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
