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
	RedisURL    string
	SnapshotKey string

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUserID       string
	NotifyRatePerSec   float64

	// Queue configuration
	ActivitiesFile      string
	ElapsedTickInterval time.Duration

	// Operator access
	OperatorPassphrase string
	OperatorSessionTTL time.Duration

	// Snapshot persistence
	PersistMaxTries    int
	PersistMaxElapsed  time.Duration
	PersistResyncEvery time.Duration

	// Ticket issuance throttling per client IP
	TicketRateLimit  int
	TicketRateWindow time.Duration

	// Monitoring
	EnableMetrics     bool
	HealthLogInterval time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		SnapshotKey: getEnv("SNAPSHOT_KEY", "allQueuesData"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "queue-server"),
		NotifyRatePerSec:   getEnvAsFloat("NOTIFY_RATE_PER_SECOND", 10),

		// Queue
		ActivitiesFile:      getEnv("ACTIVITIES_FILE", ""),
		ElapsedTickInterval: getEnvAsDuration("ELAPSED_TICK_INTERVAL", "1s"),

		// Operator
		OperatorPassphrase: getEnv("OPERATOR_PASSPHRASE", ""),
		OperatorSessionTTL: getEnvAsDuration("OPERATOR_SESSION_TTL", "8h"),

		// Persistence
		PersistMaxTries:    getEnvAsInt("PERSIST_MAX_TRIES", 5),
		PersistMaxElapsed:  getEnvAsDuration("PERSIST_MAX_ELAPSED", "30s"),
		PersistResyncEvery: getEnvAsDuration("PERSIST_RESYNC_INTERVAL", "1m"),

		// Rate limiting
		TicketRateLimit:  getEnvAsInt("TICKET_RATE_LIMIT", 10),
		TicketRateWindow: getEnvAsDuration("TICKET_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics:     getEnvAsBool("ENABLE_METRICS", true),
		HealthLogInterval: getEnvAsDuration("HEALTH_LOG_INTERVAL", "1m"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
	// If parsing fails, fall back to the default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
