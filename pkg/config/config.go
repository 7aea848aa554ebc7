package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	Debug   bool
	Port    string

	// Logging
	LogLevel string
	LogJSON  bool

	// Database
	DatabaseType string
	DatabaseURL  string

	// Authentication
	JWTSecret string

	// Discord API
	DiscordToken   string
	DiscordBaseURL string // Override for tests and proxies; empty means the public API

	// Call pacing (milliseconds). Zero values fall back to built-in defaults.
	PacingIntervalMs int
	PacingBatchSize  int
	PacingBatchPause int
	RetryMaxAttempts int

	// Template catalog
	TemplatesPath string

	// InfluxDB (Time-Series Event Storage)
	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string

	// API rate limiting (requests per minute per client)
	RateLimitPerMinute int
}

var AppConfig *Config

// Load loads configuration from environment
func Load() *Config {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		AppName:      getEnv("APP_NAME", "GuildForge"),
		Debug:        getEnvBool("DEBUG", false),
		Port:         getEnv("PORT", "8000"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		LogJSON:      getEnvBool("LOG_JSON", false),
		DatabaseType: getEnv("DATABASE_TYPE", "postgres"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		JWTSecret:    getEnv("JWT_SECRET", "change-me-in-production-please-use-a-random-string"),

		DiscordToken:   getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordBaseURL: getEnv("DISCORD_BASE_URL", ""),

		PacingIntervalMs: getEnvInt("PACING_INTERVAL_MS", 250),
		PacingBatchSize:  getEnvInt("PACING_BATCH_SIZE", 5),
		PacingBatchPause: getEnvInt("PACING_BATCH_PAUSE_MS", 1500),
		RetryMaxAttempts: getEnvInt("RETRY_MAX_ATTEMPTS", 3),

		TemplatesPath: getEnv("TEMPLATES_PATH", "./templates/guild-templates.json"),

		InfluxDBURL:    getEnv("INFLUXDB_URL", ""),
		InfluxDBToken:  getEnv("INFLUXDB_TOKEN", ""),
		InfluxDBOrg:    getEnv("INFLUXDB_ORG", "guildforge"),
		InfluxDBBucket: getEnv("INFLUXDB_BUCKET", "events"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	AppConfig = config
	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Invalid boolean for %s, using default: %v", key, defaultValue)
			return defaultValue
		}
		return boolVal
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Invalid integer for %s, using default: %d", key, defaultValue)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}
