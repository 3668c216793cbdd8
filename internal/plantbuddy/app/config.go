package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BotToken string // Required: Telegram bot token, also keys init data verification

	BaseURL       string        // Optional: public https base URL; enables webhook registration
	WebhookSecret string        // Optional: secret token Telegram echoes on webhook deliveries
	DatabaseFile  string        // Optional: path to SQLite database file (default: ./plantbuddy.db)
	Timezone      string        // Optional: IANA zone for calendar-day math (default: UTC)
	AuthMaxAge    time.Duration // Optional: init data freshness window, 0 disables (default: 10m)
	NeverWatered  string        // Optional: status for unwatered scheduled plants, unknown or due (default: unknown)
	SessionTTL    time.Duration // Optional: session token lifetime (default: 1h)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	ReminderInterval    time.Duration // Reminder sweep interval (default: 30m)
}

func LoadConfig() Config {
	return Config{
		BotToken:      os.Getenv("BOT_TOKEN"),
		BaseURL:       os.Getenv("BASE_URL"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		DatabaseFile:  getEnvOrDefault("DATABASE_FILE", "plantbuddy.db"),
		Timezone:      getEnvOrDefault("TIMEZONE", "UTC"),
		AuthMaxAge:    getEnvDurationOrDefault("AUTH_MAX_AGE", 10*time.Minute),
		NeverWatered:  getEnvOrDefault("NEVER_WATERED_POLICY", "unknown"),
		SessionTTL:    getEnvDurationOrDefault("SESSION_TTL", time.Hour),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		ReminderInterval:    getEnvDurationOrDefault("REMINDER_INTERVAL", 30*time.Minute),
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

	// Accept either a Go duration ("30m", "24h") or plain seconds.
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
