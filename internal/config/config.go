/**
 * Configuration for the flight query worker.
 *
 * Loads configuration from environment variables matching .env.flightquery
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration
	RedisURL string

	// PostgreSQL configuration
	DatabaseURL string

	// Queue configuration
	QueueDriver string // "redis" (LIST consumer) or "asynq"
	QueueName   string

	// Browser session configuration
	WebDriverURL  string
	FlightBaseURL string

	// Retry ceilings. The CAPTCHA and query budgets are deliberately
	// independent: one query submission may burn several recognition
	// attempts before the server even sees an answer.
	CaptchaMaxAttempts   int
	TimestampMaxAttempts int
	QueryMaxAttempts     int

	// Fixed inter-step delays
	CaptchaRetryDelay   time.Duration
	SubmitSettleDelay   time.Duration
	TimestampRetryDelay time.Duration

	// OCR backend preference, highest priority first
	OCRBackends        []string
	ExternalOCRCommand string

	// Debug artifact store
	ArtifactDir         string
	ArtifactEmbedBase64 bool

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:             getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:          getEnvOrThrow("DATABASE_URL"),
		QueueDriver:          getEnvOrDefault("QUEUE_DRIVER", "redis"),
		QueueName:            getEnvOrDefault("QUEUE_NAME", "flightquery:jobs"),
		WebDriverURL:         getEnvOrDefault("WEBDRIVER_URL", "http://localhost:9515"),
		FlightBaseURL:        getEnvOrDefault("FLIGHT_BASE_URL", "https://tool.133.cn/flight/"),
		CaptchaMaxAttempts:   getEnvAsIntOrDefault("CAPTCHA_MAX_ATTEMPTS", 6),
		TimestampMaxAttempts: getEnvAsIntOrDefault("TIMESTAMP_MAX_ATTEMPTS", 3),
		QueryMaxAttempts:     getEnvAsIntOrDefault("QUERY_MAX_ATTEMPTS", 5),
		CaptchaRetryDelay:    getEnvAsMillisOrDefault("CAPTCHA_RETRY_DELAY_MS", 1000),
		SubmitSettleDelay:    getEnvAsMillisOrDefault("SUBMIT_SETTLE_DELAY_MS", 2000),
		TimestampRetryDelay:  getEnvAsMillisOrDefault("TIMESTAMP_RETRY_DELAY_MS", 500),
		OCRBackends:          getEnvAsListOrDefault("OCR_BACKENDS", []string{"tesseract"}),
		ExternalOCRCommand:   getEnvOrDefault("EXTERNAL_OCR_COMMAND", ""),
		ArtifactDir:          getEnvOrDefault("ARTIFACT_DIR", "output/debug_images"),
		ArtifactEmbedBase64:  getEnvAsBoolOrDefault("ARTIFACT_EMBED_BASE64", true),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.QueueDriver != "redis" && c.QueueDriver != "asynq" {
		return fmt.Errorf("QUEUE_DRIVER must be \"redis\" or \"asynq\", got %q", c.QueueDriver)
	}

	if c.CaptchaMaxAttempts < 1 || c.CaptchaMaxAttempts > 20 {
		return fmt.Errorf("CAPTCHA_MAX_ATTEMPTS must be between 1 and 20, got %d", c.CaptchaMaxAttempts)
	}

	if c.TimestampMaxAttempts < 1 || c.TimestampMaxAttempts > 10 {
		return fmt.Errorf("TIMESTAMP_MAX_ATTEMPTS must be between 1 and 10, got %d", c.TimestampMaxAttempts)
	}

	if c.QueryMaxAttempts < 1 || c.QueryMaxAttempts > 20 {
		return fmt.Errorf("QUERY_MAX_ATTEMPTS must be between 1 and 20, got %d", c.QueryMaxAttempts)
	}

	if len(c.OCRBackends) == 0 {
		return fmt.Errorf("OCR_BACKENDS must name at least one backend")
	}

	for _, name := range c.OCRBackends {
		if name != "tesseract" && name != "external" {
			return fmt.Errorf("unknown OCR backend %q (supported: tesseract, external)", name)
		}
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrThrow gets environment variable or panics when missing
func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
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

// getEnvAsMillisOrDefault reads an integer millisecond value as a Duration
func getEnvAsMillisOrDefault(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsIntOrDefault(key, defaultValue)) * time.Millisecond
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsListOrDefault splits a comma-separated environment variable
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
