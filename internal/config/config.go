package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	Port     string
	LogLevel string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost       string
	RedisPort       string
	CacheTTLSeconds int

	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int

	JWTSecret     string
	TokenTTLHours int

	StripeAPIKey        string
	StripePriceID       string
	StripeWebhookSecret string
	AppBaseURL          string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.Port = getEnvWithDefault("PORT", "8000")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "healthcost_user")
	cfg.DBPassword = getEnvWithDefault("DB_PASSWORD", "healthcost_password")
	cfg.DBName = getEnvWithDefault("DB_NAME", "healthcost_ai")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.RedisHost = getEnvWithDefault("REDIS_HOST", "localhost")
	cfg.RedisPort = getEnvWithDefault("REDIS_PORT", "6379")
	cfg.CacheTTLSeconds = getEnvIntWithDefault("CACHE_TTL_SECONDS", 3600)

	origins := getEnvWithDefault("ALLOWED_ORIGINS",
		"http://localhost:3000,http://localhost:8080,https://healthcost-ai.vercel.app")
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	cfg.RateLimitRPS = getEnvIntWithDefault("RATE_LIMIT_RPS", 10)
	cfg.RateLimitBurst = getEnvIntWithDefault("RATE_LIMIT_BURST", 20)

	cfg.JWTSecret = getEnvWithDefault("JWT_SECRET", "healthcost-demo-secret")
	cfg.TokenTTLHours = getEnvIntWithDefault("TOKEN_TTL_HOURS", 24)

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")
	cfg.StripePriceID = os.Getenv("STRIPE_PREMIUM_PRICE_ID")
	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	cfg.AppBaseURL = getEnvWithDefault("APP_BASE_URL", "http://localhost:3000")

	return &cfg, nil
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
