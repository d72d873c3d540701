package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers string
	KafkaTopic   string

	// API Configuration
	APIPort string
	APIHost string

	// JWT (storefront price gate)
	JWTSecret string

	// Business Central
	TenantID          string
	Environment       string
	ClientID          string
	ClientSecret      string
	CompanyID         string
	APIBaseURL        string
	APIVersion        string
	AuthBaseURL       string
	SyncPageSize      int
	CategoryOverrides string

	// Worker
	StorefrontWebhookURL string

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		DatabaseURL:          getEnv("DATABASE_URL", "sqlite://bcsync.db"),
		KafkaBrokers:         getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "catalog-events"),
		APIPort:              getEnv("API_PORT", "8080"),
		APIHost:              getEnv("API_HOST", "0.0.0.0"),
		JWTSecret:            getEnv("JWT_SECRET", "your-jwt-secret-key-here"),
		TenantID:             getEnv("BC_TENANT_ID", ""),
		Environment:          getEnv("BC_ENVIRONMENT", "production"),
		ClientID:             getEnv("BC_CLIENT_ID", ""),
		ClientSecret:         getEnv("BC_CLIENT_SECRET", ""),
		CompanyID:            getEnv("BC_COMPANY_ID", ""),
		APIBaseURL:           getEnv("BC_API_BASE_URL", "https://api.businesscentral.dynamics.com"),
		APIVersion:           getEnv("BC_API_VERSION", "v2.0"),
		AuthBaseURL:          getEnv("BC_AUTH_BASE_URL", "https://login.microsoftonline.com"),
		SyncPageSize:         getEnvAsInt("SYNC_PAGE_SIZE", 100),
		CategoryOverrides:    getEnv("CATEGORY_OVERRIDES", ""),
		StorefrontWebhookURL: getEnv("STOREFRONT_WEBHOOK_URL", ""),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
