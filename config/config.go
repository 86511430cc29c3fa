package config

import (
	"os"
	"strconv"
	"time"

	"eventpass/internal/services/payhere"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PayHere gateway configuration
	PayHere payhere.Config

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUUID         string

	// Catalog cache configuration
	CatalogCacheTTL time.Duration

	// Pending order cleanup
	PendingOrderTTL time.Duration
	ReaperInterval  time.Duration

	// Rate limiting
	CheckoutRateLimit int

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
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

		// PayHere
		PayHere: payhere.Config{
			MerchantID:     getEnv("PAYHERE_MERCHANT_ID", ""),
			MerchantSecret: getEnv("PAYHERE_MERCHANT_SECRET", ""),
			Sandbox:        getEnvAsBool("PAYHERE_SANDBOX", true),
			Currency:       getEnv("PAYHERE_CURRENCY", "LKR"),
			ReturnURL:      getEnv("PAYHERE_RETURN_URL", "http://localhost:3000/payment/return"),
			CancelURL:      getEnv("PAYHERE_CANCEL_URL", "http://localhost:3000/payment/cancel"),
			NotifyURL:      getEnv("PAYHERE_NOTIFY_URL", "http://localhost:8090/api/v1/payments/payhere/notify"),
		},

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUUID:         getEnv("PUBNUB_UUID", "eventpass-server"),

		// Catalog cache
		CatalogCacheTTL: getEnvAsDuration("CATALOG_CACHE_TTL", "30s"),

		// Pending order cleanup
		PendingOrderTTL: getEnvAsDuration("PENDING_ORDER_TTL", "30m"),
		ReaperInterval:  getEnvAsDuration("REAPER_INTERVAL", "5m"),

		// Rate limiting
		CheckoutRateLimit: getEnvAsInt("CHECKOUT_RATE_LIMIT", 30),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
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
