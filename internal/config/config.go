package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Shopify app credentials (session-token verification + token exchange)
	ShopifyAPIKey    string
	ShopifyAPISecret string
	AppURL           string

	// External AI providers
	OpenAIBaseURL   string
	OpenAIKey       string
	TextModel       string
	ImageAPIBaseURL string
	ImageAPIKey     string
	ImageModel      string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache / session
	ShopCacheTTL    time.Duration
	CredentialTTL   time.Duration
	RefreshInterval time.Duration
	SessionIdleMax  time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ShopifyAPIKey:    getEnv("SHOPIFY_API_KEY", ""),
		ShopifyAPISecret: getEnv("SHOPIFY_API_SECRET", ""),
		AppURL:           getEnv("APP_URL", "http://localhost:8080"),

		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		TextModel:       getEnv("TEXT_MODEL", "gpt-4o-mini"),
		ImageAPIBaseURL: getEnv("IMAGE_API_BASE_URL", "https://api.openai.com"),
		ImageAPIKey:     getEnv("IMAGE_API_KEY", ""),
		ImageModel:      getEnv("IMAGE_MODEL", "gpt-image-1"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 20),

		ShopCacheTTL:    getEnvDuration("SHOP_CACHE_TTL", 5*time.Minute),
		CredentialTTL:   getEnvDuration("CREDENTIAL_TTL", 60*time.Second),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 50*time.Second),
		SessionIdleMax:  getEnvDuration("SESSION_IDLE_MAX", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
