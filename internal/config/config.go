// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database settings.
	DatabaseURL string

	// JWT settings.
	JWTPrivateKeyPath string // Path to Ed25519 private key PEM file.
	JWTPublicKeyPath  string // Path to Ed25519 public key PEM file.
	JWTExpiration     time.Duration

	// Admin bootstrap. OwnerOpenID is promoted to admin on login;
	// AdminAPIKey authenticates the provisioned service account.
	OwnerOpenID string
	AdminAPIKey string

	// OpenAI settings, shared by the embedding and completion providers.
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	EmbeddingModel      string
	EmbeddingDimensions int // Vector dimensions; must match the chosen model's output.
	CompletionModel     string
	CompletionTimeout   time.Duration
	EmbeddingTimeout    time.Duration

	// Qdrant vector store settings. Empty URL disables Qdrant and knowledge
	// search falls back to the Postgres pgvector path.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Rate limiting (in-process token bucket).
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	// Stripe billing settings.
	StripeSecretKey         string
	StripeWebhookSecret     string
	StripePriceIDIndividual string
	StripePriceIDSmallBiz   string
	StripePriceIDLawFirmPro string
	StripePriceIDCorpLegal  string
	CheckoutSuccessURL      string
	CheckoutCancelURL       string

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64 // Maximum request body size in bytes.
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                    envInt("TDAI_PORT", 8080),
		ReadTimeout:             envDuration("TDAI_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:            envDuration("TDAI_WRITE_TIMEOUT", 60*time.Second),
		DatabaseURL:             envStr("DATABASE_URL", ""),
		JWTPrivateKeyPath:       envStr("TDAI_JWT_PRIVATE_KEY", ""),
		JWTPublicKeyPath:        envStr("TDAI_JWT_PUBLIC_KEY", ""),
		JWTExpiration:           envDuration("TDAI_JWT_EXPIRATION", 24*time.Hour),
		OwnerOpenID:             envStr("TDAI_OWNER_OPEN_ID", ""),
		AdminAPIKey:             envStr("TDAI_ADMIN_API_KEY", ""),
		OpenAIAPIKey:            envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:           envStr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:          envStr("TDAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions:     envInt("TDAI_EMBEDDING_DIMENSIONS", 1536),
		CompletionModel:         envStr("TDAI_COMPLETION_MODEL", "gpt-4.1-mini"),
		CompletionTimeout:       envDuration("TDAI_COMPLETION_TIMEOUT", 30*time.Second),
		EmbeddingTimeout:        envDuration("TDAI_EMBEDDING_TIMEOUT", 15*time.Second),
		QdrantURL:               envStr("QDRANT_URL", ""),
		QdrantAPIKey:            envStr("QDRANT_API_KEY", ""),
		QdrantCollection:        envStr("QDRANT_COLLECTION", "tdai_knowledge"),
		OTELEndpoint:            envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:            envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:             envStr("OTEL_SERVICE_NAME", "tdai"),
		RateLimitEnabled:        envBool("TDAI_RATE_LIMIT_ENABLED", true),
		RateLimitRPS:            envFloat("TDAI_RATE_LIMIT_RPS", 5),
		RateLimitBurst:          envInt("TDAI_RATE_LIMIT_BURST", 10),
		StripeSecretKey:         envStr("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:     envStr("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceIDIndividual: envStr("STRIPE_INDIVIDUAL_PRICE_ID", ""),
		StripePriceIDSmallBiz:   envStr("STRIPE_SMALL_BUSINESS_PRICE_ID", ""),
		StripePriceIDLawFirmPro: envStr("STRIPE_LAW_FIRM_PRO_PRICE_ID", ""),
		StripePriceIDCorpLegal:  envStr("STRIPE_CORPORATE_LEGAL_PRICE_ID", ""),
		CheckoutSuccessURL:      envStr("TDAI_CHECKOUT_SUCCESS_URL", "http://localhost:3000/tickets?purchase=success"),
		CheckoutCancelURL:       envStr("TDAI_CHECKOUT_CANCEL_URL", "http://localhost:3000/tickets?purchase=cancelled"),
		LogLevel:                envStr("TDAI_LOG_LEVEL", "info"),
		MaxRequestBodyBytes:     int64(envInt("TDAI_MAX_REQUEST_BODY_BYTES", 1*1024*1024)), // 1 MB default
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("config: TDAI_EMBEDDING_DIMENSIONS must be positive")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: TDAI_MAX_REQUEST_BODY_BYTES must be positive")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
