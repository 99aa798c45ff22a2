// Package config loads the process configuration once at startup into an
// explicit struct that is passed by reference to the components needing it.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	PostgresURL string

	JWTSecret string
	TokenTTL  time.Duration

	UploadDir string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	KafkaBrokers []string
	CORSOrigins  []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getenv("PORT", "8080"),
		Env:                 getenv("APP_ENV", "development"),
		PostgresURL:         os.Getenv("POSTGRES_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TokenTTL:            30 * 24 * time.Hour,
		UploadDir:           getenv("UPLOAD_DIR", "uploads"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            getenv("CURRENCY", "usd"),
	}

	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", ttl, err)
		}
		cfg.TokenTTL = d
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	} else {
		cfg.CORSOrigins = []string{"http://localhost:5173", "http://localhost:5174"}
	}

	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("POSTGRES_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// Dev reports whether error details may be included in responses.
func (c *Config) Dev() bool {
	return c.Env != "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
