// Package config loads server configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // CHECKIN_TIMEZONE must resolve on minimal images

	"github.com/joho/godotenv"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Config holds every tunable the server reads at startup.
type Config struct {
	Addr       string
	DBPath     string
	StaticPath string

	JWTSecret string
	TokenTTL  time.Duration

	// RedisAddr enables shared rate limiting, distributed locks and the
	// realtime bridge. Empty keeps all three in-process.
	RedisAddr string

	LookupRateLimit  int
	LookupRateWindow time.Duration

	MoyasarSecretKey     string
	MoyasarWebhookSecret string
	MoyasarBaseURL       string

	ReceiptBucket         string
	ReceiptDir            string
	GCSCredentialsJSON    string
	VisionCredentialsJSON string

	PhoneRegion     string
	CheckinTimezone string
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:                  getEnv("ADDR", ":8080"),
		DBPath:                getEnv("DB_PATH", "./data/diviso.db"),
		StaticPath:            getEnv("STATIC_PATH", ""),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RedisAddr:             os.Getenv("REDIS_ADDRESS"),
		MoyasarSecretKey:      os.Getenv("MOYASAR_SECRET_KEY"),
		MoyasarWebhookSecret:  os.Getenv("MOYASAR_WEBHOOK_SECRET"),
		MoyasarBaseURL:        getEnv("MOYASAR_BASE_URL", "https://api.moyasar.com"),
		ReceiptBucket:         os.Getenv("RECEIPT_BUCKET"),
		ReceiptDir:            getEnv("RECEIPT_DIR", "./data/receipts"),
		GCSCredentialsJSON:    os.Getenv("GCS_CREDENTIALS_JSON"),
		VisionCredentialsJSON: os.Getenv("VISION_CREDENTIALS_JSON"),
		PhoneRegion:           getEnv("PHONE_REGION", "SA"),
		CheckinTimezone:       getEnv("CHECKIN_TIMEZONE", "Asia/Riyadh"),
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.LookupRateLimit, err = getInt("LOOKUP_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.LookupRateWindow, err = getDuration("LOOKUP_RATE_WINDOW", 60*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.LookupRateLimit <= 0 {
		return fmt.Errorf("LOOKUP_RATE_LIMIT must be positive, got %d", c.LookupRateLimit)
	}
	if c.LookupRateWindow <= 0 {
		return fmt.Errorf("LOOKUP_RATE_WINDOW must be positive, got %s", c.LookupRateWindow)
	}
	if _, err := time.LoadLocation(c.CheckinTimezone); err != nil {
		return fmt.Errorf("invalid CHECKIN_TIMEZONE %q: %w", c.CheckinTimezone, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
