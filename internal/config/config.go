// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ShopDomain      string
	AccessToken     string
	APIVersion      string
	ListenAddr      string
	DBPath          string
	RefreshInterval time.Duration
	RateLimit       float64
	SecretKey       []byte // 32-byte AES-256 key; nil when credential storage is disabled.
}

// HasShopCredentials returns true when both ShopDomain and AccessToken are
// non-empty. Used by the composition root to decide whether to create a real
// shop client at startup or start with a nil client in the provider.
func (c *Config) HasShopCredentials() bool {
	return c.ShopDomain != "" && c.AccessToken != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. A .env file in the working directory is loaded first when present.
// Shop credentials (SHOPLENS_SHOP_DOMAIN, SHOPLENS_ACCESS_TOKEN) are optional;
// if absent, the app starts disconnected until credentials are provided via
// the panel. Optional variables with defaults: SHOPLENS_API_VERSION (2024-01),
// SHOPLENS_LISTEN_ADDR (127.0.0.1:8080), SHOPLENS_DB_PATH (shoplens.db),
// SHOPLENS_REFRESH_INTERVAL (0 = periodic refresh disabled),
// SHOPLENS_RATE_LIMIT (2 requests/second).
func Load() (*Config, error) {
	// Missing .env is the normal production case; only explicit env matters then.
	_ = godotenv.Load()

	cfg := &Config{
		ShopDomain:  os.Getenv("SHOPLENS_SHOP_DOMAIN"),
		AccessToken: os.Getenv("SHOPLENS_ACCESS_TOKEN"),
		APIVersion:  "2024-01",
		ListenAddr:  "127.0.0.1:8080",
		DBPath:      "shoplens.db",
		RateLimit:   2,
	}

	if v, ok := os.LookupEnv("SHOPLENS_API_VERSION"); ok && v != "" {
		cfg.APIVersion = v
	}
	if v, ok := os.LookupEnv("SHOPLENS_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("SHOPLENS_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("SHOPLENS_REFRESH_INTERVAL"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SHOPLENS_REFRESH_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("SHOPLENS_REFRESH_INTERVAL must not be negative, got %q", v)
		}
		cfg.RefreshInterval = parsed
	}

	if v, ok := os.LookupEnv("SHOPLENS_RATE_LIMIT"); ok && v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("SHOPLENS_RATE_LIMIT has invalid number %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("SHOPLENS_RATE_LIMIT must be positive, got %q", v)
		}
		cfg.RateLimit = parsed
	}

	if v, ok := os.LookupEnv("SHOPLENS_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("SHOPLENS_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("SHOPLENS_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	return cfg, nil
}
