package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MinJWTSecretLength はHS256署名鍵として受け付ける最小バイト数。
const MinJWTSecretLength = 32

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Token
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration

	// Google（空の場合はGoogleログインを無効にする）
	GoogleClientID string

	// Password
	BcryptCost int

	// Rate Limit（req/min）
	RateLimitGeneral  int
	RateLimitCheckout int

	// Catalog
	ProductQueryLimit int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength)
	}

	// Optional fields with defaults
	cfg.JWTIssuer = getEnvString("JWT_ISSUER", "quickcommerce")
	cfg.JWTAudience = getEnvString("JWT_AUDIENCE", "quickcommerce-web")
	cfg.JWTTTL = getEnvDuration("JWT_TTL", 2*time.Hour)
	cfg.GoogleClientID = getEnvString("GOOGLE_CLIENT_ID", "")
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCheckout = getEnvInt("RATE_LIMIT_CHECKOUT", 10)
	cfg.ProductQueryLimit = getEnvInt("PRODUCT_QUERY_LIMIT", 50)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive: %v", cfg.JWTTTL)
	}
	if cfg.RateLimitGeneral <= 0 || cfg.RateLimitCheckout <= 0 {
		return nil, fmt.Errorf("rate limits must be positive: general=%d checkout=%d",
			cfg.RateLimitGeneral, cfg.RateLimitCheckout)
	}
	if cfg.ProductQueryLimit <= 0 {
		return nil, fmt.Errorf("PRODUCT_QUERY_LIMIT must be positive: %d", cfg.ProductQueryLimit)
	}

	return cfg, nil
}

// GoogleLoginEnabled はGoogleログインが設定されているかを返す。
func (c *Config) GoogleLoginEnabled() bool {
	return c.GoogleClientID != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
