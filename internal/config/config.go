// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Notify
	NotifyEnabled    bool
	NotifyWebhookURL string
	NotifyTimeout    time.Duration

	// Reminder sweep
	SweepInterval      time.Duration
	SweepMaxConcurrent int

	// Enrichment
	AdviceAPIURL  string
	AdviceTimeout time.Duration

	// Catalog
	CatalogPath string

	// Rate Limit
	RateLimitGeneral  int
	RateLimitMutation int
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

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.NotifyWebhookURL = getEnvString("NOTIFY_WEBHOOK_URL", "")
	cfg.NotifyEnabled = getEnvBool("NOTIFY_ENABLED", cfg.NotifyWebhookURL != "")
	cfg.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	cfg.SweepInterval = getEnvDuration("REMINDER_SWEEP_INTERVAL", 24*time.Hour)
	cfg.SweepMaxConcurrent = getEnvInt("REMINDER_SWEEP_MAX_CONCURRENT", 5)
	cfg.AdviceAPIURL = getEnvString("ADVICE_API_URL", "")
	cfg.AdviceTimeout = getEnvDuration("ADVICE_TIMEOUT", 15*time.Second)
	cfg.CatalogPath = getEnvString("CATALOG_PATH", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitMutation = getEnvInt("RATE_LIMIT_MUTATION", 30)

	// Webhook未設定で通知が有効な構成は起動時に弾く
	if cfg.NotifyEnabled && cfg.NotifyWebhookURL == "" {
		return nil, fmt.Errorf("NOTIFY_ENABLED is true but NOTIFY_WEBHOOK_URL is not set")
	}

	return cfg, nil
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

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
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
