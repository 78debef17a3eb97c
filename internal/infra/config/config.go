package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string
	HTTPAddr      string // e.g. ":8080"; empty disables the HTTP chat API

	SessionStore  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel    string
	Environment string

	CronSpecSessionPurge     string
	FinishedSessionRetention time.Duration

	AcceptNumericReplies   bool
	RepromptUnclearConsent bool
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.TelegramToken == "" && cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("neither TELEGRAM_TOKEN nor HTTP_ADDR is set")
	}

	cfg.SessionStore = strings.ToLower(os.Getenv("SESSION_STORE"))
	if cfg.SessionStore == "" {
		cfg.SessionStore = StoreMemory
	}
	switch cfg.SessionStore {
	case StoreMemory:
	case StorePostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case StoreRedis:
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = "localhost:6379"
		}
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
		if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
			cfg.RedisDB, err = strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q (want memory, postgres or redis)", cfg.SessionStore)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecSessionPurge = os.Getenv("CRON_SPEC_SESSION_PURGE")
	if cfg.CronSpecSessionPurge == "" {
		cfg.CronSpecSessionPurge = "0 * * * *" // Default: hourly
	}

	cfg.FinishedSessionRetention = 24 * time.Hour
	if v := os.Getenv("FINISHED_SESSION_RETENTION"); v != "" {
		cfg.FinishedSessionRetention, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FINISHED_SESSION_RETENTION: %w", err)
		}
		if cfg.FinishedSessionRetention <= 0 {
			return nil, fmt.Errorf("FINISHED_SESSION_RETENTION must be positive, got %s", v)
		}
	}

	if cfg.AcceptNumericReplies, err = boolEnv("ACCEPT_NUMERIC_REPLIES"); err != nil {
		return nil, err
	}
	if cfg.RepromptUnclearConsent, err = boolEnv("REPROMPT_UNCLEAR_CONSENT"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func boolEnv(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
