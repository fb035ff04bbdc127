package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config - конфигурация сервера из окружения
type Config struct {
	Address       string
	DBPath        string
	WebDir        string
	CookieMaxAge  time.Duration
	SecureCookies bool
	SeedOnStart   bool

	BacktestDelay time.Duration
	AlertInterval time.Duration
	RefreshDelay  time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load читает .env (если есть) и собирает конфигурацию с дефолтами
func Load(logger *slog.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file, using environment")
	}

	return &Config{
		Address:       getEnv("ADDRESS", ":8080"),
		DBPath:        getEnv("DB_PATH", "quantdash.db"),
		WebDir:        getEnv("WEB_DIR", "./web"),
		CookieMaxAge:  getDuration(logger, "COOKIE_MAX_AGE", 7*24*time.Hour),
		SecureCookies: getBool("SECURE_COOKIES", false),
		SeedOnStart:   getBool("SEED_ON_START", false),
		BacktestDelay: getDuration(logger, "BACKTEST_DELAY", 3*time.Second),
		AlertInterval: getDuration(logger, "ALERT_INTERVAL", time.Minute),
		RefreshDelay:  getDuration(logger, "REFRESH_DELAY", time.Second),
		ReadTimeout:   getDuration(logger, "READ_TIMEOUT", 15*time.Second),
		WriteTimeout:  getDuration(logger, "WRITE_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}

	return parsed
}

func getDuration(logger *slog.Logger, key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("⚠️ Invalid duration, using default", "key", key, "value", value)
		return fallback
	}

	return parsed
}
