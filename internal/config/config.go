package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds settings for both binaries
type Config struct {
	Client struct {
		APIURL    string
		Token     string
		Timeout   time.Duration
		RetryMax  int
		RetryWait time.Duration
	}
	Server struct {
		Port           string
		DatabaseURL    string
		JWTSecret      string
		CORSOrigins    []string
		RateLimitRPS   float64
		RateLimitBurst int
	}
	LogLevel string
}

// Load reads an optional .env file and then the environment.
// Invalid numeric values fall back to their defaults with a warning.
func Load(logger *zap.SugaredLogger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return FromEnv(logger), nil
}

// FromEnv builds a Config from the current environment only
func FromEnv(logger *zap.SugaredLogger) *Config {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cfg := &Config{}

	cfg.Client.APIURL = strings.TrimRight(getEnv("PIXBOARD_API_URL", "http://localhost:8080"), "/")
	cfg.Client.Token = getEnv("PIXBOARD_TOKEN", "")
	cfg.Client.Timeout = getDuration(logger, "PIXBOARD_HTTP_TIMEOUT", 10*time.Second)
	cfg.Client.RetryMax = getInt(logger, "PIXBOARD_RETRY_MAX", 2)
	cfg.Client.RetryWait = getDuration(logger, "PIXBOARD_RETRY_WAIT", 200*time.Millisecond)

	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.Server.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.Server.CORSOrigins = splitList(getEnv("CORS_ORIGINS", ""))
	cfg.Server.RateLimitRPS = getFloat(logger, "RATE_LIMIT_RPS", 20)
	cfg.Server.RateLimitBurst = getInt(logger, "RATE_LIMIT_BURST", 40)

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	return cfg
}

// NewLogger builds the process logger for LogLevel
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.LogLevel == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// getEnv returns the variable's value, or fallback when it is unset
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(logger *zap.SugaredLogger, key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		logger.Warnw("invalid integer setting, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return n
}

func getFloat(logger *zap.SugaredLogger, key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		logger.Warnw("invalid number setting, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return f
}

func getDuration(logger *zap.SugaredLogger, key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warnw("invalid duration setting, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
