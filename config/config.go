package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"velocitysol/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	Port            int
	ShutdownTimeout time.Duration

	// Upstream endpoints. Empty values select each provider's production URL.
	JupiterPriceBaseURL string
	JupiterQuoteBaseURL string
	CoinGeckoBaseURL    string
	AlternativeBaseURL  string
	HTTPTimeout         time.Duration

	// Live price stream
	StreamEnabled        bool
	Symbol               string
	StreamInterval       string
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	// Periodic signal cycle
	SignalCronSpec   string
	SignalHistoryDays int

	// Database. Empty disables persistence (signals are discarded).
	DBPath string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	cfg.Port = getEnvAsInt("PORT", 3001)
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}

	shutdownSeconds := getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 10)
	if shutdownSeconds <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	cfg.ShutdownTimeout = time.Duration(shutdownSeconds) * time.Second

	cfg.JupiterPriceBaseURL = getEnv("JUPITER_PRICE_BASE_URL", "")
	cfg.JupiterQuoteBaseURL = getEnv("JUPITER_QUOTE_BASE_URL", "")
	cfg.CoinGeckoBaseURL = getEnv("COINGECKO_BASE_URL", "")
	cfg.AlternativeBaseURL = getEnv("ALTERNATIVE_ME_BASE_URL", "")

	httpTimeoutSeconds := getEnvAsInt("HTTP_TIMEOUT_SECONDS", 15)
	if httpTimeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(httpTimeoutSeconds) * time.Second

	cfg.StreamEnabled = getEnvAsBool("STREAM_ENABLED", true)
	cfg.Symbol = getEnv("SYMBOL", "SOLUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	cfg.StreamInterval = getEnv("STREAM_INTERVAL", "1m")

	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 1)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 5)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	cfg.SignalCronSpec = getEnv("SIGNAL_CRON", "@every 5m")
	cfg.SignalHistoryDays = getEnvAsInt("SIGNAL_HISTORY_DAYS", 50)
	if cfg.SignalHistoryDays <= 0 {
		errs = append(errs, "SIGNAL_HISTORY_DAYS must be positive")
	}

	cfg.DBPath = getEnv("DB_PATH", "")

	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
