package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	Broker   BrokerConfig
	Funds    FundsConfig
	Market   MarketConfig
	Order    OrderConfig
	Log      LogConfig
	CORS     CORSConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// StoreConfig selects and configures the key/value store backing the funds ledger.
type StoreConfig struct {
	Backend       string // "sqlite" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EncryptionKey string // optional fernet key, encrypts persisted ledger values
}

// BrokerConfig holds the location of the external brokerage backend.
type BrokerConfig struct {
	BaseURL string
	Timeout time.Duration
}

// FundsConfig holds funds ledger defaults.
type FundsConfig struct {
	OpeningBalance float64
}

// MarketConfig controls the background refresh of cached market snapshots.
type MarketConfig struct {
	RefreshSchedule string
}

// OrderConfig holds order submission settings.
type OrderConfig struct {
	ConfirmDelay time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Pretty bool
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/dashboard.db"),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getEnv("STORE_BACKEND", "sqlite")),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			EncryptionKey: getEnv("STORE_ENCRYPTION_KEY", ""),
		},
		Broker: BrokerConfig{
			BaseURL: strings.TrimRight(getEnv("BROKER_BASE_URL", "http://localhost:3002"), "/"),
		},
		Market: MarketConfig{
			RefreshSchedule: getEnv("MARKET_REFRESH_SCHEDULE", "@every 30s"),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
	}

	var err error
	if config.Store.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if config.Broker.Timeout, err = time.ParseDuration(getEnv("BROKER_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid BROKER_TIMEOUT: %w", err)
	}
	if config.Funds.OpeningBalance, err = strconv.ParseFloat(getEnv("FUNDS_OPENING_BALANCE", "50000"), 64); err != nil {
		return nil, fmt.Errorf("invalid FUNDS_OPENING_BALANCE: %w", err)
	}
	if config.Funds.OpeningBalance < 0 {
		return nil, fmt.Errorf("invalid FUNDS_OPENING_BALANCE: must not be negative")
	}
	if config.Order.ConfirmDelay, err = time.ParseDuration(getEnv("ORDER_CONFIRM_DELAY", "500ms")); err != nil {
		return nil, fmt.Errorf("invalid ORDER_CONFIRM_DELAY: %w", err)
	}
	if config.Log.Pretty, err = strconv.ParseBool(getEnv("LOG_PRETTY", "false")); err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	switch config.Store.Backend {
	case "sqlite", "redis":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", config.Store.Backend)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
