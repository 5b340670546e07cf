package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data provider
	Provider ProviderConfig

	// Quantitative engine defaults
	Engine EngineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ProviderConfig holds market data provider configuration.
type ProviderConfig struct {
	BaseURL         string
	QuoteURL        string
	BenchmarkSymbol string // benchmark index series (beta, correlation, regime)
	VolIndexSymbol  string // volatility index series (VIX lookups)
	RatePerSecond   float64
	Burst           int
}

// EngineConfig holds the recognized quantitative engine options.
type EngineConfig struct {
	WindowSize            int
	UncertaintyIterations int
	Horizon               int
	BuyThreshold          float64
	SellThreshold         float64
	MinConfidence         float64
	InitialCapital        float64
	TransactionCost       float64
	MinQualityScore       float64
	Architectures         []string
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Provider: ProviderConfig{
			BaseURL:         getEnv("PROVIDER_BASE_URL", "https://stooq.com/q/d/l/"),
			QuoteURL:        getEnv("PROVIDER_QUOTE_URL", "https://stooq.com/q/"),
			BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "^spx"),
			VolIndexSymbol:  getEnv("VOL_INDEX_SYMBOL", "^vix"),
			RatePerSecond:   getEnvAsFloat("PROVIDER_RATE_PER_SECOND", 2.0),
			Burst:           getEnvAsInt("PROVIDER_BURST", 4),
		},

		Engine: EngineConfig{
			WindowSize:            getEnvAsInt("WINDOW_SIZE", 30),
			UncertaintyIterations: getEnvAsInt("UNCERTAINTY_ITERATIONS", 30),
			Horizon:               getEnvAsInt("FORECAST_HORIZON", 5),
			BuyThreshold:          getEnvAsFloat("BUY_THRESHOLD", 0.02),
			SellThreshold:         getEnvAsFloat("SELL_THRESHOLD", -0.02),
			MinConfidence:         getEnvAsFloat("MIN_CONFIDENCE", 0.6),
			InitialCapital:        getEnvAsFloat("INITIAL_CAPITAL", 10_000),
			TransactionCost:       getEnvAsFloat("TRANSACTION_COST", 0.001),
			MinQualityScore:       getEnvAsFloat("MIN_QUALITY_SCORE", 60),
			Architectures:         getEnvAsList("ENSEMBLE_ARCHITECTURES", "drift,meanrev,momentum"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Engine.WindowSize < 2 {
		return fmt.Errorf("WINDOW_SIZE must be at least 2")
	}

	if c.Engine.UncertaintyIterations < 1 {
		return fmt.Errorf("UNCERTAINTY_ITERATIONS must be at least 1")
	}

	if c.Engine.BuyThreshold <= c.Engine.SellThreshold {
		return fmt.Errorf("BUY_THRESHOLD must exceed SELL_THRESHOLD")
	}

	if len(c.Engine.Architectures) == 0 {
		return fmt.Errorf("ENSEMBLE_ARCHITECTURES must list at least one variant")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}
