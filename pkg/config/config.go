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

// DefaultTickers is the sector ETF basket ranked when a request names none
var DefaultTickers = []string{"XLK", "XLF", "XLV", "XLE", "XLI", "XLY", "XLP", "XLU", "XLRE", "XLB", "XLC"}

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here
type Config struct {
	// Server
	Port           string
	Env            string        // development, staging, production
	RequestTimeout time.Duration // deadline for one API request

	// Redis (shared provider rate limit)
	Redis RedisConfig

	// Session and scoring
	Market  MarketConfig
	Scoring ScoringConfig

	// Market data provider
	DataSource DataSourceConfig

	// Scheduled snapshots
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// MarketConfig describes the exchange session
type MarketConfig struct {
	Timezone           string // IANA zone of the exchange
	ExchangeMIC        string // ISO 10383 code for the holiday calendar
	SessionOpen        string // HH:MM
	SessionCutoff      string // HH:MM, exclusive end of the opening range
	RegularMinutes     float64
	ReferenceSymbol    string // liquid instrument checked by the trading-day resolver
	ResolveMaxAttempts int
	SkipHolidays       bool
}

// ScoringConfig holds score engine and ranking parameters
type ScoringConfig struct {
	MinDailyBars      int
	VolumeLookback    int
	DailyLookbackDays int
	BottomK           int
	DefaultTickers    []string
}

// DataSourceConfig selects and tunes the market data provider
type DataSourceConfig struct {
	Provider       string // yahoo, polygon
	YahooBaseURL   string
	PolygonBaseURL string
	PolygonAPIKey  string
	Workers        int
	FetchTimeout   time.Duration
	RatePerSecond  float64
	CacheTTL       time.Duration // 0 disables the in-process series cache
}

// ScheduleConfig holds cron settings for the snapshot job
type ScheduleConfig struct {
	Enabled      bool
	SnapshotCron string // 6-field cron (seconds first), evaluated in the exchange zone
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only caller of os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", "55s"),

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Market: MarketConfig{
			Timezone:           getEnv("MARKET_TIMEZONE", "America/New_York"),
			ExchangeMIC:        getEnv("EXCHANGE_MIC", "xnys"),
			SessionOpen:        getEnv("SESSION_OPEN", "09:30"),
			SessionCutoff:      getEnv("SESSION_CUTOFF", "09:45"),
			RegularMinutes:     getEnvAsFloat("REGULAR_MINUTES", 390),
			ReferenceSymbol:    getEnv("REFERENCE_SYMBOL", "SPY"),
			ResolveMaxAttempts: getEnvAsInt("RESOLVE_MAX_ATTEMPTS", 10),
			SkipHolidays:       getEnvAsBool("SKIP_HOLIDAYS", false),
		},

		Scoring: ScoringConfig{
			MinDailyBars:      getEnvAsInt("MIN_DAILY_BARS", 21),
			VolumeLookback:    getEnvAsInt("VOLUME_LOOKBACK", 20),
			DailyLookbackDays: getEnvAsInt("DAILY_LOOKBACK_DAYS", 90),
			BottomK:           getEnvAsInt("BOTTOM_K", 4),
			DefaultTickers:    getEnvAsList("DEFAULT_TICKERS", DefaultTickers),
		},

		DataSource: DataSourceConfig{
			Provider:       strings.ToLower(getEnv("DATA_PROVIDER", "yahoo")),
			YahooBaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			PolygonBaseURL: getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),
			PolygonAPIKey:  getEnv("POLYGON_API_KEY", ""),
			Workers:        getEnvAsInt("FETCH_WORKERS", 4),
			FetchTimeout:   getEnvAsDuration("FETCH_TIMEOUT", "20s"),
			RatePerSecond:  getEnvAsFloat("FETCH_RATE_PER_SEC", 5),
			CacheTTL:       getEnvAsDuration("SERIES_CACHE_TTL", "0s"),
		},

		Schedule: ScheduleConfig{
			Enabled:      getEnvAsBool("SCHEDULE_ENABLED", true),
			SnapshotCron: getEnv("SCHEDULE_SNAPSHOT_CRON", "0 46 9 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile reads path into the environment before Load.
// Variables already set in the environment win over the file.
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return Load()
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("MARKET_TIMEZONE %q is not a valid IANA zone: %w", c.Market.Timezone, err)
	}

	open, err := time.Parse("15:04", c.Market.SessionOpen)
	if err != nil {
		return fmt.Errorf("SESSION_OPEN must be HH:MM: %w", err)
	}
	cutoff, err := time.Parse("15:04", c.Market.SessionCutoff)
	if err != nil {
		return fmt.Errorf("SESSION_CUTOFF must be HH:MM: %w", err)
	}
	if !cutoff.After(open) {
		return fmt.Errorf("SESSION_CUTOFF must be after SESSION_OPEN")
	}
	if c.Market.RegularMinutes <= 0 {
		return fmt.Errorf("REGULAR_MINUTES must be positive")
	}
	if c.Market.ResolveMaxAttempts <= 0 {
		return fmt.Errorf("RESOLVE_MAX_ATTEMPTS must be positive")
	}
	if c.Market.ReferenceSymbol == "" {
		return fmt.Errorf("REFERENCE_SYMBOL is required")
	}

	if c.Scoring.VolumeLookback <= 0 || c.Scoring.MinDailyBars <= c.Scoring.VolumeLookback {
		return fmt.Errorf("MIN_DAILY_BARS must exceed VOLUME_LOOKBACK (> 0)")
	}
	if c.Scoring.BottomK <= 0 {
		return fmt.Errorf("BOTTOM_K must be positive")
	}

	switch c.DataSource.Provider {
	case "yahoo":
	case "polygon":
		if c.DataSource.PolygonAPIKey == "" {
			return fmt.Errorf("POLYGON_API_KEY is required when DATA_PROVIDER=polygon")
		}
	default:
		return fmt.Errorf("DATA_PROVIDER must be one of: yahoo, polygon")
	}
	if c.DataSource.Workers <= 0 {
		return fmt.Errorf("FETCH_WORKERS must be positive")
	}
	if c.DataSource.CacheTTL < 0 {
		return fmt.Errorf("SERIES_CACHE_TTL must not be negative")
	}

	return nil
}

// Location returns the exchange time zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Market.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	// Also try relative to executable
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, upper-casing symbols
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
