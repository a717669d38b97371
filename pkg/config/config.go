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

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Store
	Store StoreConfig

	// Redis
	Redis RedisConfig

	// HTTP
	HTTP HTTPConfig

	// Sources
	TWSE   SourceConfig
	TPEx   SourceConfig
	TAIFEX SourceConfig

	// Sync
	Sync SyncConfig

	// Market
	Market MarketConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// StoreConfig selects and locates the persistent store
type StoreConfig struct {
	Driver string // sqlite, postgres
	Path   string // sqlite file (TW_STOCK_DB_PATH)
	URL    string // postgres DATABASE_URL

	// Connection Pool (postgres)
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// HTTPConfig holds shared HTTP client settings
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
}

// SourceConfig holds per-source endpoint settings
type SourceConfig struct {
	BaseURL     string
	MinInterval time.Duration
}

// SyncConfig holds synchronizer settings
type SyncConfig struct {
	QuoteEpoch   time.Time
	IndexEpoch   time.Time
	MaxSpanDays  int
	Workers      int
	HolidaysFile string
	CacheMB      int // in-process report cache bound
}

// MarketConfig holds exchange-local time settings
type MarketConfig struct {
	Location    *time.Location
	CloseCutoff time.Duration // offset from local midnight
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Store
		Store: StoreConfig{
			Driver:          strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
			Path:            getEnv("TW_STOCK_DB_PATH", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		HTTP: HTTPConfig{
			Timeout:    getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("HTTP_MAX_RETRIES", 3),
		},

		// Sources
		TWSE: SourceConfig{
			BaseURL:     getEnv("TWSE_BASE_URL", "https://www.twse.com.tw"),
			MinInterval: getEnvAsDuration("TWSE_MIN_INTERVAL", "5s"),
		},
		TPEx: SourceConfig{
			BaseURL:     getEnv("TPEX_BASE_URL", "https://www.tpex.org.tw"),
			MinInterval: getEnvAsDuration("TPEX_MIN_INTERVAL", "100ms"),
		},
		TAIFEX: SourceConfig{
			BaseURL:     getEnv("TAIFEX_BASE_URL", "https://www.taifex.com.tw"),
			MinInterval: getEnvAsDuration("TAIFEX_MIN_INTERVAL", "1s"),
		},

		Sync: SyncConfig{
			MaxSpanDays:  getEnvAsInt("SYNC_MAX_SPAN_DAYS", 20),
			Workers:      getEnvAsInt("SYNC_WORKERS", 1),
			HolidaysFile: getEnv("HOLIDAYS_FILE", ""),
			CacheMB:      getEnvAsInt("REPORT_CACHE_MB", 256),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	var err error
	if cfg.Sync.QuoteEpoch, err = getEnvAsDate("QUOTE_EPOCH", "2007-04-23"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Sync.IndexEpoch, err = getEnvAsDate("INDEX_EPOCH", "1999-01-01"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	tz := getEnv("MARKET_TIMEZONE", "Asia/Taipei")
	if cfg.Market.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("config validation failed: MARKET_TIMEZONE %q: %w", tz, err)
	}
	if cfg.Market.CloseCutoff, err = parseClock(getEnv("MARKET_CLOSE_CUTOFF", "15:00")); err != nil {
		return nil, fmt.Errorf("config validation failed: MARKET_CLOSE_CUTOFF: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("TW_STOCK_DB_PATH is required when STORE_DRIVER=sqlite")
		}
	case DriverPostgres:
		if c.Store.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: sqlite, postgres")
	}

	// Validate environment
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Sync.Workers < 1 {
		return fmt.Errorf("SYNC_WORKERS must be at least 1")
	}
	if c.Sync.MaxSpanDays < 0 {
		return fmt.Errorf("SYNC_MAX_SPAN_DAYS must not be negative")
	}
	if c.Sync.CacheMB < 1 {
		return fmt.Errorf("REPORT_CACHE_MB must be at least 1")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("HTTP_MAX_RETRIES must not be negative")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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

func getEnvAsDate(key string, defaultValue string) (time.Time, error) {
	value := getEnv(key, defaultValue)
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, value)
	}
	return d, nil
}

// parseClock parses "HH:MM" into an offset from midnight
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
