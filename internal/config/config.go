package config

import "time"

// Config is the root configuration for a price feed instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Gecko    GeckoConfig    `yaml:"gecko"`
	Database DBConfig       `yaml:"database"`
	Worker   WorkerConfig   `yaml:"worker"`
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InstanceConfig identifies this instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// GeckoConfig holds market data provider settings.
type GeckoConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	APIKeyHeader  string        `yaml:"api_key_header"` // x-cg-demo-api-key or x-cg-pro-api-key
	Timeout       time.Duration `yaml:"timeout"`
	RatePerMinute int           `yaml:"rate_per_minute"` // 0 disables limiting
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Name           string        `yaml:"name"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	SSLMode        string        `yaml:"ssl_mode"`
	MaxConns       int           `yaml:"max_conns"`
	MinConns       int           `yaml:"min_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Migrate        bool          `yaml:"migrate"` // Create market_data on startup
}

// WorkerConfig holds ingestion worker settings.
type WorkerConfig struct {
	Disabled       bool          `yaml:"disabled"`
	Currency       string        `yaml:"currency"`
	StartPage      int           `yaml:"start_page"`
	CompletedDelay time.Duration `yaml:"completed_delay"`
	EmptyDelay     time.Duration `yaml:"empty_delay"`
	ErrorDelay     time.Duration `yaml:"error_delay"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	EmptyPolicy    string        `yaml:"empty_policy"` // hold or rewind
}

// ServerConfig holds read API settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	PersistLivePages bool          `yaml:"persist_live_pages"`
}

// CacheConfig holds the optional Redis cache for symbol lookups.
// An empty Addr disables caching.
type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
