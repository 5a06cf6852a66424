package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultGeckoURL       = "https://api.coingecko.com/api/v3"
	DefaultGeckoTimeout   = 10 * time.Second
	DefaultRatePerMinute  = 30
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
	DefaultConnectTimeout = 2 * time.Second
	DefaultCurrency       = "usd"
	DefaultStartPage      = 1
	DefaultCompletedDelay = 5 * time.Second
	DefaultEmptyDelay     = 360 * time.Second
	DefaultErrorDelay     = 5 * time.Second
	DefaultFetchTimeout   = time.Minute
	DefaultEmptyPolicy    = "hold"
	DefaultServerHost     = "0.0.0.0"
	DefaultServerPort     = 8000
	DefaultRequestTimeout = 30 * time.Second
	DefaultCacheTTL       = 60 * time.Second
	DefaultMetricsPath    = "/metrics"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

func (c *Config) applyDefaults() {
	// Provider defaults
	if c.Gecko.BaseURL == "" {
		c.Gecko.BaseURL = DefaultGeckoURL
	}
	if c.Gecko.Timeout == 0 {
		c.Gecko.Timeout = DefaultGeckoTimeout
	}
	if c.Gecko.RatePerMinute == 0 {
		c.Gecko.RatePerMinute = DefaultRatePerMinute
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = DefaultConnectTimeout
	}

	// Worker defaults
	if c.Worker.Currency == "" {
		c.Worker.Currency = DefaultCurrency
	}
	if c.Worker.StartPage == 0 {
		c.Worker.StartPage = DefaultStartPage
	}
	if c.Worker.CompletedDelay == 0 {
		c.Worker.CompletedDelay = DefaultCompletedDelay
	}
	if c.Worker.EmptyDelay == 0 {
		c.Worker.EmptyDelay = DefaultEmptyDelay
	}
	if c.Worker.ErrorDelay == 0 {
		c.Worker.ErrorDelay = DefaultErrorDelay
	}
	if c.Worker.FetchTimeout == 0 {
		c.Worker.FetchTimeout = DefaultFetchTimeout
	}
	if c.Worker.EmptyPolicy == "" {
		c.Worker.EmptyPolicy = DefaultEmptyPolicy
	}

	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
