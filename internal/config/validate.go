package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/price-feed/internal/gecko"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Gecko.BaseURL == "" {
		return errors.New("gecko.base_url is required")
	}
	if c.Gecko.Timeout < 0 {
		return errors.New("gecko.timeout must be >= 0")
	}
	if c.Gecko.RatePerMinute < 0 {
		return errors.New("gecko.rate_per_minute must be >= 0")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if err := c.Worker.validate(); err != nil {
		return err
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must be >= 0")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level %q is invalid", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (w *WorkerConfig) validate() error {
	if _, err := gecko.ParseCurrency(w.Currency); err != nil {
		return fmt.Errorf("worker.currency: %w", err)
	}
	if w.StartPage < 1 {
		return errors.New("worker.start_page must be >= 1")
	}
	if w.CompletedDelay < 0 || w.EmptyDelay < 0 || w.ErrorDelay < 0 {
		return errors.New("worker delays must be >= 0")
	}
	if w.FetchTimeout < 0 {
		return fmt.Errorf("worker.fetch_timeout must be >= 0, got %v", w.FetchTimeout)
	}
	if w.EmptyPolicy != "hold" && w.EmptyPolicy != "rewind" {
		return fmt.Errorf("worker.empty_policy must be hold or rewind, got %q", w.EmptyPolicy)
	}
	return nil
}
