package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/price-feed/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	// Userinfo escaping, not query escaping: a space must become %20, never '+'.
	userinfo := url.UserPassword(cfg.User, cfg.Password).String()

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	connStr := fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		userinfo,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)

	// libpq semantics: whole seconds, 0 means wait forever.
	if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
		connStr += fmt.Sprintf("&connect_timeout=%d", secs)
	}

	return connStr
}
