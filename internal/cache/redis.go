package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/price-feed/internal/config"
	"github.com/rickgao/price-feed/internal/model"
)

const keyPrefix = "market:latest:"

// KV is the subset of Redis commands the cache uses. Satisfied by *redis.Client.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Lookup finds the latest stored record for a symbol.
type Lookup interface {
	LatestBySymbol(ctx context.Context, symbol string) (model.MarketRecord, error)
}

// Connect creates a Redis client and verifies it with a ping.
func Connect(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Symbols caches Lookup results in Redis.
type Symbols struct {
	kv     KV
	source Lookup
	ttl    time.Duration
	logger *slog.Logger
}

// NewSymbols wraps source with a Redis cache.
func NewSymbols(kv KV, source Lookup, ttl time.Duration, logger *slog.Logger) *Symbols {
	if logger == nil {
		logger = slog.Default()
	}
	return &Symbols{
		kv:     kv,
		source: source,
		ttl:    ttl,
		logger: logger,
	}
}

// Key returns the cache key for symbol.
func Key(symbol string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(symbol))
}

// LatestBySymbol returns the cached record for symbol, loading it from the
// source on a miss. Source errors, including not-found, are not cached.
func (s *Symbols) LatestBySymbol(ctx context.Context, symbol string) (model.MarketRecord, error) {
	key := Key(symbol)

	data, err := s.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec model.MarketRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			return rec, nil
		}
		s.logger.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("cache read failed", "key", key, "error", err)
	}

	rec, err := s.source.LatestBySymbol(ctx, symbol)
	if err != nil {
		return model.MarketRecord{}, err
	}

	data, err = json.Marshal(rec)
	if err != nil {
		return rec, nil
	}
	if err := s.kv.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}

	return rec, nil
}
