// geckoprobe fetches one market page from the provider and prints a summary.
// Usage: go run ./cmd/geckoprobe --currency eur --page 2
//
// Provider settings come from the same config files as pricefeed. Set
// COINGECKO_API_KEY (referenced from the YAML) to send an API key.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/price-feed/internal/config"
	"github.com/rickgao/price-feed/internal/gecko"
	"github.com/rickgao/price-feed/internal/version"
)

func main() {
	configDir := flag.String("config-dir", "configs", "directory holding base.yaml and <env>.yaml")
	currency := flag.String("currency", "", "vs-currency to fetch (default: worker.currency)")
	page := flag.Int("page", 1, "page index to fetch")
	limit := flag.Int("limit", 10, "number of records to print")
	verbose := flag.Bool("verbose", false, "print full record JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	env, err := config.ParseEnvironment(os.Getenv("APP_ENVIRONMENT"))
	if err != nil {
		logger.Error("invalid environment", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadWithDefaults(config.Files(*configDir, env)...)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *currency == "" {
		*currency = cfg.Worker.Currency
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	client := gecko.NewClient(cfg.Gecko.BaseURL,
		gecko.WithLogger(logger),
		gecko.WithTimeout(cfg.Gecko.Timeout),
		gecko.WithUserAgent(version.UserAgent()),
		gecko.WithAPIKey(cfg.Gecko.APIKey),
		gecko.WithAPIKeyHeader(cfg.Gecko.APIKeyHeader),
	)

	start := time.Now()
	entries, err := client.FetchPage(ctx, *currency, *page)
	if err != nil {
		logger.Error("fetch failed", "currency", *currency, "page", *page, "error", err)
		os.Exit(1)
	}

	fmt.Printf("currency=%s page=%d entries=%d present=%d absent=%d took=%s\n",
		*currency, *page, len(entries), entries.PresentCount(),
		len(entries)-entries.PresentCount(), time.Since(start).Round(time.Millisecond))

	printed := 0
	for i, entry := range entries {
		if printed >= *limit {
			break
		}
		rec, ok := entry.Get()
		if !ok {
			fmt.Printf("[%3d] null\n", i)
			printed++
			continue
		}

		if *verbose {
			data, _ := json.MarshalIndent(rec, "", "  ")
			fmt.Printf("[%3d] %s\n", i, data)
		} else {
			fmt.Printf("[%3d] id=%s symbol=%s rank=%s price=%s updated=%s\n",
				i, str(rec.ID), str(rec.Symbol), num(rec.MarketCapRank), num(rec.CurrentPrice), ts(rec.LastUpdated))
		}
		printed++
	}
}

func str(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func num[T int32 | float64](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func ts(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
