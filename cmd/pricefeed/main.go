// pricefeed runs the market data ingestion worker and the read API.
// Usage: go run ./cmd/pricefeed --config-dir configs
//
// APP_ENVIRONMENT selects the overlay file (local or production) applied on
// top of configs/base.yaml. Variables from --env-file are loaded first so
// they can be referenced as ${VAR} in the YAML.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rickgao/price-feed/internal/cache"
	"github.com/rickgao/price-feed/internal/config"
	"github.com/rickgao/price-feed/internal/database"
	"github.com/rickgao/price-feed/internal/gecko"
	"github.com/rickgao/price-feed/internal/metrics"
	"github.com/rickgao/price-feed/internal/poller"
	"github.com/rickgao/price-feed/internal/server"
	"github.com/rickgao/price-feed/internal/version"
	"github.com/rickgao/price-feed/internal/writer"
)

func main() {
	configDir := flag.String("config-dir", "configs", "directory holding base.yaml and <env>.yaml")
	envFile := flag.String("env-file", ".env", "optional KEY=VALUE file loaded before config")
	flag.Parse()

	if err := run(*configDir, *envFile); err != nil {
		slog.Error("price feed exited", "error", err)
		os.Exit(1)
	}
}

func run(configDir, envFile string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	env, err := config.ParseEnvironment(os.Getenv("APP_ENVIRONMENT"))
	if err != nil {
		return err
	}

	cfg, err := config.LoadAndValidate(config.Files(configDir, env)...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting price feed",
		"version", version.Version,
		"commit", version.Commit,
		"environment", env,
		"instance_id", cfg.Instance.ID,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema ready")
	}

	var (
		m              *metrics.Metrics
		metricsHandler http.Handler
	)
	if !cfg.Metrics.Disabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	client := newGeckoClient(cfg.Gecko, logger)
	store := writer.NewMarketWriter(pool, logger.With("component", "writer"), writer.WithMetrics(m))

	var lookup server.SymbolLookup = database.NewMarketData(pool)
	if cfg.Cache.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Cache)
		if err != nil {
			return fmt.Errorf("connect cache: %w", err)
		}
		defer rdb.Close()

		lookup = cache.NewSymbols(rdb, lookup, cfg.Cache.TTL, logger.With("component", "cache"))
		logger.Info("symbol cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	}

	api := server.New(
		server.Config{
			RequestTimeout:   cfg.Server.RequestTimeout,
			PersistLivePages: cfg.Server.PersistLivePages,
			MetricsPath:      cfg.Metrics.Path,
		},
		client,
		lookup,
		logger.With("component", "server"),
		server.WithStore(store),
		server.WithMetrics(m, metricsHandler),
	)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	var worker *poller.Poller
	if cfg.Worker.Disabled {
		logger.Info("ingestion worker disabled")
	} else {
		worker = poller.New(
			workerConfig(cfg.Worker),
			client,
			store,
			logger.With("component", "worker"),
			poller.WithMetrics(m),
		)
		if err := worker.Start(gctx); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		httpErr := httpServer.Shutdown(shutdownCtx)
		if worker != nil {
			if err := worker.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("stop worker: %w", err)
			}
		}
		return httpErr
	})

	err = g.Wait()

	stats := store.Stats()
	logger.Info("price feed stopped",
		"pages", stats.Pages,
		"upserts", stats.Upserts,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"commit_errors", stats.CommitErrors,
	)
	return err
}

func workerConfig(c config.WorkerConfig) poller.Config {
	cfg := poller.DefaultConfig()
	cfg.Currency = c.Currency
	cfg.StartPage = c.StartPage
	cfg.CompletedDelay = c.CompletedDelay
	cfg.EmptyDelay = c.EmptyDelay
	cfg.ErrorDelay = c.ErrorDelay
	cfg.FetchTimeout = c.FetchTimeout
	cfg.EmptyPolicy = poller.EmptyPolicy(c.EmptyPolicy)
	return cfg
}

func newGeckoClient(c config.GeckoConfig, logger *slog.Logger) *gecko.Client {
	opts := []gecko.ClientOption{
		gecko.WithLogger(logger.With("component", "gecko")),
		gecko.WithTimeout(c.Timeout),
		gecko.WithUserAgent(version.UserAgent()),
		gecko.WithAPIKey(c.APIKey),
		gecko.WithAPIKeyHeader(c.APIKeyHeader),
	}
	if c.RatePerMinute > 0 {
		opts = append(opts, gecko.WithRateLimit(rate.Every(time.Minute/time.Duration(c.RatePerMinute)), 1))
	}
	return gecko.NewClient(c.BaseURL, opts...)
}

func newLogger(c config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
