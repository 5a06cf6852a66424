package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/price-feed/internal/metrics"
	"github.com/rickgao/price-feed/internal/model"
)

// HealthBody is the fixed /health_check response.
const HealthBody = "Price-Feed-Server-v1 : Working"

// PageFetcher fetches one provider page.
type PageFetcher interface {
	FetchPage(ctx context.Context, currency string, page int) (model.Page, error)
}

// PageStore persists one page.
type PageStore interface {
	StorePage(ctx context.Context, page model.Page) (model.Outcome, error)
}

// SymbolLookup finds the newest stored record for a symbol.
type SymbolLookup interface {
	LatestBySymbol(ctx context.Context, symbol string) (model.MarketRecord, error)
}

// Config holds read API settings.
type Config struct {
	RequestTimeout   time.Duration // 0 disables the per-request timeout
	PersistLivePages bool          // Store pages served by /market
	MetricsPath      string        // Empty disables /metrics
}

// Option configures a Server.
type Option func(*Server)

// WithStore sets the store used when PersistLivePages is on.
func WithStore(store PageStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithMetrics counts requests in m and serves handler at Config.MetricsPath.
func WithMetrics(m *metrics.Metrics, handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsHandler = handler
	}
}

// Server serves the read API.
type Server struct {
	cfg     Config
	fetcher PageFetcher
	lookup  SymbolLookup
	store   PageStore
	logger  *slog.Logger

	metrics        *metrics.Metrics
	metricsHandler http.Handler
}

// New creates a new Server.
func New(cfg Config, fetcher PageFetcher, lookup SymbolLookup, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		fetcher: fetcher,
		lookup:  lookup,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/health_check", s.handleHealth)
	r.Get("/market", s.handleMarket)
	r.Get("/market/latest", s.handleLatest)

	if s.metricsHandler != nil && s.cfg.MetricsPath != "" {
		r.Method(http.MethodGet, s.cfg.MetricsPath, s.metricsHandler)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
