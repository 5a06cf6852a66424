package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/price-feed/internal/metrics"
	"github.com/rickgao/price-feed/internal/model"
)

// PageFetcher fetches one provider page.
type PageFetcher interface {
	FetchPage(ctx context.Context, currency string, page int) (model.Page, error)
}

// PageStore persists one page.
type PageStore interface {
	StorePage(ctx context.Context, page model.Page) (model.Outcome, error)
}

// EmptyPolicy decides where the cursor goes after an empty page.
type EmptyPolicy string

const (
	// HoldOnEmpty retries the same page index next iteration.
	HoldOnEmpty EmptyPolicy = "hold"
	// RewindOnEmpty restarts from the configured start page.
	RewindOnEmpty EmptyPolicy = "rewind"
)

// Config holds poller configuration.
type Config struct {
	Currency       string        // Provider vs-currency (default: usd)
	StartPage      int           // First page index (default: 1)
	CompletedDelay time.Duration // Delay after a stored page (default: 5s)
	EmptyDelay     time.Duration // Delay after an empty page (default: 6m)
	ErrorDelay     time.Duration // Delay after a fetch or commit error (default: 5s)
	FetchTimeout   time.Duration // Bound on one fetch including rate limit wait; 0 disables
	EmptyPolicy    EmptyPolicy
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Currency:       "usd",
		StartPage:      1,
		CompletedDelay: 5 * time.Second,
		EmptyDelay:     360 * time.Second,
		ErrorDelay:     5 * time.Second,
		FetchTimeout:   time.Minute,
		EmptyPolicy:    HoldOnEmpty,
	}
}

// Delay returns the pause before the iteration following outcome o.
func (c Config) Delay(o model.Outcome) time.Duration {
	switch o {
	case model.Completed:
		return c.CompletedDelay
	case model.EmptyQueue:
		return c.EmptyDelay
	default:
		return c.ErrorDelay
	}
}

// State is the worker's position. It is passed into and returned from Step.
type State struct {
	Page      int    // Next page index to fetch
	Iteration uint64 // Completed iterations
}

// SleepFunc blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Poller.
type Option func(*Poller)

// WithSleep replaces the inter-iteration sleep, typically with a fake clock.
func WithSleep(fn SleepFunc) Option {
	return func(p *Poller) {
		p.sleep = fn
	}
}

// WithMetrics records outcomes and the cursor.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// Poller runs the fetch, store, sleep cycle.
type Poller struct {
	cfg     Config
	fetcher PageFetcher
	store   PageStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	sleep   SleepFunc

	mu    sync.Mutex
	state State

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, fetcher PageFetcher, store PageStore, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StartPage < 1 {
		cfg.StartPage = 1
	}
	if cfg.EmptyPolicy == "" {
		cfg.EmptyPolicy = HoldOnEmpty
	}
	p := &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		sleep:   sleepContext,
		state:   State{Page: cfg.StartPage},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the most recent worker position.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start runs the loop in a background goroutine.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Run(p.ctx)
	}()

	return nil
}

// Stop cancels the loop and waits for the current iteration to finish.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("ingestion worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run loops until ctx is cancelled, then returns nil. Iteration errors are
// logged and paced, never returned.
func (p *Poller) Run(ctx context.Context) error {
	s := p.State()

	p.logger.Info("ingestion worker started",
		"currency", p.cfg.Currency,
		"start_page", s.Page,
		"empty_policy", p.cfg.EmptyPolicy,
	)

	for {
		if ctx.Err() != nil {
			return nil
		}

		next, outcome, _ := p.Step(ctx, s)
		s = next

		p.mu.Lock()
		p.state = s
		p.mu.Unlock()

		p.metrics.ObserveOutcome(outcome)
		p.metrics.SetCursor(s.Page)

		if err := p.sleep(ctx, p.cfg.Delay(outcome)); err != nil {
			return nil
		}
	}
}

// Step runs one iteration from s and returns the next state.
//
// The cursor advances only on Completed. A fetch error or commit error yields
// Errored with the cursor held. An empty page yields EmptyQueue and applies the
// empty policy. The store call is not cancelled with ctx so a commit in flight
// completes.
func (p *Poller) Step(ctx context.Context, s State) (State, model.Outcome, error) {
	s.Iteration++

	logger := p.logger.With(
		"cycle", uuid.NewString(),
		"currency", p.cfg.Currency,
		"page", s.Page,
	)

	fetchCtx := ctx
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	page, err := p.fetcher.FetchPage(fetchCtx, p.cfg.Currency, s.Page)
	p.metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("fetch interrupted by shutdown", "error", err)
		} else {
			logger.Error("fetch page failed", "error", err, "retry_in", p.cfg.ErrorDelay)
		}
		return s, model.Errored, fmt.Errorf("fetch page %d: %w", s.Page, err)
	}

	if page.Empty() {
		return p.onEmpty(logger, s), model.EmptyQueue, nil
	}

	outcome, err := p.store.StorePage(context.WithoutCancel(ctx), page)
	if err != nil {
		logger.Error("store page failed", "error", err, "retry_in", p.cfg.ErrorDelay)
		return s, model.Errored, fmt.Errorf("store page %d: %w", s.Page, err)
	}
	if outcome == model.EmptyQueue {
		return p.onEmpty(logger, s), model.EmptyQueue, nil
	}

	logger.Info("page stored",
		"entries", len(page),
		"present", page.PresentCount(),
		"duration", time.Since(start),
	)

	s.Page++
	return s, model.Completed, nil
}

func (p *Poller) onEmpty(logger *slog.Logger, s State) State {
	if p.cfg.EmptyPolicy == RewindOnEmpty {
		s.Page = p.cfg.StartPage
	}
	logger.Info("provider returned empty page",
		"next_page", s.Page,
		"retry_in", p.cfg.EmptyDelay,
	)
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
