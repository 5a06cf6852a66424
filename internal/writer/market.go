package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/price-feed/internal/database"
	"github.com/rickgao/price-feed/internal/failure"
	"github.com/rickgao/price-feed/internal/metrics"
	"github.com/rickgao/price-feed/internal/model"
)

var upsertMarketSQL = buildUpsertSQL("market_data", database.MarketColumns)

// MarketWriter stores provider pages into market_data.
type MarketWriter struct {
	db      TxBeginner
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	stats WriterMetrics
}

// Option configures a MarketWriter.
type Option func(*MarketWriter)

// WithMetrics mirrors writer stats into Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *MarketWriter) {
		w.metrics = m
	}
}

// NewMarketWriter creates a new MarketWriter.
func NewMarketWriter(db TxBeginner, logger *slog.Logger, opts ...Option) *MarketWriter {
	if logger == nil {
		logger = slog.Default()
	}
	w := &MarketWriter{
		db:     db,
		logger: logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Stats returns current metrics.
func (w *MarketWriter) Stats() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// StorePage upserts every present record of page in a single transaction.
//
// An empty page returns EmptyQueue without touching the database. Absent
// entries, records without an id and records whose upsert fails are skipped;
// none of them affect the outcome. Only a failure to open or commit the page
// transaction is returned, as a failure.Commit error.
func (w *MarketWriter) StorePage(ctx context.Context, page model.Page) (model.Outcome, error) {
	if page.Empty() {
		return model.EmptyQueue, nil
	}

	start := time.Now()

	tx, err := w.db.Begin(ctx)
	if err != nil {
		w.recordCommit(0, 0, 0, err)
		return model.Errored, failure.New(failure.Commit, "store page", fmt.Errorf("begin transaction: %w", err))
	}

	var upserted, skipped, failed int
	for i, entry := range page {
		rec, ok := entry.Get()
		if !ok {
			skipped++
			continue
		}

		id, ok := rec.Key()
		if !ok {
			w.logger.Warn("skipping market record without id",
				"index", i,
				"symbol", deref(rec.Symbol),
			)
			skipped++
			continue
		}

		if err := w.upsert(ctx, tx, rec); err != nil {
			w.logger.Warn("market record upsert failed",
				"id", id,
				"index", i,
				"error", failure.New(failure.Store, "upsert market record", err),
			)
			failed++
			continue
		}
		upserted++
	}

	if err := tx.Commit(ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			w.logger.Warn("rollback after failed commit", "error", rbErr)
		}
		w.recordCommit(upserted, skipped, failed, err)
		return model.Errored, failure.New(failure.Commit, "store page", fmt.Errorf("commit transaction: %w", err))
	}

	w.recordCommit(upserted, skipped, failed, nil)

	w.logger.Debug("stored market page",
		"records", len(page),
		"upserted", upserted,
		"skipped", skipped,
		"failed", failed,
		"duration", time.Since(start),
	)

	return model.Completed, nil
}

// upsert writes one record inside a savepoint on tx.
func (w *MarketWriter) upsert(ctx context.Context, tx pgx.Tx, rec model.MarketRecord) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if _, err := sp.Exec(ctx, upsertMarketSQL, database.Args(rec)...); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		return err
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// recordCommit updates stats for one page attempt. Per-record counts only
// count toward totals when the page committed.
func (w *MarketWriter) recordCommit(upserted, skipped, failed int, err error) {
	w.mu.Lock()
	w.stats.Pages++
	if err != nil {
		w.stats.CommitErrors++
	} else {
		w.stats.Upserts += int64(upserted)
		w.stats.Skipped += int64(skipped)
		w.stats.Failed += int64(failed)
	}
	w.mu.Unlock()

	w.metrics.ObserveCommit(err)
	if err == nil {
		w.metrics.ObserveStore(upserted, skipped, failed)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
