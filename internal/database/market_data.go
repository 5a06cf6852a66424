package database

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/price-feed/internal/failure"
	"github.com/rickgao/price-feed/internal/model"
)

// Querier runs a single-row query. Satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var latestBySymbolSQL = `SELECT ` + strings.Join(MarketColumns, ", ") + `
	FROM market_data
	WHERE symbol = $1
	ORDER BY last_updated DESC NULLS LAST, updated_at DESC
	LIMIT 1`

// MarketData reads stored market snapshots.
type MarketData struct {
	db Querier
}

// NewMarketData creates a reader over db.
func NewMarketData(db Querier) *MarketData {
	return &MarketData{db: db}
}

// LatestBySymbol returns the most recently updated row for a ticker symbol.
// Symbols are matched in lower case, as the provider reports them.
func (m *MarketData) LatestBySymbol(ctx context.Context, symbol string) (model.MarketRecord, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return model.MarketRecord{}, failure.Newf(failure.Validation, "latest by symbol", "symbol is required")
	}

	var rec model.MarketRecord
	err := m.db.QueryRow(ctx, latestBySymbolSQL, symbol).Scan(ScanTargets(&rec)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.MarketRecord{}, failure.Newf(failure.NotFound, "latest by symbol", "no market data for symbol %q", symbol)
	}
	if err != nil {
		return model.MarketRecord{}, failure.New(failure.Store, "latest by symbol", err)
	}
	return rec, nil
}

// ScanTargets returns pointers to r's fields in MarketColumns order.
func ScanTargets(r *model.MarketRecord) []any {
	return []any{
		&r.ID,
		&r.Symbol,
		&r.Name,
		&r.Image,
		&r.CurrentPrice,
		&r.MarketCap,
		&r.MarketCapRank,
		&r.FullyDilutedValuation,
		&r.TotalVolume,
		&r.High24h,
		&r.Low24h,
		&r.PriceChange24h,
		&r.PriceChangePercentage24h,
		&r.MarketCapChange24h,
		&r.MarketCapChangePercentage24h,
		&r.CirculatingSupply,
		&r.TotalSupply,
		&r.MaxSupply,
		&r.ATH,
		&r.ATHChangePercentage,
		&r.ATHDate,
		&r.ATL,
		&r.ATLChangePercentage,
		&r.ATLDate,
		&r.LastUpdated,
	}
}

// Args returns r's field values in MarketColumns order. Nil pointers encode as NULL.
func Args(r model.MarketRecord) []any {
	return []any{
		r.ID,
		r.Symbol,
		r.Name,
		r.Image,
		r.CurrentPrice,
		r.MarketCap,
		r.MarketCapRank,
		r.FullyDilutedValuation,
		r.TotalVolume,
		r.High24h,
		r.Low24h,
		r.PriceChange24h,
		r.PriceChangePercentage24h,
		r.MarketCapChange24h,
		r.MarketCapChangePercentage24h,
		r.CirculatingSupply,
		r.TotalSupply,
		r.MaxSupply,
		r.ATH,
		r.ATHChangePercentage,
		r.ATHDate,
		r.ATL,
		r.ATLChangePercentage,
		r.ATLDate,
		r.LastUpdated,
	}
}
