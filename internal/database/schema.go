package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// MarketColumns lists the market_data columns written on every upsert, in
// argument order. The first column is the primary key.
var MarketColumns = []string{
	"id",
	"symbol",
	"name",
	"image",
	"current_price",
	"market_cap",
	"market_cap_rank",
	"fully_diluted_valuation",
	"total_volume",
	"high_24h",
	"low_24h",
	"price_change_24h",
	"price_change_percentage_24h",
	"market_cap_change_24h",
	"market_cap_change_percentage_24h",
	"circulating_supply",
	"total_supply",
	"max_supply",
	"ath",
	"ath_change_percentage",
	"ath_date",
	"atl",
	"atl_change_percentage",
	"atl_date",
	"last_updated",
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS market_data (
		id                               TEXT PRIMARY KEY,
		symbol                           TEXT,
		name                             TEXT,
		image                            TEXT,
		current_price                    DOUBLE PRECISION,
		market_cap                       DOUBLE PRECISION,
		market_cap_rank                  INTEGER,
		fully_diluted_valuation          DOUBLE PRECISION,
		total_volume                     DOUBLE PRECISION,
		high_24h                         DOUBLE PRECISION,
		low_24h                          DOUBLE PRECISION,
		price_change_24h                 DOUBLE PRECISION,
		price_change_percentage_24h      DOUBLE PRECISION,
		market_cap_change_24h            DOUBLE PRECISION,
		market_cap_change_percentage_24h DOUBLE PRECISION,
		circulating_supply               DOUBLE PRECISION,
		total_supply                     DOUBLE PRECISION,
		max_supply                       DOUBLE PRECISION,
		ath                              DOUBLE PRECISION,
		ath_change_percentage            DOUBLE PRECISION,
		ath_date                         TIMESTAMPTZ,
		atl                              DOUBLE PRECISION,
		atl_change_percentage            DOUBLE PRECISION,
		atl_date                         TIMESTAMPTZ,
		last_updated                     TIMESTAMPTZ,
		updated_at                       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS market_data_symbol_idx
		ON market_data (symbol, last_updated DESC NULLS LAST)`,
}

// Execer runs a statement. Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates market_data and its symbol index if missing.
func EnsureSchema(ctx context.Context, db Execer) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
